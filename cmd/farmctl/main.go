// Package main is farmctl, the operator CLI: migrations, demo data, tokens
// and one-off reconciliation sweeps.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"farmops/internal/config"
	"farmops/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "farmctl",
		Usage: "operate a farmops deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env", Usage: "path to .env file"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			tokenCommand(),
			reconcileCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and a logger for a command.
func loadConfig(c *cli.Context) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
