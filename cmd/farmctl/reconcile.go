package main

import (
	"encoding/json"

	"github.com/urfave/cli/v2"

	"farmops/internal/app"
	"farmops/pkg/logger"
)

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "run one reconciliation sweep and print the report",
		Action: func(c *cli.Context) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx := logger.WithLogger(c.Context, log)

			rt, err := app.Open(ctx, cfg, app.RuntimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Services.Reconciliation.Run(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Clean() {
				return cli.Exit("reconciliation found drift", 2)
			}
			return nil
		},
	}
}
