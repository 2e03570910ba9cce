package main

import (
	"errors"
	"os"
	"os/exec"

	"github.com/urfave/cli/v2"

	"farmops/internal/config"
)

func migrateCommand() *cli.Command {
	run := func(direction string) cli.ActionFunc {
		return func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.App.StorageDriver != config.DriverPostgres {
				return errors.New("migrations require STORAGE_DRIVER=postgres")
			}
			return goose(c.String("dir"), cfg.Database.URL, direction)
		}
	}

	dirFlag := &cli.StringFlag{Name: "dir", Value: "db/migrations", Usage: "migrations directory"}

	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations with goose",
		Subcommands: []*cli.Command{
			{Name: "up", Usage: "apply pending migrations", Flags: []cli.Flag{dirFlag}, Action: run("up")},
			{Name: "down", Usage: "roll back the last migration", Flags: []cli.Flag{dirFlag}, Action: run("down")},
			{Name: "status", Usage: "print migration status", Flags: []cli.Flag{dirFlag}, Action: run("status")},
		},
	}
}

func goose(dir, dsn, direction string) error {
	cmd := exec.Command("goose", "-dir", dir, "postgres", dsn, direction)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
