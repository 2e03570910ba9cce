package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"farmops/internal/domain/auth"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "mint a bearer token for the API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id"},
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringSliceFlag{Name: "role", Usage: "role to grant (repeatable)"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (defaults to JWT_TTL)"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := loadConfig(c)
			if err != nil {
				return err
			}

			jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
			jwtConfig.AccessTokenTTL = cfg.Auth.TokenTTL
			if ttl := c.Duration("ttl"); ttl > 0 {
				jwtConfig.AccessTokenTTL = ttl
			}

			token, expiresAt, err := auth.NewJWTService(jwtConfig).
				GenerateAccessToken(c.String("user"), c.String("name"), c.StringSlice("role"))
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, token)
			fmt.Fprintf(c.App.ErrWriter, "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
}
