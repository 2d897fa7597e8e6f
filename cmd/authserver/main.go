package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/boligweb/authserver/cmd/authserver/serve"
	"github.com/boligweb/authserver/cmd/authserver/users"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env must be loaded before flags read their EnvVars
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Unable to load .env file")
	}
	var level string
	app := &cli.App{
		Name:  "authserver",
		Usage: "Accounts and sessions for the listing site",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Minimum log level (debug, info, warn, error)",
				EnvVars:     []string{"LOG_LEVEL"},
				Value:       "info",
				Destination: &level,
			},
		},
		Before: func(ctx *cli.Context) error {
			lvl, err := zerolog.ParseLevel(level)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(lvl)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
