package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrebq/connectia/cmd/connectia/serve"
	"github.com/andrebq/connectia/cmd/connectia/users"
	"github.com/andrebq/connectia/internal/cmdflags"
	"github.com/andrebq/connectia/internal/config"
	"github.com/andrebq/connectia/internal/logutil"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Unable to load .env file")
	}
	verbosity := config.DefaultVerbosity
	app := &cli.App{
		Name:  "connectia",
		Usage: "Session based login for the connectia frontend",
		Flags: []cli.Flag{
			cmdflags.Verbosity(&verbosity),
		},
		Before: func(ctx *cli.Context) error {
			logutil.Setup(verbosity, os.Stderr)
			return nil
		},
		Commands: []*cli.Command{
			serve.Cmd(),
			users.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
