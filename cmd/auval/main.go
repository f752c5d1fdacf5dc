package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/auval/pkg/cli"
	"github.com/platinummonkey/auval/pkg/config"
	"github.com/platinummonkey/auval/pkg/observability"
	"github.com/platinummonkey/auval/pkg/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return int(validator.CouldNotRun)
	}

	// Logs go to stderr so command output stays parseable
	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, logger, os.Stdout)
	app.Context = ctx
	if err := app.Start(ctx); err != nil {
		logger.WithError(err).Warn("Failed to start exporters")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.WithError(err).Warn("Shutdown finished with errors")
		}
	}()

	err = cli.NewRootCommand(app).Execute(os.Args[1:])

	var exit *cli.ExitError
	switch {
	case errors.As(err, &exit):
		if exit.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exit.Err)
		}
		return exit.Code
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
