package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"vocaloop/internal/cli"
	"vocaloop/internal/config"
	"vocaloop/internal/output"
	"vocaloop/internal/telemetry"
	"vocaloop/internal/version"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	closer, err := telemetry.InitLogger(cfg.Logging, nil)
	if err != nil {
		return errors.Wrap(err, "initializing logging")
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry, version.Version)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	} else {
		defer shutdown()
	}

	deps := &cli.Dependencies{
		Config: cfg,
		Out:    output.NewFormatter(os.Stdout),
		In:     os.Stdin,
	}
	return cli.NewRootCmd(deps).ExecuteContext(ctx)
}
