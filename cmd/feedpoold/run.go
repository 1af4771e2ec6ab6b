// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/daemon"
	"github.com/ManuGH/feedpool/internal/log"
	"github.com/ManuGH/feedpool/internal/version"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, opts.configPath)
		},
	}
}

func runDaemon(ctx context.Context, configPath string) error {
	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Output:  os.Stdout,
		Service: cfg.LogService,
		Version: version.Version,
	})
	logger := log.WithComponent("main")
	logger.Info().
		Str(log.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str(log.FieldPath, loader.Path()).
		Int(log.FieldCapacity, cfg.Pool.Capacity).
		Msg("starting feedpoold")

	app, err := daemon.NewApp(ctx, config.NewConfigHolder(cfg, loader))
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "startup.failed").Msg("failed to build daemon")
		return err
	}
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("daemon exited with error")
		return err
	}
	return nil
}
