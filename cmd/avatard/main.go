// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command avatard runs the avatar media pool headless: it probes every
// presentation state's candidates with ffprobe and serves diagnostics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/avatarcache/internal/config"
	"github.com/ManuGH/avatarcache/internal/daemon"
	"github.com/ManuGH/avatarcache/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/avatarcache/internal/log"
	"github.com/ManuGH/avatarcache/internal/telemetry"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "print version and exit")
	catalogPath := flag.String("catalog", "", "path to a YAML state catalog (overrides "+config.EnvCatalogFile+")")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	// Safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "avatarcache",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Msg("failed to load configuration")
	}
	if *catalogPath != "" {
		cfg.CatalogFile = *catalogPath
	}

	xglog.Reconfigure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: version,
	})
	logger = xglog.WithComponent("daemon")

	cat, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "catalog.load_failed").
			Str(xglog.FieldPath, cfg.CatalogFile).
			Msg("failed to load state catalog")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("failed to initialise tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("trace flush failed")
		}
	}()

	app, err := daemon.NewApp(cfg, daemon.Deps{
		Logger:  logger,
		Catalog: cat,
		Prober:  ffmpeg.NewProber(cfg.FFprobeBin),
	})
	if err != nil {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "daemon.init_failed").Msg("failed to build daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.exited").Msg("daemon stopped with error")
		return 1
	}
	return 0
}
