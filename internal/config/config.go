// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment keys.
const (
	EnvBasePath        = "AVATAR_BASE_PATH"
	EnvCatalogFile     = "AVATAR_CATALOG_FILE"
	EnvFFprobeBin      = "AVATAR_FFPROBE_BIN"
	EnvProbeRate       = "AVATAR_PROBE_RATE"
	EnvProbeBurst      = "AVATAR_PROBE_BURST"
	EnvWarmup          = "AVATAR_WARMUP"
	EnvListenAddr      = "AVATAR_LISTEN_ADDR"
	EnvShutdownTimeout = "AVATAR_SHUTDOWN_TIMEOUT"
	EnvLogLevel        = "AVATAR_LOG_LEVEL"
	EnvLogService      = "AVATAR_LOG_SERVICE"

	EnvTracingEnabled    = "AVATAR_TRACING_ENABLED"
	EnvTracingExporter   = "AVATAR_TRACING_EXPORTER"
	EnvTracingEndpoint   = "AVATAR_TRACING_ENDPOINT"
	EnvTracingSampleRate = "AVATAR_TRACING_SAMPLE_RATE"
)

// DefaultBasePath is used when no override is configured.
const DefaultBasePath = "/assets/avatar/"

// Config holds the resolved runtime settings.
type Config struct {
	// BasePath is concatenated with each candidate filename to form its locator.
	BasePath string
	// CatalogFile optionally replaces the built-in state -> candidates table.
	CatalogFile string
	FFprobeBin  string
	// ProbeRate limits ffprobe launches per second; 0 disables pacing.
	ProbeRate       float64
	ProbeBurst      int
	Warmup          bool
	ListenAddr      string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogService      string

	Tracing TracingConfig
}

// TracingConfig selects the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool
	Exporter   string // grpc or http
	Endpoint   string
	SampleRate float64
}

// Load resolves Config from the environment over the built-in defaults.
func Load() (Config, error) {
	cfg := Config{
		BasePath:        ParseString(EnvBasePath, DefaultBasePath),
		CatalogFile:     strings.TrimSpace(ParseString(EnvCatalogFile, "")),
		FFprobeBin:      strings.TrimSpace(ParseString(EnvFFprobeBin, "ffprobe")),
		ProbeRate:       ParseFloat(EnvProbeRate, 4),
		ProbeBurst:      ParseInt(EnvProbeBurst, 2),
		Warmup:          ParseBool(EnvWarmup, true),
		ListenAddr:      ParseString(EnvListenAddr, "127.0.0.1:8089"),
		ShutdownTimeout: ParseDuration(EnvShutdownTimeout, 5*time.Second),
		LogLevel:        ParseString(EnvLogLevel, "info"),
		LogService:      ParseString(EnvLogService, "avatarcache"),
		Tracing: TracingConfig{
			Enabled:    ParseBool(EnvTracingEnabled, false),
			Exporter:   strings.ToLower(ParseString(EnvTracingExporter, "grpc")),
			Endpoint:   ParseString(EnvTracingEndpoint, "localhost:4317"),
			SampleRate: ParseFloat(EnvTracingSampleRate, 1.0),
		},
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the daemon cannot start with.
func Validate(cfg Config) error {
	if cfg.BasePath == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, EnvBasePath)
	}
	if cfg.ProbeRate < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidConfig, EnvProbeRate, cfg.ProbeRate)
	}
	if cfg.ProbeBurst < 1 {
		return fmt.Errorf("%w: %s must be >= 1, got %d", ErrInvalidConfig, EnvProbeBurst, cfg.ProbeBurst)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, EnvShutdownTimeout)
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("%w: %s must be grpc or http, got %q", ErrInvalidConfig, EnvTracingExporter, cfg.Tracing.Exporter)
		}
		if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
			return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrInvalidConfig, EnvTracingSampleRate, cfg.Tracing.SampleRate)
		}
	}
	return nil
}
