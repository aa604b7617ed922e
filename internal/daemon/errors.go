// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingCatalog is returned when an app is created without a catalog.
	ErrMissingCatalog = errors.New("catalog is required")

	// ErrMissingProber is returned when an app is created without a stream prober.
	ErrMissingProber = errors.New("stream prober is required")

	// ErrServerStartFailed is returned when the diagnostics listener cannot be opened.
	ErrServerStartFailed = errors.New("server failed to start")
)
