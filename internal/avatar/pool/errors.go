// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pool

import "errors"

var (
	// ErrAssetMissing classifies a state with no candidate assets at all.
	ErrAssetMissing = errors.New("no asset registered for presentation state")

	// ErrLoadFailure wraps a single candidate failure. It never leaves the
	// fallback loader except through observer events.
	ErrLoadFailure = errors.New("candidate load failed")

	// ErrChainExhausted classifies a state whose every candidate failed.
	ErrChainExhausted = errors.New("all candidates failed")
)
