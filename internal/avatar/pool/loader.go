// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pool

import (
	"fmt"

	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	xglog "github.com/ManuGH/avatarcache/internal/log"
	"github.com/ManuGH/avatarcache/internal/metrics"
	"github.com/rs/zerolog"
)

// fallbackLoader walks one handle through its candidates. Candidate i+1 is
// only requested after candidate i reported failure, so loads for a handle
// are strictly sequential.
type fallbackLoader struct {
	h        *Handle
	basePath string
	emit     func(Event)
	logger   zerolog.Logger
}

func (l *fallbackLoader) start() {
	l.load()
}

func (l *fallbackLoader) load() {
	h := l.h
	idx := h.cursor
	candidate := h.candidates[idx]
	locator := catalog.Locator(l.basePath, candidate)

	metrics.IncLoadAttempt(h.state.String())
	metrics.SetHandlePhase(h.state.String(), PhaseLoading.gauge())
	l.emit(Event{Kind: EventLoading, State: h.state, Cursor: idx, Candidate: candidate})

	l.logger.Debug().
		Str(xglog.FieldEvent, "avatar.load_started").
		Str(xglog.FieldState, h.state.String()).
		Int(xglog.FieldCursor, idx).
		Str(xglog.FieldLocator, locator).
		Msg("loading candidate")

	h.element.Load(locator, func(err error) {
		l.complete(idx, err)
	})
}

// complete handles the outcome for candidate idx. Signals for a candidate that
// is no longer current, or arriving after a terminal phase, are dropped.
func (l *fallbackLoader) complete(idx int, err error) {
	h := l.h
	if h.ready || h.exhausted || idx != h.cursor {
		l.logger.Debug().
			Str(xglog.FieldEvent, "avatar.stale_signal").
			Str(xglog.FieldState, h.state.String()).
			Int(xglog.FieldCursor, idx).
			Msg("ignoring load signal for inactive candidate")
		return
	}

	candidate := h.candidates[idx]
	if err == nil {
		h.ready = true
		metrics.SetHandlePhase(h.state.String(), PhaseReady.gauge())
		l.emit(Event{Kind: EventReady, State: h.state, Cursor: idx, Candidate: candidate})
		l.logger.Info().
			Str(xglog.FieldEvent, "avatar.ready").
			Str(xglog.FieldState, h.state.String()).
			Str(xglog.FieldCandidate, candidate).
			Int(xglog.FieldCursor, idx).
			Msg("presentation state ready")
		h.notify(PhaseReady)
		return
	}

	failure := fmt.Errorf("%w: %s: %w", ErrLoadFailure, candidate, err)
	metrics.IncLoadFailure(h.state.String())
	l.emit(Event{Kind: EventLoadFailure, State: h.state, Cursor: idx, Candidate: candidate, Err: failure})
	l.logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "avatar.load_failed").
		Str(xglog.FieldState, h.state.String()).
		Str(xglog.FieldCandidate, candidate).
		Int(xglog.FieldCursor, idx).
		Msg("candidate failed, advancing fallback chain")

	h.cursor++
	if h.cursor < len(h.candidates) {
		l.load()
		return
	}

	h.exhausted = true
	metrics.SetHandlePhase(h.state.String(), PhaseExhausted.gauge())
	l.emit(Event{Kind: EventExhausted, State: h.state, Cursor: h.cursor, Err: ErrChainExhausted})
	l.logger.Error().
		Str(xglog.FieldEvent, "avatar.exhausted").
		Str(xglog.FieldState, h.state.String()).
		Int("candidates", len(h.candidates)).
		Msg("every candidate failed; state will show its placeholder")
	h.notify(PhaseExhausted)
}
