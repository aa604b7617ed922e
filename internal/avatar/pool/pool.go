// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package pool keeps exactly one media resource handle per presentation state
// for the lifetime of the process and drives each handle through its candidate
// fallback chain.
//
// The pool is not safe for concurrent use. It is owned by the event loop and
// every call, including media stack completions, must run on that goroutine.
package pool

import (
	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	"github.com/ManuGH/avatarcache/internal/avatar/media"
	xglog "github.com/ManuGH/avatarcache/internal/log"
	"github.com/ManuGH/avatarcache/internal/metrics"
	"github.com/rs/zerolog"
)

// Stats is a point-in-time summary of the pool.
type Stats struct {
	Constructed  int64 `json:"constructed"`   // handles built since process start
	LoadFailures int64 `json:"load_failures"` // contained candidate failures
	Loading      int   `json:"loading"`
	Ready        int   `json:"ready"`
	Exhausted    int   `json:"exhausted"`
}

// HandleInfo is a read-only view of one handle for diagnostics.
type HandleInfo struct {
	State      string   `json:"state"`
	Phase      Phase    `json:"phase"`
	Cursor     int      `json:"cursor"`
	Candidate  string   `json:"candidate,omitempty"`
	Candidates []string `json:"candidates"`
	Owner      string   `json:"owner,omitempty"`
	ElementID  string   `json:"element_id"`
}

// Option configures a Pool.
type Option func(*Pool)

// WithObserver registers fn to receive every handle event.
func WithObserver(fn func(Event)) Option {
	return func(p *Pool) { p.observer = fn }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// Pool maps presentation states to their handles.
type Pool struct {
	catalog  *catalog.Catalog
	stack    media.Stack
	basePath string

	handles [catalog.Count]*Handle
	warmed  bool
	stats   Stats

	observer func(Event)
	logger   zerolog.Logger
}

// New creates an empty pool. basePath is prepended to every candidate to form
// its locator.
func New(cat *catalog.Catalog, stack media.Stack, basePath string, opts ...Option) *Pool {
	p := &Pool{
		catalog:  cat,
		stack:    stack,
		basePath: basePath,
		logger:   xglog.WithComponent("avatar.pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure returns the handle for state, constructing it and starting the
// fallback chain on first use. It returns false when the state has no
// candidates; no handle or loader is created in that case.
func (p *Pool) Ensure(state catalog.State) (*Handle, bool) {
	if h, ok := p.Get(state); ok {
		return h, true
	}
	candidates := p.catalog.Resolve(state)
	if len(candidates) == 0 {
		return nil, false
	}

	h := newHandle(state, candidates, p.stack.NewElement(state.String()))
	p.handles[state] = h
	p.stats.Constructed++
	metrics.IncHandleCreated(state.String())
	p.emit(Event{Kind: EventCreated, State: state})

	p.logger.Debug().
		Str(xglog.FieldEvent, "avatar.handle_created").
		Str(xglog.FieldState, state.String()).
		Str(xglog.FieldElementID, h.element.ID()).
		Int("candidates", len(candidates)).
		Msg("constructed resource handle")

	l := &fallbackLoader{h: h, basePath: p.basePath, emit: p.emit, logger: p.logger}
	l.start()
	return h, true
}

// Get looks up an existing handle without creating one.
func (p *Pool) Get(state catalog.State) (*Handle, bool) {
	if !p.catalog.Has(state) {
		return nil, false
	}
	h := p.handles[state]
	return h, h != nil
}

// WarmupAll ensures every known state once. Later calls do nothing.
func (p *Pool) WarmupAll() {
	if p.warmed {
		return
	}
	p.warmed = true

	for _, state := range catalog.All() {
		if _, ok := p.Ensure(state); !ok {
			p.logger.Warn().
				Str(xglog.FieldEvent, "avatar.asset_missing").
				Str(xglog.FieldState, state.String()).
				Msg("no candidates registered, skipping warmup")
		}
	}

	p.logger.Info().
		Str(xglog.FieldEvent, "avatar.warmup").
		Int64("constructed", p.stats.Constructed).
		Str(xglog.FieldBasePath, p.basePath).
		Msg("pool warmup issued")
}

// Stats returns pool counters and the current phase distribution.
func (p *Pool) Stats() Stats {
	s := p.stats
	for _, h := range p.handles {
		if h == nil {
			continue
		}
		switch h.Phase() {
		case PhaseReady:
			s.Ready++
		case PhaseExhausted:
			s.Exhausted++
		default:
			s.Loading++
		}
	}
	return s
}

// Snapshot describes every constructed handle in state order.
func (p *Pool) Snapshot() []HandleInfo {
	out := make([]HandleInfo, 0, len(p.handles))
	for _, h := range p.handles {
		if h == nil {
			continue
		}
		info := HandleInfo{
			State:      h.state.String(),
			Phase:      h.Phase(),
			Cursor:     h.cursor,
			Candidate:  h.Candidate(),
			Candidates: append([]string(nil), h.candidates...),
			ElementID:  h.element.ID(),
		}
		if h.owner != nil {
			info.Owner = h.owner.ID()
		}
		out = append(out, info)
	}
	return out
}

func (p *Pool) emit(ev Event) {
	if ev.Kind == EventLoadFailure {
		p.stats.LoadFailures++
	}
	if p.observer != nil {
		p.observer(ev)
	}
}
