// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package diag serves the avatar daemon's operator surface: health, metrics,
// the per-state pool view, and headless panels that can be attached to a
// state for smoke testing a deployment's asset set.
package diag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/avatarcache/internal/avatar/binder"
	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	"github.com/ManuGH/avatarcache/internal/avatar/headless"
	"github.com/ManuGH/avatarcache/internal/avatar/media"
	"github.com/ManuGH/avatarcache/internal/avatar/pool"
)

const maxBodyBytes = 4 << 10

// Executor runs fn on the event loop and waits for it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Server exposes the pool over HTTP. Every pool access hops onto the loop.
type Server struct {
	loop   Executor
	pool   *pool.Pool
	binder *binder.Binder
	// panels is owned by the loop goroutine.
	panels map[string]*headless.Container
}

// New creates a diagnostics server.
func New(loop Executor, p *pool.Pool, b *binder.Binder) *Server {
	return &Server{
		loop:   loop,
		pool:   p,
		binder: b,
		panels: make(map[string]*headless.Container),
	}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(tracing("avatarcache"))
	r.Use(accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/avatar", func(r chi.Router) {
		r.Use(rateLimit(600, time.Minute))
		r.Get("/states", s.handleStates)
		r.Get("/stats", s.handleStats)
		r.Get("/panels/{panel}", s.handlePanel)
		r.Post("/panels/{panel}/attach", s.handleAttach)
		r.Delete("/panels/{panel}", s.handleDetach)
	})
	return r
}

type attachRequest struct {
	State    string  `json:"state"`
	Position string  `json:"position,omitempty"`
	Fit      string  `json:"fit,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

type panelResponse struct {
	headless.View
	State string     `json:"state,omitempty"`
	Phase pool.Phase `json:"phase,omitempty"`
	Error string     `json:"error,omitempty"`
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	var snap []pool.HandleInfo
	if !s.do(w, r, func() { snap = s.pool.Snapshot() }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": snap})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var st pool.Stats
	if !s.do(w, r, func() { st = s.pool.Stats() }) {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "panel")
	var (
		resp  panelResponse
		found bool
	)
	if !s.do(w, r, func() {
		c, ok := s.panels[id]
		if !ok {
			return
		}
		found = true
		resp = s.describe(c)
	}) {
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "panel not found"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "panel")

	var req attachRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// Unknown state names are passed through as an out-of-range state, which
	// the pool treats as having no asset.
	state, ok := catalog.ParseState(req.State)
	if !ok {
		state = catalog.State(catalog.Count)
	}
	opts := media.Options{Position: req.Position, Fit: media.ParseFit(req.Fit), Scale: req.Scale}

	var resp panelResponse
	if !s.do(w, r, func() {
		c, exists := s.panels[id]
		if !exists {
			c = headless.New(id)
			s.panels[id] = c
		}
		s.binder.Attach(c, state, opts)
		resp = s.describe(c)
		if _, bound := s.binder.Bound(id); !bound {
			resp.State = state.String()
			resp.Error = attachFailure(s.pool, state)
		}
	}) {
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "panel")
	var found bool
	if !s.do(w, r, func() {
		c, ok := s.panels[id]
		if !ok {
			return
		}
		found = true
		s.binder.Detach(c)
		delete(s.panels, id)
	}) {
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "panel not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// describe must run on the loop.
func (s *Server) describe(c *headless.Container) panelResponse {
	resp := panelResponse{View: c.View()}
	if state, ok := s.binder.Bound(c.ID()); ok {
		resp.State = state.String()
		if h, ok := s.pool.Get(state); ok {
			resp.Phase = h.Phase()
		}
	}
	return resp
}

// attachFailure names the reason a synchronous attach did not bind.
func attachFailure(p *pool.Pool, state catalog.State) string {
	if h, ok := p.Get(state); ok && h.Exhausted() {
		return pool.ErrChainExhausted.Error()
	}
	return pool.ErrAssetMissing.Error()
}

func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.loop.Do(r.Context(), fn); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
