// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the avatar pool to its event loop, the ffprobe media
// stack and the diagnostics server, and owns their shared lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ManuGH/avatarcache/internal/avatar/binder"
	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	"github.com/ManuGH/avatarcache/internal/avatar/pool"
	"github.com/ManuGH/avatarcache/internal/config"
	"github.com/ManuGH/avatarcache/internal/diag"
	"github.com/ManuGH/avatarcache/internal/eventloop"
	"github.com/ManuGH/avatarcache/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/avatarcache/internal/log"
)

// Deps are the collaborators an App cannot build from config alone.
type Deps struct {
	Logger  zerolog.Logger
	Catalog *catalog.Catalog
	Prober  ffmpeg.StreamProber
}

// App owns the event loop, the pool and the diagnostics server.
type App struct {
	cfg     config.Config
	logger  zerolog.Logger
	catalog *catalog.Catalog
	prober  ffmpeg.StreamProber

	listening chan struct{}
	addr      net.Addr
}

// NewApp validates deps and returns an App ready to Run.
func NewApp(cfg config.Config, deps Deps) (*App, error) {
	if deps.Catalog == nil {
		return nil, ErrMissingCatalog
	}
	if deps.Prober == nil {
		return nil, ErrMissingProber
	}
	return &App{
		cfg:       cfg,
		logger:    deps.Logger,
		catalog:   deps.Catalog,
		prober:    deps.Prober,
		listening: make(chan struct{}),
	}, nil
}

// Listening is closed once the diagnostics listener is bound.
func (a *App) Listening() <-chan struct{} { return a.listening }

// Addr is the bound diagnostics address. Valid after Listening is closed.
func (a *App) Addr() net.Addr { return a.addr }

// Run blocks until ctx is cancelled or a subsystem fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServerStartFailed, err)
	}
	a.addr = ln.Addr()
	close(a.listening)

	g, ctx := errgroup.WithContext(ctx)

	loop := eventloop.New()
	g.Go(func() error { return loop.Run(ctx) })

	stack := ffmpeg.NewStack(ctx, loop, a.prober,
		ffmpeg.WithRateLimit(probeLimit(a.cfg.ProbeRate), a.cfg.ProbeBurst))
	p := pool.New(a.catalog, stack, a.cfg.BasePath, pool.WithObserver(a.observe))
	b := binder.New(p, a.onAttachError)

	if a.cfg.Warmup {
		loop.Post(p.WarmupAll)
	}

	srv := &http.Server{
		Handler:           diag.New(loop, p, b).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.logger.Info().
		Str(xglog.FieldEvent, "daemon.started").
		Str("addr", a.addr.String()).
		Str(xglog.FieldBasePath, a.cfg.BasePath).
		Bool("warmup", a.cfg.Warmup).
		Msg("avatar daemon listening")

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%w: %w", ErrServerStartFailed, err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn().Err(err).Str(xglog.FieldEvent, "daemon.shutdown_failed").Msg("diagnostics server shutdown")
			return err
		}
		a.logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("avatar daemon stopped")
		return nil
	})

	return g.Wait()
}

// observe runs on the event loop for every handle transition.
func (a *App) observe(ev pool.Event) {
	switch ev.Kind {
	case pool.EventLoadFailure:
		a.logger.Debug().
			Err(ev.Err).
			Str(xglog.FieldEvent, "avatar.candidate_rejected").
			Str(xglog.FieldState, ev.State.String()).
			Str(xglog.FieldCandidate, ev.Candidate).
			Int(xglog.FieldCursor, ev.Cursor).
			Msg("falling back to next candidate")
	case pool.EventExhausted:
		a.logger.Error().
			Err(ev.Err).
			Str(xglog.FieldEvent, "avatar.state_unavailable").
			Str(xglog.FieldState, ev.State.String()).
			Msg("no playable candidate for state")
	}
}

func (a *App) onAttachError(state catalog.State, err error) {
	a.logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "daemon.attach_error").
		Str(xglog.FieldState, state.String()).
		Msg("panel shows placeholder")
}

// probeLimit maps a launches-per-second setting to a limiter rate; 0 means unpaced.
func probeLimit(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}
