// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ManuGH/avatarcache/internal/avatar/media"
	"github.com/ManuGH/avatarcache/internal/eventloop"
	xglog "github.com/ManuGH/avatarcache/internal/log"
	"github.com/ManuGH/avatarcache/internal/metrics"
	"github.com/ManuGH/avatarcache/internal/telemetry"
)

// StreamProber is satisfied by *Prober; tests substitute canned results.
type StreamProber interface {
	Probe(ctx context.Context, locator string) (*StreamInfo, error)
}

// Stack is a headless media.Stack. An element counts as buffered once
// ffprobe decoded a playable video stream from its locator. Completions are
// posted back onto the event loop.
type Stack struct {
	ctx     context.Context
	loop    eventloop.Dispatcher
	prober  StreamProber
	limiter *rate.Limiter
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithRateLimit paces probe process launches, e.g. during warmup of every state.
func WithRateLimit(limit rate.Limit, burst int) StackOption {
	return func(s *Stack) {
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTracer overrides the tracer (defaults to the global provider).
func WithTracer(t trace.Tracer) StackOption {
	return func(s *Stack) { s.tracer = t }
}

// WithStackLogger overrides the component logger.
func WithStackLogger(l zerolog.Logger) StackOption {
	return func(s *Stack) { s.logger = l }
}

// NewStack creates a stack. ctx bounds every probe; cancelling it is the only
// way an in-flight load is abandoned.
func NewStack(ctx context.Context, loop eventloop.Dispatcher, prober StreamProber, opts ...StackOption) *Stack {
	s := &Stack{
		ctx:     ctx,
		loop:    loop,
		prober:  prober,
		limiter: rate.NewLimiter(rate.Inf, 1),
		tracer:  otel.Tracer("github.com/ManuGH/avatarcache/internal/infra/ffmpeg"),
		logger:  xglog.WithComponent("media.ffprobe"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewElement implements media.Stack.
func (s *Stack) NewElement(name string) media.Element {
	return &Element{
		id:     name + "-" + uuid.NewString()[:8],
		stack:  s,
		paused: true,
	}
}

func (s *Stack) probe(el *Element, locator string, done media.LoadDone) {
	ctx, span := s.tracer.Start(s.ctx, "avatar.probe",
		trace.WithAttributes(telemetry.ProbeAttributes(el.id, locator)...))

	start := time.Now()
	var (
		info *StreamInfo
		err  error
	)
	if err = s.limiter.Wait(ctx); err == nil {
		info, err = s.prober.Probe(ctx, locator)
	}
	metrics.ObserveProbeDuration(err == nil, time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
	} else {
		span.SetAttributes(telemetry.MediaAttributes(info.Codec, info.Container, info.Resolution())...)
	}
	span.End()

	s.loop.Post(func() {
		if err == nil {
			el.source = locator
			el.info = info
			s.logger.Debug().
				Str(xglog.FieldEvent, "media.buffered").
				Str(xglog.FieldElementID, el.id).
				Str(xglog.FieldLocator, locator).
				Str(xglog.FieldCodec, info.Codec).
				Str(xglog.FieldFormat, info.Container).
				Str(xglog.FieldResolution, info.Resolution()).
				Msg("candidate probed")
		}
		done(err)
	})
}

// Element is a headless playable element. Its methods run on the event loop.
type Element struct {
	id     string
	stack  *Stack
	source string
	info   *StreamInfo
	paused bool
}

func (e *Element) ID() string { return e.id }

// Load implements media.Element.
func (e *Element) Load(locator string, done media.LoadDone) {
	go e.stack.probe(e, locator, done)
}

func (e *Element) Play() {
	if !e.paused {
		return
	}
	e.paused = false
	e.stack.logger.Debug().
		Str(xglog.FieldEvent, "media.play").
		Str(xglog.FieldElementID, e.id).
		Str(xglog.FieldLocator, e.source).
		Msg("playing")
}

func (e *Element) Pause() {
	e.paused = true
}

func (e *Element) Paused() bool { return e.paused }

// Source returns the locator that last probed successfully.
func (e *Element) Source() string { return e.source }

// Info returns the probe result backing Source, or nil.
func (e *Element) Info() *StreamInfo { return e.info }
