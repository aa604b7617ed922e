// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"

	"github.com/ManuGH/avatarcache/internal/telemetry"
)

// chanDispatcher hands posted work to the test goroutine, which plays the
// role of the event loop.
type chanDispatcher chan func()

func (d chanDispatcher) Post(fn func()) { d <- fn }

func (d chanDispatcher) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-d:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no completion posted")
	}
}

type fakeProber struct {
	mu      sync.Mutex
	results map[string]error
	calls   []string
}

func (f *fakeProber) Probe(_ context.Context, locator string) (*StreamInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, locator)
	if err := f.results[locator]; err != nil {
		return nil, err
	}
	return &StreamInfo{Container: "webm", Codec: "vp9", Width: 64, Height: 64}, nil
}

func TestStack_LoadPostsCompletionToLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	loop := make(chanDispatcher, 4)
	prober := &fakeProber{results: map[string]error{"/a/bad.webm": errors.New("moov atom not found")}}
	stack := NewStack(context.Background(), loop, prober)

	el := stack.NewElement("idle").(*Element)
	assert.Contains(t, el.ID(), "idle-")
	assert.True(t, el.Paused())

	var got []error
	el.Load("/a/bad.webm", func(err error) { got = append(got, err) })
	loop.runOne(t)
	el.Load("/a/good.webm", func(err error) { got = append(got, err) })
	loop.runOne(t)

	require.Len(t, got, 2)
	assert.Error(t, got[0])
	assert.NoError(t, got[1])
	assert.Equal(t, "/a/good.webm", el.Source())
	require.NotNil(t, el.Info())
	assert.Equal(t, "vp9", el.Info().Codec)

	el.Play()
	assert.False(t, el.Paused())
	el.Pause()
	assert.True(t, el.Paused())
}

func TestStack_RecordsProbeSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	loop := make(chanDispatcher, 2)
	prober := &fakeProber{results: map[string]error{"/a/bad.webm": errors.New("invalid data")}}
	stack := NewStack(context.Background(), loop, prober, WithTracer(tp.Tracer("test")))

	el := stack.NewElement("thinking")
	el.Load("/a/bad.webm", func(error) {})
	loop.runOne(t)
	el.Load("/a/ok.webm", func(error) {})
	loop.runOne(t)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "avatar.probe", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEqual(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.String(telemetry.MediaResolutionKey, "64x64"))
	assert.Contains(t, spans[0].Attributes(), attribute.String(telemetry.AvatarLocatorKey, "/a/bad.webm"))
}

func TestStack_CancelledContextFailsLoad(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := make(chanDispatcher, 1)
	prober := &fakeProber{}
	// A zero-rate limiter makes Wait observe the cancelled context.
	stack := NewStack(ctx, loop, prober, WithRateLimit(rate.Limit(0), 1))

	// Drain the single burst token so the next Wait must block.
	require.True(t, stack.limiter.Allow())

	var got error
	stack.NewElement("idle").Load("/a/idle.webm", func(err error) { got = err })
	loop.runOne(t)
	assert.Error(t, got)
	assert.Empty(t, prober.calls)
}
