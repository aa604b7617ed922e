// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package binder

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	"github.com/ManuGH/avatarcache/internal/avatar/media"
	"github.com/ManuGH/avatarcache/internal/avatar/mediatest"
	"github.com/ManuGH/avatarcache/internal/avatar/pool"
)

const base = "/a/"

type failure struct {
	state catalog.State
	err   error
}

type fixture struct {
	stack  *mediatest.Stack
	pool   *pool.Pool
	binder *Binder
	errs   []failure
}

func newFixture(t *testing.T, table map[catalog.State][]string) *fixture {
	t.Helper()
	cat, err := catalog.New(table)
	require.NoError(t, err)
	f := &fixture{stack: mediatest.NewStack()}
	f.pool = pool.New(cat, f.stack, base)
	f.binder = New(f.pool, func(s catalog.State, err error) {
		f.errs = append(f.errs, failure{state: s, err: err})
	})
	return f
}

func element(t *testing.T, f *fixture, state catalog.State) *mediatest.Element {
	t.Helper()
	h, ok := f.pool.Get(state)
	require.True(t, ok)
	return h.Element().(*mediatest.Element)
}

// transfers reads avatar_ownership_transfers_total for state from the default registry.
func transfers(t *testing.T, state catalog.State) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "avatar_ownership_transfers_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "state" && lp.GetValue() == state.String() {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestAttach_ReadyPlaysImmediately(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateIdle: {"idle.webm"}})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "idle.webm")

	x := mediatest.NewContainer("x")
	opts := media.Options{Position: "center bottom", Fit: media.FitCover, Scale: 1.2}
	f.binder.Attach(x, catalog.StateIdle, opts)

	el := element(t, f, catalog.StateIdle)
	assert.False(t, el.Paused())
	assert.False(t, x.Placeholder)
	assert.Equal(t, el, x.Mounted)
	assert.Equal(t, opts, x.Options)
	assert.Empty(t, f.errs)
}

func TestAttach_LoadingGatesOnReady(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateIdle: {"idle.webm", "idle.mp4"}})
	x := mediatest.NewContainer("x")

	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	el := element(t, f, catalog.StateIdle)

	assert.True(t, x.Placeholder, "placeholder until buffered")
	assert.True(t, el.Paused())
	assert.Equal(t, el, x.Mounted)

	f.stack.Fail(base + "idle.webm")
	assert.True(t, x.Placeholder)
	assert.Empty(t, f.errs, "a contained load failure is never surfaced")

	f.stack.Succeed(base + "idle.mp4")
	assert.False(t, x.Placeholder)
	assert.False(t, el.Paused())
	assert.Equal(t, 1, el.Plays())

	h, _ := f.pool.Get(catalog.StateIdle)
	assert.Zero(t, h.Subscribers(), "subscription removed after firing")
}

func TestAttach_OwnershipExclusive(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateSpeaking: {"speaking.webm"}})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "speaking.webm")

	x := mediatest.NewContainer("x")
	y := mediatest.NewContainer("y")
	f.binder.Attach(x, catalog.StateSpeaking, media.Options{})
	f.binder.Attach(y, catalog.StateSpeaking, media.Options{})

	h, _ := f.pool.Get(catalog.StateSpeaking)
	el := element(t, f, catalog.StateSpeaking)

	assert.False(t, h.OwnedBy(x))
	assert.True(t, h.OwnedBy(y))
	assert.Nil(t, x.Mounted)
	assert.True(t, x.Placeholder)
	assert.Equal(t, el, y.Mounted)
	assert.False(t, el.Paused(), "y is playing")
	assert.Equal(t, 1, el.Pauses(), "paused once on handoff from x")
	assert.Equal(t, 1, f.stack.Elements(), "one element shared through handoff")

	_, bound := f.binder.Bound("x")
	assert.False(t, bound)
}

func TestAttach_SameOwnerOnlyAppliesOptions(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateIdle: {"idle.webm"}})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "idle.webm")

	x := mediatest.NewContainer("x")
	f.binder.Attach(x, catalog.StateIdle, media.Options{Scale: 1})
	el := element(t, f, catalog.StateIdle)
	el.Pause()

	f.binder.Attach(x, catalog.StateIdle, media.Options{Scale: 2, Fit: media.FitFill})
	assert.Equal(t, 1, x.Mounts, "no second mount")
	assert.Zero(t, x.Unmounts)
	assert.Equal(t, 2.0, x.Options.Scale)
	assert.Equal(t, media.FitFill, x.Options.Fit)
	assert.False(t, el.Paused(), "playback resumed")
}

func TestAttach_AssetMissing(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateIdle: {"idle.webm"}})
	x := mediatest.NewContainer("x")

	f.binder.Attach(x, catalog.StateFarewell, media.Options{})

	require.Len(t, f.errs, 1)
	assert.Equal(t, catalog.StateFarewell, f.errs[0].state)
	assert.ErrorIs(t, f.errs[0].err, pool.ErrAssetMissing)
	assert.True(t, x.Placeholder)
	assert.Nil(t, x.Mounted)
	assert.Zero(t, f.stack.Elements())
}

func TestAttach_ExhaustedReportsEveryAttempt(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateHappy: {"happy.webm", "happy.mp4"}})
	f.pool.WarmupAll()
	f.stack.Fail(base + "happy.webm")
	f.stack.Fail(base + "happy.mp4")
	loads := len(f.stack.Loads)

	x := mediatest.NewContainer("x")
	for i := 1; i <= 3; i++ {
		f.binder.Attach(x, catalog.StateHappy, media.Options{})
		require.Len(t, f.errs, i, "exactly one onError per attach")
		assert.ErrorIs(t, f.errs[i-1].err, pool.ErrChainExhausted)
	}
	assert.Len(t, f.stack.Loads, loads, "no candidate re-attempted")
	assert.True(t, x.Placeholder)
	assert.Nil(t, x.Mounted)
}

func TestAttach_ExhaustedWhileWaiting(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateHappy: {"happy.webm"}})
	x := mediatest.NewContainer("x")

	f.binder.Attach(x, catalog.StateHappy, media.Options{})
	assert.Empty(t, f.errs)

	f.stack.Fail(base + "happy.webm")
	require.Len(t, f.errs, 1)
	assert.Equal(t, catalog.StateHappy, f.errs[0].state)
	assert.ErrorIs(t, f.errs[0].err, pool.ErrChainExhausted)
	assert.True(t, x.Placeholder)
}

func TestAttach_RepeatedRenderKeepsOneSubscription(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateThinking: {"thinking.webm"}})
	x := mediatest.NewContainer("x")

	for i := 0; i < 5; i++ {
		f.binder.Attach(x, catalog.StateThinking, media.Options{})
	}
	h, _ := f.pool.Get(catalog.StateThinking)
	assert.Equal(t, 1, h.Subscribers())

	f.stack.Fail(base + "thinking.webm")
	assert.Len(t, f.errs, 1, "superseded subscriptions never fire")
}

func TestAttach_SwitchStateKeepsOldLoadRunning(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{
		catalog.StateIdle:      {"idle.webm"},
		catalog.StateSearching: {"searching.webm"},
	})
	x := mediatest.NewContainer("x")

	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	idle, _ := f.pool.Get(catalog.StateIdle)
	require.Equal(t, 1, idle.Subscribers())

	f.binder.Attach(x, catalog.StateSearching, media.Options{})
	assert.Zero(t, idle.Subscribers(), "old subscription torn down")
	assert.Contains(t, f.stack.Pending(), base+"idle.webm", "old load not cancelled")

	searching := element(t, f, catalog.StateSearching)
	assert.Equal(t, searching, x.Mounted)

	// Old state finishing must not touch x.
	f.stack.Succeed(base + "idle.webm")
	assert.True(t, idle.Ready())
	assert.True(t, idle.Element().Paused())
	assert.Equal(t, searching, x.Mounted)
	assert.True(t, x.Placeholder)

	f.stack.Succeed(base + "searching.webm")
	assert.False(t, x.Placeholder)
	assert.False(t, searching.Paused())

	st, ok := f.binder.Bound("x")
	require.True(t, ok)
	assert.Equal(t, catalog.StateSearching, st)
}

func TestAttach_SwitchBackRemounts(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{
		catalog.StateIdle:     {"idle.webm"},
		catalog.StateSpeaking: {"speaking.webm"},
	})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "idle.webm")
	f.stack.Succeed(base + "speaking.webm")

	x := mediatest.NewContainer("x")
	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	f.binder.Attach(x, catalog.StateSpeaking, media.Options{})

	idle := element(t, f, catalog.StateIdle)
	assert.True(t, idle.Paused())

	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	assert.Equal(t, idle, x.Mounted)
	assert.False(t, idle.Paused())
	assert.True(t, element(t, f, catalog.StateSpeaking).Paused())
}

func TestAttach_HandoffWhileLoading(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateGreeting: {"greeting.webm"}})
	x := mediatest.NewContainer("x")
	y := mediatest.NewContainer("y")

	f.binder.Attach(x, catalog.StateGreeting, media.Options{})
	f.binder.Attach(y, catalog.StateGreeting, media.Options{})

	h, _ := f.pool.Get(catalog.StateGreeting)
	assert.Equal(t, 1, h.Subscribers(), "x's subscription dropped with ownership")

	f.stack.Succeed(base + "greeting.webm")
	assert.True(t, x.Placeholder)
	assert.False(t, y.Placeholder)
	assert.False(t, h.Element().Paused())
	assert.True(t, h.OwnedBy(y))
}

func TestDetach_PausesAndKeepsHandlePooled(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateIdle: {"idle.webm"}})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "idle.webm")

	x := mediatest.NewContainer("x")
	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	el := element(t, f, catalog.StateIdle)
	require.False(t, el.Paused())

	f.binder.Detach(x)
	assert.True(t, el.Paused())
	_, bound := f.binder.Bound("x")
	assert.False(t, bound)

	h, ok := f.pool.Get(catalog.StateIdle)
	require.True(t, ok)
	assert.True(t, h.Ready())

	// Reused by a fresh container without reloading.
	loads := len(f.stack.Loads)
	y := mediatest.NewContainer("y")
	f.binder.Attach(y, catalog.StateIdle, media.Options{})
	assert.Len(t, f.stack.Loads, loads)
	assert.True(t, h.OwnedBy(y))
	assert.False(t, el.Paused())

	// Detaching an unknown container is a no-op.
	f.binder.Detach(mediatest.NewContainer("ghost"))
}

func TestDetach_ReattachSameContainerKeepsMount(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateHappy: {"happy.webm"}})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "happy.webm")

	x := mediatest.NewContainer("x")
	f.binder.Attach(x, catalog.StateHappy, media.Options{})
	el := element(t, f, catalog.StateHappy)
	before := transfers(t, catalog.StateHappy)

	f.binder.Detach(x)
	h, _ := f.pool.Get(catalog.StateHappy)
	require.True(t, h.OwnedBy(x), "detach keeps ownership")

	f.binder.Attach(x, catalog.StateHappy, media.Options{Scale: 1.5})
	assert.Equal(t, 1, x.Mounts)
	assert.Zero(t, x.Unmounts)
	assert.Equal(t, 1, el.Pauses(), "paused by detach only")
	assert.False(t, el.Paused())
	assert.False(t, x.Placeholder)
	assert.Equal(t, 1.5, x.Options.Scale)
	assert.Equal(t, before, transfers(t, catalog.StateHappy))
}

func TestDetach_ThenSwitchStateVacatesOldElement(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{
		catalog.StateIdle:     {"idle.webm"},
		catalog.StateSpeaking: {"speaking.webm"},
	})
	f.pool.WarmupAll()
	f.stack.Succeed(base + "idle.webm")
	f.stack.Succeed(base + "speaking.webm")

	x := mediatest.NewContainer("x")
	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	f.binder.Detach(x)
	f.binder.Attach(x, catalog.StateSpeaking, media.Options{})

	speaking := element(t, f, catalog.StateSpeaking)
	assert.Equal(t, speaking, x.Mounted)
	assert.Equal(t, 1, x.Unmounts, "idle element left the container")

	idle := element(t, f, catalog.StateIdle)
	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	assert.Equal(t, idle, x.Mounted)
	assert.False(t, idle.Paused())
	assert.True(t, speaking.Paused())
}

func TestDetach_CancelsPendingSubscription(t *testing.T) {
	f := newFixture(t, map[catalog.State][]string{catalog.StateIdle: {"idle.webm"}})
	x := mediatest.NewContainer("x")

	f.binder.Attach(x, catalog.StateIdle, media.Options{})
	f.binder.Detach(x)

	h, _ := f.pool.Get(catalog.StateIdle)
	assert.Zero(t, h.Subscribers())

	f.stack.Succeed(base + "idle.webm")
	assert.True(t, h.Ready())
	assert.True(t, h.Element().Paused(), "no stale callback played on the unmounted container")
	assert.True(t, x.Placeholder)
}
