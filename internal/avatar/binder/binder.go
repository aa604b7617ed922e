// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package binder attaches pooled avatar media to display containers. It moves
// the single media element of a state between containers, keeping at most one
// owner per element, and gates visibility on the element being ready.
package binder

import (
	"errors"

	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	"github.com/ManuGH/avatarcache/internal/avatar/media"
	"github.com/ManuGH/avatarcache/internal/avatar/pool"
	xglog "github.com/ManuGH/avatarcache/internal/log"
	"github.com/ManuGH/avatarcache/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrorFunc is told about attach attempts that cannot show media. err is
// pool.ErrAssetMissing or pool.ErrChainExhausted.
type ErrorFunc func(state catalog.State, err error)

// binding is the per-container record of what it currently shows and its
// pending readiness subscription.
type binding struct {
	state  catalog.State
	handle *pool.Handle
	cancel func()
}

// Binder is not safe for concurrent use; call it from the event loop.
type Binder struct {
	pool    *pool.Pool
	onError ErrorFunc
	panels  map[string]*binding
	// mounted is the handle whose element each container currently hosts.
	// It outlives Detach, which leaves the element in place.
	mounted map[string]*pool.Handle
	logger  zerolog.Logger
}

// New creates a binder over p. onError may be nil.
func New(p *pool.Pool, onError ErrorFunc) *Binder {
	if onError == nil {
		onError = func(catalog.State, error) {}
	}
	return &Binder{
		pool:    p,
		onError: onError,
		panels:  make(map[string]*binding),
		mounted: make(map[string]*pool.Handle),
		logger:  xglog.WithComponent("avatar.binder"),
	}
}

// Attach shows state in c with the given placement.
func (b *Binder) Attach(c media.Container, state catalog.State, opts media.Options) {
	opts = opts.Normalize()

	// A container tracks one state at a time. Drop the pending subscription
	// of a previous attach; the old handle keeps loading in the pool.
	b.release(c.ID())

	h, ok := b.pool.Ensure(state)
	if m := b.mounted[c.ID()]; m != nil && m != h {
		b.vacate(c, m)
	}
	if !ok {
		c.ShowPlaceholder()
		b.fail(c, state, pool.ErrAssetMissing)
		return
	}
	if h.Exhausted() {
		c.ShowPlaceholder()
		b.fail(c, state, pool.ErrChainExhausted)
		return
	}

	el := h.Element()
	if h.OwnedBy(c) && b.mounted[c.ID()] == h {
		c.Apply(opts)
	} else {
		b.transfer(h, c, opts)
	}
	bd := &binding{state: state, handle: h, cancel: func() {}}
	b.panels[c.ID()] = bd

	if h.Ready() {
		c.Reveal()
		el.Play()
		return
	}

	c.ShowPlaceholder()
	bd.cancel = h.Subscribe(func(phase pool.Phase) {
		b.settle(c, bd, phase)
	})
}

// transfer moves the element from its current owner into c.
func (b *Binder) transfer(h *pool.Handle, c media.Container, opts media.Options) {
	el := h.Element()
	prev := h.Owner()
	if prev != nil {
		el.Pause()
		prev.Unmount(el)
		if b.mounted[prev.ID()] == h {
			delete(b.mounted, prev.ID())
		}
		if pb, ok := b.panels[prev.ID()]; ok && pb.handle == h {
			pb.cancel()
			delete(b.panels, prev.ID())
			prev.ShowPlaceholder()
		}
	}
	c.Mount(el, opts)
	h.SetOwner(c)
	b.mounted[c.ID()] = h
	metrics.IncOwnershipTransfer(h.State().String())

	ev := b.logger.Debug().
		Str(xglog.FieldEvent, "binder.transfer").
		Str(xglog.FieldState, h.State().String()).
		Str(xglog.FieldContainer, c.ID()).
		Str(xglog.FieldElementID, el.ID())
	if prev != nil {
		ev = ev.Str(xglog.FieldPrevOwner, prev.ID())
	}
	ev.Msg("media element handed to container")
}

// vacate takes the element of a state c no longer shows out of c. Ownership
// stays recorded until another attach claims the element.
func (b *Binder) vacate(c media.Container, h *pool.Handle) {
	if !h.OwnedBy(c) {
		return
	}
	el := h.Element()
	el.Pause()
	c.Unmount(el)
	if b.mounted[c.ID()] == h {
		delete(b.mounted, c.ID())
	}
}

// settle runs once when a pending handle reaches a resting phase.
func (b *Binder) settle(c media.Container, bd *binding, phase pool.Phase) {
	if b.panels[c.ID()] != bd {
		return
	}
	bd.cancel = func() {}

	switch phase {
	case pool.PhaseReady:
		if !bd.handle.OwnedBy(c) {
			return
		}
		c.Reveal()
		bd.handle.Element().Play()
	case pool.PhaseExhausted:
		c.ShowPlaceholder()
		b.fail(c, bd.state, pool.ErrChainExhausted)
	}
}

// Detach is called when c is discarded. Playback pauses; the element and its
// handle stay pooled for the next container asking for the same state.
func (b *Binder) Detach(c media.Container) {
	bd, ok := b.panels[c.ID()]
	if !ok {
		return
	}
	bd.cancel()
	delete(b.panels, c.ID())

	if bd.handle.OwnedBy(c) {
		bd.handle.Element().Pause()
	}
	b.logger.Debug().
		Str(xglog.FieldEvent, "binder.detach").
		Str(xglog.FieldState, bd.state.String()).
		Str(xglog.FieldContainer, c.ID()).
		Msg("container detached")
}

// Bound returns the state container id currently tracks.
func (b *Binder) Bound(id string) (catalog.State, bool) {
	bd, ok := b.panels[id]
	if !ok {
		return 0, false
	}
	return bd.state, true
}

func (b *Binder) release(id string) {
	if bd, ok := b.panels[id]; ok {
		bd.cancel()
		delete(b.panels, id)
	}
}

func (b *Binder) fail(c media.Container, state catalog.State, err error) {
	reason := "chain_exhausted"
	if errors.Is(err, pool.ErrAssetMissing) {
		reason = "asset_missing"
	}
	metrics.IncAttachError(state.String(), reason)
	b.logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "binder.attach_failed").
		Str(xglog.FieldState, state.String()).
		Str(xglog.FieldContainer, c.ID()).
		Msg("showing placeholder")
	b.onError(state, err)
}
