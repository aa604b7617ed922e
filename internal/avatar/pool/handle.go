// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package pool

import (
	"slices"

	"github.com/ManuGH/avatarcache/internal/avatar/catalog"
	"github.com/ManuGH/avatarcache/internal/avatar/media"
	"github.com/ManuGH/avatarcache/internal/metrics"
)

// Phase is the resting state of a handle.
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseExhausted Phase = "exhausted"
)

func (p Phase) gauge() int {
	switch p {
	case PhaseReady:
		return metrics.PhaseReady
	case PhaseExhausted:
		return metrics.PhaseExhausted
	default:
		return metrics.PhaseLoading
	}
}

// Handle is the pooled per-state resource: the fallback cursor over the
// candidate list, the media element, and the container currently owning it.
//
// Handles live for the whole process. All methods must be called on the
// event loop goroutine.
type Handle struct {
	state      catalog.State
	candidates catalog.CandidateList
	cursor     int
	ready      bool
	exhausted  bool
	element    media.Element
	owner      media.Container

	subs    map[uint64]func(Phase)
	nextSub uint64
}

func newHandle(state catalog.State, candidates catalog.CandidateList, el media.Element) *Handle {
	return &Handle{
		state:      state,
		candidates: candidates,
		element:    el,
		subs:       make(map[uint64]func(Phase)),
	}
}

// State returns the presentation state this handle serves.
func (h *Handle) State() catalog.State { return h.state }

// Candidates returns a copy of the fallback chain.
func (h *Handle) Candidates() catalog.CandidateList { return slices.Clone(h.candidates) }

// Cursor is the index of the candidate being loaded or the one that became ready.
// It equals len(Candidates()) once the handle is exhausted.
func (h *Handle) Cursor() int { return h.cursor }

// Element returns the pooled media element.
func (h *Handle) Element() media.Element { return h.element }

// Owner returns the container currently hosting the element, if any.
func (h *Handle) Owner() media.Container { return h.owner }

// Phase reports Loading, Ready or Exhausted.
func (h *Handle) Phase() Phase {
	switch {
	case h.exhausted:
		return PhaseExhausted
	case h.ready:
		return PhaseReady
	default:
		return PhaseLoading
	}
}

// Ready reports whether the element buffered enough data to play.
func (h *Handle) Ready() bool { return h.ready }

// Exhausted reports whether every candidate failed.
func (h *Handle) Exhausted() bool { return h.exhausted }

// Candidate returns the candidate at the cursor, or "" when exhausted.
func (h *Handle) Candidate() string {
	if h.cursor >= len(h.candidates) {
		return ""
	}
	return h.candidates[h.cursor]
}

// OwnedBy reports whether c is the recorded owner. Containers compare by ID.
func (h *Handle) OwnedBy(c media.Container) bool {
	return c != nil && h.owner != nil && h.owner.ID() == c.ID()
}

// SetOwner records c as the only owner. It returns the previous owner, which
// loses ownership by this call.
func (h *Handle) SetOwner(c media.Container) media.Container {
	prev := h.owner
	h.owner = c
	return prev
}

// Subscribe registers fn for the next Ready or Exhausted transition. fn fires
// at most once and is removed before it runs. If the handle is already
// terminal for loading purposes, nothing is registered and the returned
// cancel is a no-op; callers check Phase first. Cancelling twice is safe.
func (h *Handle) Subscribe(fn func(Phase)) (cancel func()) {
	if fn == nil || h.Phase() != PhaseLoading {
		return func() {}
	}
	h.nextSub++
	id := h.nextSub
	h.subs[id] = fn
	return func() { delete(h.subs, id) }
}

// Subscribers returns the number of pending one-shot subscriptions.
func (h *Handle) Subscribers() int { return len(h.subs) }

// notify fires and clears all one-shot subscriptions.
func (h *Handle) notify(p Phase) {
	if len(h.subs) == 0 {
		return
	}
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	// Fire in subscription order.
	slices.Sort(ids)
	fns := make([]func(Phase), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
		delete(h.subs, id)
	}
	for _, fn := range fns {
		fn(p)
	}
}
