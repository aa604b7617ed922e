package pool

import "github.com/ManuGH/avatarcache/internal/avatar/catalog"

// EventKind names a handle lifecycle event.
type EventKind string

const (
	EventCreated     EventKind = "created"
	EventLoading     EventKind = "loading"
	EventLoadFailure EventKind = "load_failure"
	EventReady       EventKind = "ready"
	EventExhausted   EventKind = "exhausted"
)

// Event is delivered to the pool observer for every handle transition.
type Event struct {
	Kind      EventKind
	State     catalog.State
	Cursor    int
	Candidate string
	Err       error
}
