// Package media defines the boundary between the avatar pool and the platform
// media stack: playable elements, the display containers that host them, and
// the placement options applied on attach.
//
// Every method in this package is called on the event loop goroutine, and
// implementations must deliver load completion back on that goroutine.
package media

// LoadDone reports the outcome of one Element.Load call. A nil error means the
// element buffered enough data to start playback smoothly.
type LoadDone func(err error)

// Element is one reusable playable resource (the pooled "media reference").
type Element interface {
	// ID identifies the element in logs.
	ID() string
	// Load points the element at locator and starts buffering asynchronously.
	// done is invoked exactly once, on the event loop, never synchronously
	// from within Load.
	Load(locator string, done LoadDone)
	Play()
	Pause()
	Paused() bool
}

// Stack creates elements. There is one element per presentation state for the
// life of the process.
type Stack interface {
	NewElement(name string) Element
}

// Container is a display surface that can host at most one element.
type Container interface {
	ID() string
	// Mount makes el a child of the container with the given placement.
	Mount(el Element, opts Options)
	// Unmount removes el from the container. Unmounting an element that is
	// not mounted is a no-op.
	Unmount(el Element)
	// Apply updates the placement of the mounted element.
	Apply(opts Options)
	// ShowPlaceholder hides the element behind the static placeholder.
	ShowPlaceholder()
	// Reveal shows the element instead of the placeholder.
	Reveal()
}
