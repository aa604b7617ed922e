// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mediatest provides deterministic in-memory media stack doubles.
// Loads stay pending until the test resolves them, so the test goroutine acts
// as the event loop.
package mediatest

import (
	"errors"
	"fmt"

	"github.com/ManuGH/avatarcache/internal/avatar/media"
)

// ErrDecode is the default failure used by Fail.
var ErrDecode = errors.New("mediatest: decode error")

type pendingLoad struct {
	element *Element
	locator string
	done    media.LoadDone
}

// Stack is a fake media.Stack.
type Stack struct {
	elements []*Element
	pending  []pendingLoad
	// Loads lists every locator passed to Element.Load, in call order.
	Loads []string
}

// NewStack returns an empty fake stack.
func NewStack() *Stack {
	return &Stack{}
}

// NewElement implements media.Stack.
func (s *Stack) NewElement(name string) media.Element {
	el := &Element{id: fmt.Sprintf("%s-%d", name, len(s.elements)), stack: s, paused: true}
	s.elements = append(s.elements, el)
	return el
}

// Elements returns the number of elements created so far.
func (s *Stack) Elements() int {
	return len(s.elements)
}

// Pending returns the locators with an outstanding load.
func (s *Stack) Pending() []string {
	out := make([]string, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.locator)
	}
	return out
}

// Succeed completes the pending load for locator successfully.
func (s *Stack) Succeed(locator string) bool {
	return s.resolve(locator, nil)
}

// Fail completes the pending load for locator with ErrDecode.
func (s *Stack) Fail(locator string) bool {
	return s.resolve(locator, ErrDecode)
}

// FailWith completes the pending load for locator with err.
func (s *Stack) FailWith(locator string, err error) bool {
	return s.resolve(locator, err)
}

func (s *Stack) resolve(locator string, err error) bool {
	for i, p := range s.pending {
		if p.locator != locator {
			continue
		}
		s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
		if err == nil {
			p.element.source = locator
		}
		p.done(err)
		return true
	}
	return false
}

// Element is a fake media.Element.
type Element struct {
	id     string
	stack  *Stack
	paused bool
	source string
	plays  int
	pauses int
}

func (e *Element) ID() string { return e.id }

// Load implements media.Element; the load stays pending until resolved.
func (e *Element) Load(locator string, done media.LoadDone) {
	e.stack.Loads = append(e.stack.Loads, locator)
	e.stack.pending = append(e.stack.pending, pendingLoad{element: e, locator: locator, done: done})
}

func (e *Element) Play() {
	e.paused = false
	e.plays++
}

func (e *Element) Pause() {
	e.paused = true
	e.pauses++
}

func (e *Element) Paused() bool { return e.paused }

// Source is the locator of the last successful load.
func (e *Element) Source() string { return e.source }

// Plays counts Play calls.
func (e *Element) Plays() int { return e.plays }

// Pauses counts Pause calls.
func (e *Element) Pauses() int { return e.pauses }

// Container is a fake media.Container that records what it hosts.
type Container struct {
	id          string
	Mounted     media.Element
	Options     media.Options
	Placeholder bool
	Mounts      int
	Unmounts    int
}

// NewContainer returns a container showing its placeholder.
func NewContainer(id string) *Container {
	return &Container{id: id, Placeholder: true}
}

func (c *Container) ID() string { return c.id }

func (c *Container) Mount(el media.Element, opts media.Options) {
	c.Mounted = el
	c.Options = opts
	c.Mounts++
}

func (c *Container) Unmount(el media.Element) {
	if c.Mounted == nil || c.Mounted.ID() != el.ID() {
		return
	}
	c.Mounted = nil
	c.Placeholder = true
	c.Unmounts++
}

func (c *Container) Apply(opts media.Options) { c.Options = opts }

func (c *Container) ShowPlaceholder() { c.Placeholder = true }

func (c *Container) Reveal() { c.Placeholder = false }
