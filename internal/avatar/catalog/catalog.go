// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog maps presentation states to their ordered candidate assets.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrUnknownState classifies catalog definitions naming a state that does not exist.
var ErrUnknownState = errors.New("unknown presentation state")

// CandidateList is the ordered fallback chain of asset identifiers for one state.
// Index 0 has the highest priority.
type CandidateList []string

// Catalog is an immutable state -> CandidateList table.
type Catalog struct {
	entries [Count]CandidateList
}

// defaultTable is the built-in asset layout. WebM first, MP4 as the
// compatibility fallback; the auxiliary states fall back to the idle loop.
var defaultTable = map[State][]string{
	StateIdle:      {"idle.webm", "idle.mp4"},
	StateListening: {"listening.webm", "listening.mp4", "idle.webm"},
	StateThinking:  {"thinking.webm", "thinking.mp4"},
	StateSearching: {"searching.webm", "searching.mp4", "thinking.webm"},
	StateSpeaking:  {"speaking.webm", "speaking.mp4"},
	StateHappy:     {"happy.webm", "happy.mp4", "idle.webm"},
	StateConfused:  {"confused.webm", "confused.mp4", "idle.webm"},
	StateGreeting:  {"greeting.webm", "greeting.mp4", "happy.webm"},
	StateFarewell:  {"farewell.webm", "farewell.mp4", "greeting.webm"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultTable)
	if err != nil {
		// defaultTable only uses declared states.
		panic(err)
	}
	return c
}

// New builds a catalog from a state table. Candidate lists are copied,
// blank identifiers dropped and duplicates removed keeping the first occurrence.
// States absent from the table resolve to an empty list.
func New(table map[State][]string) (*Catalog, error) {
	c := &Catalog{}
	for state, candidates := range table {
		if !state.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownState, state)
		}
		c.entries[state] = dedupe(candidates)
	}
	return c, nil
}

// FromNames builds a catalog from a name keyed table (e.g. a decoded YAML file).
func FromNames(table map[string][]string) (*Catalog, error) {
	byState := make(map[State][]string, len(table))
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state, ok := ParseState(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownState, name)
		}
		byState[state] = append(byState[state], table[name]...)
	}
	return New(byState)
}

func dedupe(in []string) CandidateList {
	out := make(CandidateList, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, id := range in {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Resolve returns a copy of the candidate list for state. Unknown states and
// states without assets yield an empty list.
func (c *Catalog) Resolve(state State) CandidateList {
	if c == nil || !state.Valid() {
		return nil
	}
	return slices.Clone(c.entries[state])
}

// Has reports whether state has at least one candidate.
func (c *Catalog) Has(state State) bool {
	return c != nil && state.Valid() && len(c.entries[state]) > 0
}

// Locator builds the resource locator for a candidate by plain concatenation
// with the configured base path.
func Locator(basePath, candidate string) string {
	return basePath + candidate
}
