// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import "strings"

// State is a named avatar presentation state. The set is fixed at build time.
type State uint8

const (
	StateIdle State = iota
	StateListening
	StateThinking
	StateSearching
	StateSpeaking
	StateHappy
	StateConfused
	StateGreeting
	StateFarewell

	// Count is the number of known states; valid states are [0, Count).
	Count = int(StateFarewell) + 1
)

var stateNames = [Count]string{
	StateIdle:      "idle",
	StateListening: "listening",
	StateThinking:  "thinking",
	StateSearching: "searching",
	StateSpeaking:  "speaking",
	StateHappy:     "happy",
	StateConfused:  "confused",
	StateGreeting:  "greeting",
	StateFarewell:  "farewell",
}

// String returns the canonical lower-case name, or "unknown" for out-of-range values.
func (s State) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return stateNames[s]
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	return int(s) < Count
}

// ParseState maps a UI supplied name to a State. Matching ignores case and
// surrounding whitespace.
func ParseState(name string) (State, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}

// All returns every known state in declaration order.
func All() []State {
	out := make([]State, Count)
	for i := range out {
		out[i] = State(i)
	}
	return out
}
