// Package emotion maps named emotional states and a continuous 4-axis mood
// space onto LED configuration.
//
// A Coordinator owns the current State, validates every change against a
// Transitions table and pushes the matching Config to an Output. Axes bridge
// sensor-derived mood to the discrete states by nearest-preset matching.
package emotion

import (
	"fmt"
	"strings"
)

// State is a named emotional state.
type State int

const (
	Idle State = iota
	Happy
	Sad
	Curious
	Alert
	Sleepy
	Excited
	Thinking

	// Extended social states.
	Playful
	Shy

	numStates
)

var stateNames = [numStates]string{
	Idle:     "idle",
	Happy:    "happy",
	Sad:      "sad",
	Curious:  "curious",
	Alert:    "alert",
	Sleepy:   "sleepy",
	Excited:  "excited",
	Thinking: "thinking",
	Playful:  "playful",
	Shy:      "shy",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s >= 0 && s < numStates
}

// Primary reports whether s is one of the eight primary states.
func (s State) Primary() bool {
	return s >= Idle && s <= Thinking
}

// States returns every state in declaration order.
func States() []State {
	out := make([]State, numStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// ParseState converts a name (any case) to a State.
func ParseState(name string) (State, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range stateNames {
		if s == n {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownState, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
