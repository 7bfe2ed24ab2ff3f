package emotion

import (
	"fmt"
	"maps"
	"slices"
)

// Transitions is the directed adjacency relation of allowed state changes.
type Transitions map[State][]State

// DefaultTransitions returns the stock table. Every state reaches Idle and
// Alert; Sleepy cannot jump straight to Excited.
func DefaultTransitions() Transitions {
	return Transitions{
		Idle:     {Happy, Sad, Curious, Alert, Sleepy, Excited, Thinking, Playful, Shy},
		Happy:    {Idle, Alert, Excited, Curious, Sad, Playful},
		Sad:      {Idle, Alert, Happy, Sleepy, Shy},
		Curious:  {Idle, Alert, Happy, Thinking, Excited, Shy},
		Alert:    {Idle, Curious, Sad, Thinking},
		Sleepy:   {Idle, Alert, Curious},
		Excited:  {Idle, Alert, Happy, Curious, Playful},
		Thinking: {Idle, Alert, Curious, Happy},
		Playful:  {Idle, Alert, Happy, Excited, Curious, Shy},
		Shy:      {Idle, Alert, Happy, Curious, Sad, Playful},
	}
}

// Allowed reports whether from -> to is in the table.
func (t Transitions) Allowed(from, to State) bool {
	return slices.Contains(t[from], to)
}

// Clone returns a deep copy of t.
func (t Transitions) Clone() Transitions {
	out := make(Transitions, len(t))
	for s, row := range t {
		out[s] = slices.Clone(row)
	}
	return out
}

// ValidateTransitions checks the table's static properties: every state has
// a row, every row names only known states, no state lists itself, every
// state other than Idle reaches Idle, and every state other than Alert
// reaches Alert.
func ValidateTransitions(t Transitions) error {
	for _, s := range slices.Sorted(maps.Keys(t)) {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown source %d", ErrInvalidTransitions, int(s))
		}
	}
	for _, s := range States() {
		row, ok := t[s]
		if !ok {
			return fmt.Errorf("%w: no row for %s", ErrInvalidTransitions, s)
		}
		for _, to := range row {
			if !to.Valid() {
				return fmt.Errorf("%w: %s lists unknown state %d", ErrInvalidTransitions, s, int(to))
			}
			if to == s {
				return fmt.Errorf("%w: %s lists itself", ErrInvalidTransitions, s)
			}
		}
		if s != Idle && !slices.Contains(row, Idle) {
			return fmt.Errorf("%w: %s cannot reach %s", ErrInvalidTransitions, s, Idle)
		}
		if s != Alert && !slices.Contains(row, Alert) {
			return fmt.Errorf("%w: %s cannot reach %s", ErrInvalidTransitions, s, Alert)
		}
	}
	return nil
}
