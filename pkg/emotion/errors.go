package emotion

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a transition is not in the table.
	ErrInvalidTransition = errors.New("emotion: invalid transition")

	// ErrUnknownState is returned for names that are not an emotion state.
	ErrUnknownState = errors.New("emotion: unknown state")

	// ErrInvalidConfig is returned for malformed emotion tables.
	ErrInvalidConfig = errors.New("emotion: invalid config")

	// ErrInvalidAxes is returned when an axis is outside its range.
	ErrInvalidAxes = errors.New("emotion: invalid axes")

	// ErrInvalidTransitions is returned when a transition table breaks the
	// reachability rules.
	ErrInvalidTransitions = errors.New("emotion: invalid transition table")
)

// TransitionError reports a rejected state change.
type TransitionError struct {
	From State
	To   State
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("emotion: invalid transition %s -> %s", e.From, e.To)
}

// Unwrap returns ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
