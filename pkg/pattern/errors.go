package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the root of every construction/update rejection.
	ErrInvalidConfig = errors.New("pattern: invalid config")

	// ErrInvalidPixelCount is returned for pixel counts outside (0, MaxPixels].
	ErrInvalidPixelCount = errors.New("pattern: invalid pixel count")

	// ErrUnknownPattern is returned when a registry has no constructor for a name.
	ErrUnknownPattern = errors.New("pattern: unknown pattern")

	// ErrDuplicatePattern is returned when registering a name twice.
	ErrDuplicatePattern = errors.New("pattern: already registered")
)

// ConfigError describes which field was rejected and why.
type ConfigError struct {
	Field  string
	Value  any
	Reason string

	// Err is an optional more specific sentinel (e.g. ErrInvalidPixelCount).
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("pattern: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match both ErrInvalidConfig and the specific sentinel.
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}
