package eyes

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a running orchestrator.
	ErrAlreadyRunning = errors.New("eyes: already running")

	// ErrNotRunning is returned by operations that need the render loop.
	ErrNotRunning = errors.New("eyes: not running")

	// ErrStopTimeout is logged when the render loop outlives JoinTimeout.
	ErrStopTimeout = errors.New("eyes: render loop did not stop in time")

	// ErrNoBlend is returned when blend layers are set on a non-blend pattern.
	ErrNoBlend = errors.New("eyes: active pattern is not a blend")
)
