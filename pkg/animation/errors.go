package animation

import "errors"

var (
	// ErrNonIncreasingTime is returned when a keyframe time is not strictly
	// greater than the previous keyframe's time.
	ErrNonIncreasingTime = errors.New("animation: keyframe time must be strictly increasing")

	// ErrNegativeTime is returned for keyframes before time zero.
	ErrNegativeTime = errors.New("animation: keyframe time must not be negative")

	// ErrTooFewKeyframes is returned when querying a sequence with fewer than two keyframes.
	ErrTooFewKeyframes = errors.New("animation: sequence needs at least two keyframes")

	// ErrTypeMismatch is returned when a property changes value kind between keyframes.
	ErrTypeMismatch = errors.New("animation: property value kind mismatch")

	// ErrNoProperties is returned for keyframes that carry no property values.
	ErrNoProperties = errors.New("animation: keyframe has no properties")

	// ErrAlreadyPlaying is returned when Run is called on a playing player.
	ErrAlreadyPlaying = errors.New("animation: already playing")
)
