// Package animation provides keyframe timelines for properties that glide
// between values over wall-clock time (brightness breathing, color fades,
// gaze positions).
//
// A Sequence is authored once and queried many times; queries are pure
// functions of elapsed time. A Player wraps a sequence with playback state and
// frame pacing.
package animation

import (
	"fmt"
	"time"

	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
)

// Well-known property names.
const (
	PropBrightness = "brightness"
	PropColor      = "color"
	PropPosition   = "position"
)

// ValueKind discriminates Value.
type ValueKind int

const (
	// KindScalar is an unbounded float.
	KindScalar ValueKind = iota

	// KindUnit is a float clamped to [0, 1] (brightness, weights).
	KindUnit

	// KindColor is an 8-bit RGB triple; channels clamp to [0, 255].
	KindColor

	// KindVec2 is a 2D position.
	KindVec2
)

// String returns a human-readable kind name.
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindUnit:
		return "unit"
	case KindColor:
		return "color"
	case KindVec2:
		return "vec2"
	default:
		return "unknown"
	}
}

// Value is one property value at a keyframe.
type Value struct {
	Kind   ValueKind
	Scalar float64
	Color  color.RGB
	Vec    [2]float64
}

// Scalar returns an unbounded scalar value.
func Scalar(v float64) Value { return Value{Kind: KindScalar, Scalar: v} }

// Unit returns a scalar clamped to [0, 1].
func Unit(v float64) Value { return Value{Kind: KindUnit, Scalar: clamp(v, 0, 1)} }

// Color returns a color value.
func Color(c color.RGB) Value { return Value{Kind: KindColor, Color: c} }

// Vec2 returns a 2D position value.
func Vec2(x, y float64) Value { return Value{Kind: KindVec2, Vec: [2]float64{x, y}} }

// String formats the value for logs.
func (v Value) String() string {
	switch v.Kind {
	case KindColor:
		return v.Color.String()
	case KindVec2:
		return fmt.Sprintf("(%.3f, %.3f)", v.Vec[0], v.Vec[1])
	default:
		return fmt.Sprintf("%.3f", v.Scalar)
	}
}

// Keyframe is a timestamped snapshot of property values.
// The keyframe's Easing shapes the segment that arrives at it.
type Keyframe struct {
	Time       time.Duration
	Properties map[string]Value
	Easing     easing.Kind
}

// Values is the result of a sequence query.
type Values map[string]Value

// Unit returns a unit/scalar property, or def when absent.
func (v Values) Unit(name string, def float64) float64 {
	if val, ok := v[name]; ok && (val.Kind == KindUnit || val.Kind == KindScalar) {
		return val.Scalar
	}
	return def
}

// Color returns a color property, or def when absent.
func (v Values) Color(name string, def color.RGB) color.RGB {
	if val, ok := v[name]; ok && val.Kind == KindColor {
		return val.Color
	}
	return def
}

// PlaybackState represents the current state of playback.
type PlaybackState int

const (
	// StateStopped means nothing is playing.
	StateStopped PlaybackState = iota

	// StatePlaying means a sequence is actively playing.
	StatePlaying

	// StatePaused means playback is temporarily paused.
	StatePaused
)

// String returns a human-readable state name.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// PlayerCallback is called for each interpolated frame during Run.
// Return false to stop playback early.
type PlayerCallback func(values Values, elapsed time.Duration) bool

// PlayerOptions configures playback.
type PlayerOptions struct {
	// FrameRate is the playback rate (default: 50 Hz).
	FrameRate float64

	// Speed multiplier (1.0 = normal, 2.0 = 2x speed).
	Speed float64

	// MaxSlipFrames is how many frames the timer may fall behind before it
	// resets to now instead of catching up.
	MaxSlipFrames int
}

// DefaultPlayerOptions returns sensible defaults for playback.
func DefaultPlayerOptions() PlayerOptions {
	return PlayerOptions{
		FrameRate:     50.0,
		Speed:         1.0,
		MaxSlipFrames: 4,
	}
}
