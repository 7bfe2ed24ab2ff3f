package eyes

import "github.com/teslashibe/reachy-eyes/pkg/color"

// Sink is the LED-facing output. Implementations adapt it to hardware,
// previews or remote controllers. The orchestrator never holds its lock
// while calling a Sink, and every frame passed to Update is a fresh copy the
// sink may keep.
type Sink interface {
	// SetPattern announces the active pattern.
	SetPattern(name string, speed float64) error

	// SetColor announces the base color.
	SetColor(c color.RGB) error

	// SetBrightness announces the global brightness.
	SetBrightness(level uint8) error

	// Update pushes one rendered frame.
	Update(frame []color.RGB) error

	// Clear turns every LED off.
	Clear() error
}

// BrightnessByte converts a [0, 1] level to the sink's 0-255 scale.
func BrightnessByte(level float64) uint8 {
	return color.ClampByte(level * 255)
}
