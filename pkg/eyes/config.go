package eyes

import (
	"log/slog"
	"time"

	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
	"github.com/teslashibe/reachy-eyes/pkg/pattern"
)

// Config holds orchestrator configuration.
type Config struct {
	// NumPixels is the total LED count across both eyes.
	NumPixels int

	// FrameRate is the render loop rate in Hz.
	FrameRate float64

	// MaxSlipFrames is how many periods the loop may fall behind before the
	// schedule is reset.
	MaxSlipFrames int

	// JoinTimeout bounds how long Stop waits for the loop.
	JoinTimeout time.Duration

	// Seed drives noise patterns and the overlay.
	Seed uint64

	// Pattern is the initial pattern name.
	Pattern       string
	PatternConfig pattern.Config
	Color         color.RGB

	Overlay        pattern.OverlayConfig
	DisableOverlay bool

	// Registry resolves pattern names. Nil uses the built-ins.
	Registry *pattern.Registry

	// FadeEasing shapes color and brightness glides.
	FadeEasing easing.Kind

	Logger *slog.Logger
}

// DefaultConfig returns two 8-pixel rings at 50 Hz, breathing blue.
func DefaultConfig() Config {
	return Config{
		NumPixels:     16,
		FrameRate:     50,
		MaxSlipFrames: 4,
		JoinTimeout:   time.Second,
		Seed:          1,
		Pattern:       "breathing",
		PatternConfig: pattern.DefaultConfig(),
		Color:         color.RGB{R: 0, G: 120, B: 255},
		Overlay:       pattern.DefaultOverlayConfig(),
		FadeEasing:    easing.EaseInOut,
	}
}
