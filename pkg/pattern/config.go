package pattern

import "math"

// Limits enforced on every Config and pattern instance.
const (
	MaxPixels      = 1024
	MaxBlendFrames = 1000
)

// Config controls how a pattern animates. Values are validated on
// construction and on every mutation; nothing is silently clamped.
type Config struct {
	// Speed scales animation rate. Must be > 0.
	Speed float64 `json:"speed" yaml:"speed"`

	// Brightness scales output in [0, 1].
	Brightness float64 `json:"brightness" yaml:"brightness"`

	// Reverse runs the animation backwards.
	Reverse bool `json:"reverse" yaml:"reverse"`

	// BlendFrames is the crossfade length when this pattern replaces another.
	BlendFrames int `json:"blend_frames" yaml:"blend_frames"`
}

// DefaultConfig returns full brightness at normal speed with no crossfade.
func DefaultConfig() Config {
	return Config{
		Speed:       1.0,
		Brightness:  1.0,
		BlendFrames: 0,
	}
}

// NewConfig builds and validates a Config.
func NewConfig(speed, brightness float64, reverse bool, blendFrames int) (Config, error) {
	c := Config{Speed: speed, Brightness: brightness, Reverse: reverse, BlendFrames: blendFrames}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	if !(c.Speed > 0) || math.IsInf(c.Speed, 0) {
		return &ConfigError{Field: "speed", Value: c.Speed, Reason: "must be a finite value > 0"}
	}
	if !(c.Brightness >= 0 && c.Brightness <= 1) {
		return &ConfigError{Field: "brightness", Value: c.Brightness, Reason: "must be within [0, 1]"}
	}
	if c.BlendFrames < 0 || c.BlendFrames > MaxBlendFrames {
		return &ConfigError{Field: "blend_frames", Value: c.BlendFrames, Reason: "must be within [0, 1000]"}
	}
	return nil
}

// WithSpeed returns a copy with Speed replaced, or an error if invalid.
func (c Config) WithSpeed(speed float64) (Config, error) {
	c.Speed = speed
	return c, c.Validate()
}

// WithBrightness returns a copy with Brightness replaced, or an error if invalid.
func (c Config) WithBrightness(brightness float64) (Config, error) {
	c.Brightness = brightness
	return c, c.Validate()
}

// WithBlendFrames returns a copy with BlendFrames replaced, or an error if invalid.
func (c Config) WithBlendFrames(frames int) (Config, error) {
	c.BlendFrames = frames
	return c, c.Validate()
}

// ValidatePixels checks a pixel count against (0, MaxPixels].
func ValidatePixels(n int) error {
	if n <= 0 || n > MaxPixels {
		return &ConfigError{Field: "num_pixels", Value: n, Reason: "must be within (0, 1024]", Err: ErrInvalidPixelCount}
	}
	return nil
}
