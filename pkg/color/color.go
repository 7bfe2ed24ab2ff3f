// Package color provides the 8-bit RGB type shared by the pattern engine,
// the orchestrator and the sinks, plus the interpolation helpers they need.
package color

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is one LED's color.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Common colors.
var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// String formats the color as #rrggbb.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// IsBlack reports whether every channel is zero.
func (c RGB) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// ClampByte rounds v and clamps it to [0, 255]. NaN maps to 0.
func ClampByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Scale multiplies every channel by f.
func (c RGB) Scale(f float64) RGB {
	return RGB{
		R: ClampByte(float64(c.R) * f),
		G: ClampByte(float64(c.G) * f),
		B: ClampByte(float64(c.B) * f),
	}
}

// Add sums two colors channel-wise, saturating at 255.
func (c RGB) Add(o RGB) RGB {
	return RGB{
		R: ClampByte(float64(c.R) + float64(o.R)),
		G: ClampByte(float64(c.G) + float64(o.G)),
		B: ClampByte(float64(c.B) + float64(o.B)),
	}
}

// Lerp interpolates linearly in RGB space. t is not clamped; results are.
func Lerp(a, b RGB, t float64) RGB {
	return RGB{
		R: ClampByte(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: ClampByte(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: ClampByte(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

func toColorful(c RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) RGB {
	c = c.Clamped()
	return RGB{R: ClampByte(c.R * 255), G: ClampByte(c.G * 255), B: ClampByte(c.B * 255)}
}

// BlendHSV interpolates through HSV along the shortest hue arc.
func BlendHSV(a, b RGB, t float64) RGB {
	if t <= 0 || a == b {
		return a
	}
	if t >= 1 {
		return b
	}
	return fromColorful(toColorful(a).BlendHsv(toColorful(b), t))
}

// WeightedHSV combines colors by successive HSV blending with normalized
// weights. Non-positive weights are ignored; all-zero weights return Black.
func WeightedHSV(colors []RGB, weights []float64) RGB {
	n := min(len(colors), len(weights))
	acc := Black
	total := 0.0
	for i := 0; i < n; i++ {
		w := weights[i]
		if !(w > 0) {
			continue
		}
		if total == 0 {
			acc = colors[i]
			total = w
			continue
		}
		total += w
		acc = BlendHSV(acc, colors[i], w/total)
	}
	return acc
}

// FromHSV builds a color from hue in degrees and saturation/value in [0, 1].
func FromHSV(h, s, v float64) RGB {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return fromColorful(colorful.Hsv(h, clamp01(s), clamp01(v)))
}

// HSV returns hue in degrees and saturation/value in [0, 1].
func (c RGB) HSV() (h, s, v float64) {
	return toColorful(c).Hsv()
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
