package emotion

import (
	"fmt"
	"math"
)

// Axis ranges.
const (
	MinArousal    = -1.0
	MaxArousal    = 1.0
	MinValence    = -1.0
	MaxValence    = 1.0
	MinFocus      = 0.0
	MaxFocus      = 1.0
	MinBlinkSpeed = 0.25
	MaxBlinkSpeed = 2.0
)

// Axes is a point in the continuous emotion space.
type Axes struct {
	Arousal    float64 `json:"arousal" yaml:"arousal"`
	Valence    float64 `json:"valence" yaml:"valence"`
	Focus      float64 `json:"focus" yaml:"focus"`
	BlinkSpeed float64 `json:"blink_speed" yaml:"blink_speed"`
}

// NeutralAxes is the resting point: calm, neutral, half focused, normal blink.
var NeutralAxes = Axes{Arousal: 0, Valence: 0, Focus: 0.5, BlinkSpeed: 1.0}

// Validate reports the first axis outside its range.
func (a Axes) Validate() error {
	check := func(name string, v, lo, hi float64) error {
		if !(v >= lo && v <= hi) {
			return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidAxes, name, v, lo, hi)
		}
		return nil
	}
	if err := check("arousal", a.Arousal, MinArousal, MaxArousal); err != nil {
		return err
	}
	if err := check("valence", a.Valence, MinValence, MaxValence); err != nil {
		return err
	}
	if err := check("focus", a.Focus, MinFocus, MaxFocus); err != nil {
		return err
	}
	return check("blink_speed", a.BlinkSpeed, MinBlinkSpeed, MaxBlinkSpeed)
}

// Clamp pulls every axis into range. NaN maps to the lower bound.
func (a Axes) Clamp() Axes {
	return Axes{
		Arousal:    clampRange(a.Arousal, MinArousal, MaxArousal),
		Valence:    clampRange(a.Valence, MinValence, MaxValence),
		Focus:      clampRange(a.Focus, MinFocus, MaxFocus),
		BlinkSpeed: clampRange(a.BlinkSpeed, MinBlinkSpeed, MaxBlinkSpeed),
	}
}

// Normalization selects how axes are scaled before distance matching.
type Normalization int

const (
	// NormalizeNone uses raw axis values, so blink_speed's wider range
	// counts on equal footing with the other axes.
	NormalizeNone Normalization = iota

	// NormalizeRange divides each axis by its span first.
	NormalizeRange
)

// String returns the configuration name.
func (n Normalization) String() string {
	switch n {
	case NormalizeRange:
		return "range"
	default:
		return "none"
	}
}

// ParseNormalization accepts "none" or "range"; empty means none.
func ParseNormalization(s string) (Normalization, error) {
	switch s {
	case "", "none":
		return NormalizeNone, nil
	case "range":
		return NormalizeRange, nil
	}
	return NormalizeNone, fmt.Errorf("emotion: unknown axis normalization %q", s)
}

// Distance is the Euclidean distance between a and b.
func (a Axes) Distance(b Axes, n Normalization) float64 {
	da := a.Arousal - b.Arousal
	dv := a.Valence - b.Valence
	df := a.Focus - b.Focus
	db := a.BlinkSpeed - b.BlinkSpeed
	if n == NormalizeRange {
		da /= MaxArousal - MinArousal
		dv /= MaxValence - MinValence
		df /= MaxFocus - MinFocus
		db /= MaxBlinkSpeed - MinBlinkSpeed
	}
	return math.Sqrt(da*da + dv*dv + df*df + db*db)
}

// Lerp interpolates every axis from a to b by t.
func (a Axes) Lerp(b Axes, t float64) Axes {
	return Axes{
		Arousal:    a.Arousal + (b.Arousal-a.Arousal)*t,
		Valence:    a.Valence + (b.Valence-a.Valence)*t,
		Focus:      a.Focus + (b.Focus-a.Focus)*t,
		BlinkSpeed: a.BlinkSpeed + (b.BlinkSpeed-a.BlinkSpeed)*t,
	}
}

// Weighted averages axes by weight. Non-positive weights are ignored; if no
// weight is positive the result is NeutralAxes.
func Weighted(axes []Axes, weights []float64) Axes {
	var out Axes
	total := 0.0
	for i := 0; i < min(len(axes), len(weights)); i++ {
		w := weights[i]
		if !(w > 0) {
			continue
		}
		total += w
		out.Arousal += axes[i].Arousal * w
		out.Valence += axes[i].Valence * w
		out.Focus += axes[i].Focus * w
		out.BlinkSpeed += axes[i].BlinkSpeed * w
	}
	if total == 0 {
		return NeutralAxes
	}
	out.Arousal /= total
	out.Valence /= total
	out.Focus /= total
	out.BlinkSpeed /= total
	return out
}

func clampRange(v, lo, hi float64) float64 {
	if !(v > lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
