package pattern

import (
	"math"
	"math/rand/v2"

	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
)

// OverlayConfig tunes the micro-expression layer. Non-positive counts and
// periods take the DefaultOverlayConfig value; zero depths and chances
// disable that effect.
type OverlayConfig struct {
	// BlinkInterval is the mean number of frames between blinks at
	// blink_speed 1.
	BlinkInterval int `yaml:"blink_interval"`

	// BlinkFrames is the length of one blink.
	BlinkFrames int `yaml:"blink_frames"`

	// BreathDepth is how far the breathing modulation dims, in [0, 1].
	BreathDepth  float64 `yaml:"breath_depth"`
	BreathPeriod float64 `yaml:"breath_period"`

	// SaccadeChance is the per-frame saccade probability at focus 0.25.
	SaccadeChance float64 `yaml:"saccade_chance"`
	SaccadeFrames int     `yaml:"saccade_frames"`
	SaccadeMax    int     `yaml:"saccade_max"`

	// PupilWeight dims the ring edges relative to the center.
	PupilWeight float64 `yaml:"pupil_weight"`

	// Tremor is the brightness jitter amplitude at full arousal.
	Tremor float64 `yaml:"tremor"`

	Seed uint64 `yaml:"seed"`
}

// DefaultOverlayConfig returns the stock micro-expression tuning for 50 Hz.
func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		BlinkInterval: 200,
		BlinkFrames:   8,
		BreathDepth:   0.08,
		BreathPeriod:  200,
		SaccadeChance: 0.01,
		SaccadeFrames: 6,
		SaccadeMax:    1,
		PupilWeight:   0.2,
		Tremor:        0.04,
		Seed:          1,
	}
}

func (c OverlayConfig) withDefaults() OverlayConfig {
	d := DefaultOverlayConfig()
	if c.BlinkInterval <= 0 {
		c.BlinkInterval = d.BlinkInterval
	}
	if c.BlinkFrames <= 0 {
		c.BlinkFrames = d.BlinkFrames
	}
	if !(c.BreathPeriod > 0) {
		c.BreathPeriod = d.BreathPeriod
	}
	if c.SaccadeFrames <= 0 {
		c.SaccadeFrames = d.SaccadeFrames
	}
	if c.SaccadeMax <= 0 {
		c.SaccadeMax = d.SaccadeMax
	}
	c.BreathDepth = clamp01(c.BreathDepth)
	c.PupilWeight = clamp01(c.PupilWeight)
	c.Tremor = clamp01(c.Tremor)
	return c
}

// Overlay applies blinks, breathing, saccades, pupil weighting and tremor on
// top of a rendered frame. Outside a blink or saccade it only scales pixels.
type Overlay struct {
	cfg  OverlayConfig
	rng  *rand.Rand
	axes emotion.Axes

	frame        uint64
	blinkLeft    int
	untilBlink   int
	saccadeLeft  int
	saccadeShift int
	tremor       float64

	scratch []color.RGB
}

// NewOverlay creates an overlay at neutral axes.
func NewOverlay(cfg OverlayConfig) *Overlay {
	cfg = cfg.withDefaults()
	o := &Overlay{
		cfg:  cfg,
		rng:  rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xda942042e4dd58b5)),
		axes: emotion.NeutralAxes,
	}
	o.untilBlink = o.nextBlink()
	return o
}

// Config returns the effective configuration.
func (o *Overlay) Config() OverlayConfig { return o.cfg }

// SetAxes retunes the overlay. Out-of-range axes are clamped.
func (o *Overlay) SetAxes(a emotion.Axes) {
	o.axes = a.Clamp()
}

// Axes returns the current tuning axes.
func (o *Overlay) Axes() emotion.Axes { return o.axes }

// Blink starts a blink now unless one is in progress.
func (o *Overlay) Blink() {
	if o.blinkLeft == 0 {
		o.blinkLeft = o.cfg.BlinkFrames
	}
}

// Blinking reports whether a blink is in progress.
func (o *Overlay) Blinking() bool { return o.blinkLeft > 0 }

// SaccadeShift returns the current positional offset in pixels.
func (o *Overlay) SaccadeShift() int { return o.saccadeShift }

// lid returns eyelid closure in [0, 1]; 1 is fully closed.
func (o *Overlay) lid() float64 {
	if o.blinkLeft <= 0 {
		return 0
	}
	k := float64(o.cfg.BlinkFrames - o.blinkLeft)
	half := float64(o.cfg.BlinkFrames) / 2
	if half <= 0 {
		return 1
	}
	return clamp01(1 - math.Abs(k-half)/half)
}

// Apply modifies px in place.
func (o *Overlay) Apply(px []color.RGB) {
	n := len(px)
	if n == 0 {
		return
	}
	count, size := segments(n)

	if o.saccadeShift != 0 {
		if cap(o.scratch) < n {
			o.scratch = make([]color.RGB, n)
		}
		o.scratch = o.scratch[:n]
		copy(o.scratch, px)
		for s := 0; s < count; s++ {
			off := s * size
			for j := 0; j < size; j++ {
				px[off+j] = o.scratch[off+wrapIndex(j-o.saccadeShift, size)]
			}
		}
	}

	breath := 1 - o.cfg.BreathDepth*(0.5+0.5*math.Sin(2*math.Pi*float64(o.frame)/o.cfg.BreathPeriod))
	mult := (1 - o.lid()) * breath * (1 + o.tremor)

	center := float64(size-1) / 2
	for s := 0; s < count; s++ {
		off := s * size
		for j := 0; j < size; j++ {
			w := 1.0
			if center > 0 {
				w = 1 - o.cfg.PupilWeight*math.Abs(float64(j)-center)/center
			}
			px[off+j] = px[off+j].Scale(mult * w)
		}
	}
}

// Advance steps blink, saccade and tremor state.
func (o *Overlay) Advance() {
	o.frame++

	if o.blinkLeft > 0 {
		o.blinkLeft--
	} else {
		o.untilBlink--
		if o.untilBlink <= 0 {
			o.blinkLeft = o.cfg.BlinkFrames
			o.untilBlink = o.nextBlink()
		}
	}

	if o.saccadeLeft > 0 {
		o.saccadeLeft--
		if o.saccadeLeft == 0 {
			o.saccadeShift = 0
		}
	} else if o.rng.Float64() < o.saccadeChance() {
		shift := 1 + o.rng.IntN(o.cfg.SaccadeMax)
		if o.rng.IntN(2) == 0 {
			shift = -shift
		}
		o.saccadeShift = shift
		o.saccadeLeft = o.cfg.SaccadeFrames
	}

	o.tremor = o.cfg.Tremor * math.Max(0, o.axes.Arousal) * (o.rng.Float64()*2 - 1)
}

// saccadeChance falls as focus rises: a focused gaze holds still.
func (o *Overlay) saccadeChance() float64 {
	return o.cfg.SaccadeChance * (1.25 - o.axes.Focus)
}

// nextBlink draws the next blink interval, scaled by blink speed and
// jittered by ±50%.
func (o *Overlay) nextBlink() int {
	speed := o.axes.BlinkSpeed
	if !(speed > 0) {
		speed = 1
	}
	mean := float64(o.cfg.BlinkInterval) / speed
	n := int(mean * (0.5 + o.rng.Float64()))
	return max(n, o.cfg.BlinkFrames+1)
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
