package pattern

import (
	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
)

// Cycle lengths in frames at speed 1 (50 Hz reference rate).
const (
	BreathingPeriod    = 150.0
	PulsePeriod        = 60.0
	SpinFramesPerPixel = 4.0
)

// Solid fills every pixel with the base color.
type Solid struct {
	base
}

// NewSolid creates a solid-color pattern.
func NewSolid(numPixels int, cfg Config) (*Solid, error) {
	b, err := newBase(KindSolid.String(), KindSolid, numPixels, cfg)
	if err != nil {
		return nil, err
	}
	return &Solid{base: b}, nil
}

// Render implements Pattern.
func (p *Solid) Render(c color.RGB) []color.RGB {
	px := p.begin()
	fill(px, c.Scale(p.cfg.Brightness))
	return px
}

// Breathing fades the whole eye slowly in and out.
type Breathing struct {
	base

	// Floor is the dimmest level of the cycle.
	Floor float64
}

// NewBreathing creates a breathing pattern.
func NewBreathing(numPixels int, cfg Config) (*Breathing, error) {
	b, err := newBase(KindBreathing.String(), KindBreathing, numPixels, cfg)
	if err != nil {
		return nil, err
	}
	return &Breathing{base: b, Floor: 0.1}, nil
}

// Level returns the current breathing intensity in [Floor, 1].
func (p *Breathing) Level() float64 {
	return breathe(p.phase(BreathingPeriod), p.Floor)
}

// Render implements Pattern.
func (p *Breathing) Render(c color.RGB) []color.RGB {
	px := p.begin()
	fill(px, c.Scale(p.Level()*p.cfg.Brightness))
	return px
}

// breathe maps a cycle phase to a symmetric eased rise and fall.
func breathe(phase, floor float64) float64 {
	tri := 2 * phase
	if phase >= 0.5 {
		tri = 2 - 2*phase
	}
	floor = easing.Clamp01(floor)
	return floor + (1-floor)*easing.Ease(easing.EaseInOutSine, tri)
}

// Pulse is a heartbeat: a fast attack followed by a slower decay.
type Pulse struct {
	base

	// Attack is the fraction of the cycle spent rising.
	Attack float64
	Floor  float64
}

// NewPulse creates a pulse pattern.
func NewPulse(numPixels int, cfg Config) (*Pulse, error) {
	b, err := newBase(KindPulse.String(), KindPulse, numPixels, cfg)
	if err != nil {
		return nil, err
	}
	return &Pulse{base: b, Attack: 0.15, Floor: 0.05}, nil
}

// Level returns the current pulse intensity.
func (p *Pulse) Level() float64 {
	ph := p.phase(PulsePeriod)
	attack := p.Attack
	if !(attack > 0) || attack >= 1 {
		attack = 0.15
	}
	var v float64
	if ph < attack {
		v = easing.Ease(easing.EaseOut, ph/attack)
	} else {
		v = 1 - easing.Ease(easing.EaseIn, (ph-attack)/(1-attack))
	}
	floor := easing.Clamp01(p.Floor)
	return floor + (1-floor)*v
}

// Render implements Pattern.
func (p *Pulse) Render(c color.RGB) []color.RGB {
	px := p.begin()
	fill(px, c.Scale(p.Level()*p.cfg.Brightness))
	return px
}

// Spin runs a comet with a fading tail around each eye ring. The second eye
// spins mirrored.
type Spin struct {
	base

	// Tail is the tail length as a fraction of the ring.
	Tail float64
}

// NewSpin creates a spin pattern.
func NewSpin(numPixels int, cfg Config) (*Spin, error) {
	b, err := newBase(KindSpin.String(), KindSpin, numPixels, cfg)
	if err != nil {
		return nil, err
	}
	return &Spin{base: b, Tail: 0.35}, nil
}

// Render implements Pattern.
func (p *Spin) Render(c color.RGB) []color.RGB {
	px := p.begin()
	count, size := segments(len(px))

	head := p.phase(float64(size)*SpinFramesPerPixel) * float64(size)
	tail := p.Tail * float64(size)
	if tail < 1 {
		tail = 1
	}

	for s := 0; s < count; s++ {
		off := s * size
		for j := 0; j < size; j++ {
			idx := j
			if s%2 == 1 {
				idx = size - 1 - j
			}
			d := head - float64(j)
			if d < 0 {
				d += float64(size)
			}
			level := 1 - d/tail
			if level < 0 {
				level = 0
			}
			px[off+idx] = c.Scale(level * level * p.cfg.Brightness)
		}
	}
	return px
}

func fill(px []color.RGB, c color.RGB) {
	for i := range px {
		px[i] = c
	}
}
