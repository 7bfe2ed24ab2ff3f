package pattern

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
)

// MaxParticles bounds the sparkle layer of a Blend.
const MaxParticles = 12

// Layer is one emotion contributing to a Blend.
type Layer struct {
	Axes emotion.Axes `json:"axes" yaml:"axes"`

	// Color is the layer's hue. Black means use the base color.
	Color color.RGB `json:"color" yaml:"color"`

	Weight float64 `json:"weight" yaml:"weight"`
}

type particle struct {
	pos  int
	life int
	max  int
}

// Blend mixes two or more emotional layers. Color is the HSV-weighted mix of
// the layer colors; breathing rate follows the mixed arousal, the resting
// level follows valence, and positive arousal/valence spawn sparkles.
type Blend struct {
	base

	layers    []Layer
	weights   []float64
	mood      emotion.Axes
	rng       *rand.Rand
	particles []particle

	colors []color.RGB // scratch
}

// DefaultLayers is a warm, lively two-layer mix over the base color.
func DefaultLayers() []Layer {
	return []Layer{
		{Axes: emotion.Axes{Arousal: 0.5, Valence: 0.8, Focus: 0.5, BlinkSpeed: 1.2}, Weight: 0.6},
		{Axes: emotion.Axes{Arousal: 0.4, Valence: 0.3, Focus: 0.9, BlinkSpeed: 1.3}, Weight: 0.4},
	}
}

// NewBlend creates a blend pattern. With no layers, DefaultLayers is used.
func NewBlend(numPixels int, cfg Config, seed uint64, layers ...Layer) (*Blend, error) {
	b, err := newBase(KindBlend.String(), KindBlend, numPixels, cfg)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		layers = DefaultLayers()
	}
	p := &Blend{
		base:      b,
		rng:       rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
		particles: make([]particle, 0, MaxParticles),
	}
	if err := p.SetLayers(layers); err != nil {
		return nil, err
	}
	return p, nil
}

// SetLayers replaces the layers. At least two are required, weights must be
// finite and non-negative with a positive sum, and every axis in range.
func (p *Blend) SetLayers(layers []Layer) error {
	if len(layers) < 2 {
		return &ConfigError{Field: "layers", Value: len(layers), Reason: "need at least two layers"}
	}
	total := 0.0
	for i, l := range layers {
		if !(l.Weight >= 0) || math.IsInf(l.Weight, 0) {
			return &ConfigError{Field: "layers.weight", Value: l.Weight, Reason: "must be finite and >= 0"}
		}
		if err := l.Axes.Validate(); err != nil {
			return &ConfigError{Field: "layers.axes", Value: i, Reason: err.Error()}
		}
		total += l.Weight
	}
	if !(total > 0) {
		return &ConfigError{Field: "layers.weight", Value: total, Reason: "weights must not all be zero"}
	}

	p.layers = slices.Clone(layers)
	p.weights = make([]float64, len(layers))
	axes := make([]emotion.Axes, len(layers))
	for i, l := range layers {
		p.weights[i] = l.Weight / total
		axes[i] = l.Axes
	}
	p.mood = emotion.Weighted(axes, p.weights)
	p.colors = make([]color.RGB, len(layers))
	return nil
}

// SetWeight sets a two-layer blend's balance: w goes to the second layer and
// 1-w to the first.
func (p *Blend) SetWeight(w float64) error {
	if !(w >= 0 && w <= 1) {
		return &ConfigError{Field: "weight", Value: w, Reason: "must be within [0, 1]"}
	}
	if len(p.layers) != 2 {
		return &ConfigError{Field: "weight", Value: w, Reason: "only valid for two layers"}
	}
	layers := slices.Clone(p.layers)
	layers[0].Weight = 1 - w
	layers[1].Weight = w
	return p.SetLayers(layers)
}

// Layers returns a copy of the layers.
func (p *Blend) Layers() []Layer { return slices.Clone(p.layers) }

// Mood returns the weighted axes of the blend.
func (p *Blend) Mood() emotion.Axes { return p.mood }

// Particles returns the number of live sparkles.
func (p *Blend) Particles() int { return len(p.particles) }

// Color returns the mixed layer color for a base color.
func (p *Blend) Color(c color.RGB) color.RGB {
	for i, l := range p.layers {
		if l.Color.IsBlack() {
			p.colors[i] = c
		} else {
			p.colors[i] = l.Color
		}
	}
	return color.WeightedHSV(p.colors, p.weights)
}

// period is the breathing cycle in frames: 200 when calm down to 40 when
// fully aroused.
func (p *Blend) period() float64 {
	t := (p.mood.Arousal + 1) / 2
	return 200 + (40-200)*t
}

// Render implements Pattern.
func (p *Blend) Render(c color.RGB) []color.RGB {
	px := p.begin()
	mixed := p.Color(c)

	floor := 0.35 + 0.25*math.Max(0, p.mood.Valence)
	level := breathe(p.phase(p.period()), floor)
	fill(px, mixed.Scale(level*p.cfg.Brightness))

	sparkle := color.Lerp(mixed, color.White, 0.6)
	for _, s := range p.particles {
		if s.pos >= len(px) || s.max <= 0 {
			continue
		}
		f := float64(s.life) / float64(s.max)
		px[s.pos] = px[s.pos].Add(sparkle.Scale(f * p.cfg.Brightness))
	}
	return px
}

// spawnChance is the per-frame probability of a new sparkle.
func (p *Blend) spawnChance() float64 {
	return 0.125*math.Max(0, p.mood.Arousal) + 0.05*math.Max(0, p.mood.Valence)
}

// Advance implements Pattern. It ages sparkles and may spawn one.
func (p *Blend) Advance() {
	p.frame++

	live := p.particles[:0]
	for _, s := range p.particles {
		s.life--
		if s.life > 0 {
			live = append(live, s)
		}
	}
	p.particles = live

	if len(p.particles) < MaxParticles && p.rng.Float64() < p.spawnChance() {
		life := 10 + p.rng.IntN(15)
		p.particles = append(p.particles, particle{
			pos:  p.rng.IntN(len(p.pixels)),
			life: life,
			max:  life,
		})
	}
}
