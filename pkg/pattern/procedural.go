package pattern

import (
	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/noise"
)

// NoiseScale positions a pixel and frame in noise space.
type NoiseScale struct {
	Spatial  float64
	Temporal float64
	Octaves  int
}

// noisy is the shared part of the procedural renderers.
type noisy struct {
	base
	field *noise.Field
	scale NoiseScale
}

func newNoisy(kind Kind, numPixels int, cfg Config, seed uint64, scale NoiseScale) (noisy, error) {
	b, err := newBase(kind.String(), kind, numPixels, cfg)
	if err != nil {
		return noisy{}, err
	}
	return noisy{base: b, field: noise.New(seed), scale: scale}, nil
}

// sample returns the noise value for pixel i at the current frame.
func (n *noisy) sample(i int, offset float64) float64 {
	x := float64(i)*n.scale.Spatial + offset
	y := n.step() * n.scale.Temporal
	if n.scale.Octaves > 1 {
		return n.field.Fractal(x, y, n.scale.Octaves)
	}
	return n.field.Sample(x, y)
}

// Seed returns the noise seed.
func (n *noisy) Seed() uint64 { return n.field.Seed() }

// Fire flickers from a dim ember of the base color up to near white.
type Fire struct {
	noisy
}

var fireHot = color.RGB{R: 255, G: 240, B: 200}

// NewFire creates a fire pattern.
func NewFire(numPixels int, cfg Config, seed uint64) (*Fire, error) {
	n, err := newNoisy(KindFire, numPixels, cfg, seed, NoiseScale{Spatial: 0.35, Temporal: 0.08, Octaves: 2})
	if err != nil {
		return nil, err
	}
	return &Fire{noisy: n}, nil
}

// Render implements Pattern.
func (p *Fire) Render(c color.RGB) []color.RGB {
	px := p.begin()
	for i := range px {
		heat := p.sample(i, 0)
		heat *= heat
		var out color.RGB
		if heat < 0.5 {
			out = color.Lerp(color.Black, c, heat*2)
		} else {
			out = color.Lerp(c, fireHot, (heat-0.5)*2)
		}
		px[i] = out.Scale(p.cfg.Brightness)
	}
	return px
}

// Cloud drifts soft patches of light across the eye.
type Cloud struct {
	noisy

	Floor float64
}

// NewCloud creates a cloud pattern.
func NewCloud(numPixels int, cfg Config, seed uint64) (*Cloud, error) {
	n, err := newNoisy(KindCloud, numPixels, cfg, seed, NoiseScale{Spatial: 0.15, Temporal: 0.02, Octaves: 3})
	if err != nil {
		return nil, err
	}
	return &Cloud{noisy: n, Floor: 0.3}, nil
}

// Render implements Pattern.
func (p *Cloud) Render(c color.RGB) []color.RGB {
	px := p.begin()
	for i := range px {
		v := p.Floor + (1-p.Floor)*p.sample(i, 0)
		px[i] = c.Scale(v * p.cfg.Brightness)
	}
	return px
}

// Dream wanders the hue around the base color.
type Dream struct {
	noisy

	// HueRange is the maximum hue excursion in degrees either way.
	HueRange float64
}

// NewDream creates a dream pattern.
func NewDream(numPixels int, cfg Config, seed uint64) (*Dream, error) {
	n, err := newNoisy(KindDream, numPixels, cfg, seed, NoiseScale{Spatial: 0.2, Temporal: 0.015, Octaves: 1})
	if err != nil {
		return nil, err
	}
	return &Dream{noisy: n, HueRange: 40}, nil
}

// Render implements Pattern.
func (p *Dream) Render(c color.RGB) []color.RGB {
	px := p.begin()
	h, s, v := c.HSV()
	for i := range px {
		shift := (p.sample(i, 0) - 0.5) * 2 * p.HueRange
		level := 0.4 + 0.6*p.sample(i, 100)
		px[i] = color.FromHSV(h+shift, s, v*level*p.cfg.Brightness)
	}
	return px
}
