// Package pattern renders LED frames.
//
// Every renderer implements Pattern: Render fills a fixed-size pixel buffer
// from a base color and the pattern's internal frame counter, Advance moves
// the counter (and any stochastic state) forward. Render never mutates
// animation state, so calling it twice without Advance yields the same frame.
//
// Renderers are a closed set of kinds (periodic, procedural noise, emotion
// blend) constructed by name through a Registry. The Overlay adds
// micro-expressions on top of any pattern's output.
package pattern

import (
	"math"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// Pattern is a stateful per-frame pixel generator.
type Pattern interface {
	// Name is the registry name the pattern was built under.
	Name() string

	// Kind identifies the renderer.
	Kind() Kind

	// NumPixels is the fixed buffer length.
	NumPixels() int

	// Config returns the active configuration.
	Config() Config

	// SetConfig validates and applies a new configuration.
	SetConfig(cfg Config) error

	// Render draws the current frame. The returned slice is owned by the
	// pattern and is overwritten by the next Render.
	Render(base color.RGB) []color.RGB

	// Advance moves to the next frame.
	Advance()

	// Frame returns the number of Advance calls so far.
	Frame() uint64
}

// Kind is the closed set of built-in renderers.
type Kind int

const (
	KindCustom Kind = iota
	KindSolid
	KindBreathing
	KindPulse
	KindSpin
	KindFire
	KindCloud
	KindDream
	KindBlend
)

var kindNames = map[Kind]string{
	KindCustom:    "custom",
	KindSolid:     "solid",
	KindBreathing: "breathing",
	KindPulse:     "pulse",
	KindSpin:      "spin",
	KindFire:      "fire",
	KindCloud:     "cloud",
	KindDream:     "dream",
	KindBlend:     "blend",
}

// String returns the kind's registry name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Family groups kinds by algorithm.
type Family int

const (
	FamilyOther Family = iota
	FamilyPeriodic
	FamilyNoise
	FamilyBlend
)

// Family returns the renderer family of k.
func (k Kind) Family() Family {
	switch k {
	case KindSolid, KindBreathing, KindPulse, KindSpin:
		return FamilyPeriodic
	case KindFire, KindCloud, KindDream:
		return FamilyNoise
	case KindBlend:
		return FamilyBlend
	default:
		return FamilyOther
	}
}

// base holds what every renderer shares: the buffer, the frame counter and
// the config. Renderers embed it.
type base struct {
	name   string
	kind   Kind
	cfg    Config
	pixels []color.RGB
	frame  uint64
}

func newBase(name string, kind Kind, numPixels int, cfg Config) (base, error) {
	if err := ValidatePixels(numPixels); err != nil {
		return base{}, err
	}
	if err := cfg.Validate(); err != nil {
		return base{}, err
	}
	return base{
		name:   name,
		kind:   kind,
		cfg:    cfg,
		pixels: make([]color.RGB, numPixels),
	}, nil
}

func (b *base) Name() string   { return b.name }
func (b *base) Kind() Kind     { return b.kind }
func (b *base) NumPixels() int { return len(b.pixels) }
func (b *base) Config() Config { return b.cfg }
func (b *base) Frame() uint64  { return b.frame }
func (b *base) Advance()       { b.frame++ }

func (b *base) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b.cfg = cfg
	return nil
}

// begin clears the buffer and returns it for writing.
func (b *base) begin() []color.RGB {
	clear(b.pixels)
	return b.pixels
}

// step returns the signed animation position in frames: the frame count
// scaled by speed and negated when reversed.
func (b *base) step() float64 {
	s := float64(b.frame) * b.cfg.Speed
	if b.cfg.Reverse {
		return -s
	}
	return s
}

// phase maps the current position onto [0, 1) for a cycle of period frames.
// A degenerate period yields 0.
func (b *base) phase(period float64) float64 {
	return wrapPhase(b.step(), period)
}

// wrapPhase returns (pos mod period) / period in [0, 1). Non-finite input and
// periods that are zero, negative or not finite return 0.
func wrapPhase(pos, period float64) float64 {
	if !(period > 1e-9) || math.IsInf(period, 0) || math.IsNaN(pos) || math.IsInf(pos, 0) {
		return 0
	}
	r := math.Mod(pos, period)
	if r < 0 {
		r += period
	}
	p := r / period
	if p >= 1 {
		return 0
	}
	return p
}

// wrapIndex returns a non-negative i mod n. n <= 0 returns 0.
func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// segments splits n pixels into eyes: two equal rings when n is even and at
// least 2, otherwise one.
func segments(n int) (count, size int) {
	if n >= 2 && n%2 == 0 {
		return 2, n / 2
	}
	return 1, n
}
