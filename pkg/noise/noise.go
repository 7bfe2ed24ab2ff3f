// Package noise wraps seeded OpenSimplex noise for procedural patterns.
//
// Output is a pure function of (seed, x, y) and lies in [0, 1].
package noise

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Field is an immutable noise field. Safe for concurrent use.
type Field struct {
	seed uint64
	n    opensimplex.Noise
}

// New builds a field from a seed.
func New(seed uint64) *Field {
	return &Field{seed: seed, n: opensimplex.NewNormalized(int64(seed))}
}

// Seed returns the seed the field was built from.
func (f *Field) Seed() uint64 { return f.seed }

// Sample returns noise at (x, y) in [0, 1]. Non-finite inputs return 0.5.
func (f *Field) Sample(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0.5
	}
	v := f.n.Eval2(x, y)
	switch {
	case math.IsNaN(v):
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Fractal sums octaves of Sample, halving amplitude and doubling frequency
// each octave, normalized back to [0, 1]. octaves < 1 is treated as 1.
func (f *Field) Fractal(x, y float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	sum, amp, norm, freq := 0.0, 1.0, 0.0, 1.0
	for range octaves {
		sum += amp * f.Sample(x*freq, y*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}
