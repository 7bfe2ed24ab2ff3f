package noise

import (
	"math"
	"testing"
)

func TestSample_Deterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 500; i++ {
		x := float64(i) * 0.37
		y := float64(i) * 0.11
		if a.Sample(x, y) != b.Sample(x, y) {
			t.Fatalf("same seed diverged at (%v, %v)", x, y)
		}
	}
}

func TestSample_SeedMatters(t *testing.T) {
	a := New(1)
	b := New(2)
	diff := 0
	for i := 0; i < 200; i++ {
		x := float64(i)*0.31 + 0.5
		if a.Sample(x, 0.25) != b.Sample(x, 0.25) {
			diff++
		}
	}
	if diff == 0 {
		t.Error("different seeds produced identical fields")
	}
}

func TestSample_Bounded(t *testing.T) {
	f := New(7)
	for i := -500; i < 500; i++ {
		for j := -20; j < 20; j++ {
			v := f.Sample(float64(i)*0.173, float64(j)*0.291)
			if v < 0 || v > 1 {
				t.Fatalf("Sample out of range: %v", v)
			}
		}
	}
}

func TestSample_NonFinite(t *testing.T) {
	f := New(3)
	for _, in := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := f.Sample(in, 1); got != 0.5 {
			t.Errorf("Sample(%v) = %v, want 0.5", in, got)
		}
	}
}

func TestSample_Varies(t *testing.T) {
	f := New(9)
	lo, hi := 1.0, 0.0
	for i := 0; i < 400; i++ {
		v := f.Sample(float64(i)*0.21, float64(i)*0.07)
		lo, hi = min(lo, v), max(hi, v)
	}
	if hi-lo < 0.3 {
		t.Errorf("range [%v, %v] too narrow for a noise field", lo, hi)
	}
}

func TestSample_Continuous(t *testing.T) {
	f := New(5)
	for i := 0; i < 200; i++ {
		x, y := float64(i)*0.13, 0.4
		if d := math.Abs(f.Sample(x, y) - f.Sample(x+1e-4, y)); d > 0.01 {
			t.Fatalf("jump of %v at x=%v", d, x)
		}
	}
}

func TestFractal_Bounded(t *testing.T) {
	f := New(11)
	for i := 0; i < 1000; i++ {
		v := f.Fractal(float64(i)*0.05, float64(i)*0.013, 4)
		if v < 0 || v > 1 {
			t.Fatalf("Fractal out of range: %v", v)
		}
	}
	if f.Fractal(0.3, 0.7, 0) != f.Fractal(0.3, 0.7, 1) {
		t.Error("octaves < 1 should behave like 1")
	}
}

func BenchmarkSample(b *testing.B) {
	f := New(1)
	var sink float64
	for i := 0; i < b.N; i++ {
		sink += f.Sample(float64(i&15)*0.3, float64(i)*0.02)
	}
	_ = sink
}
