package easing

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestEase_Endpoints(t *testing.T) {
	for _, k := range Kinds() {
		if got := Ease(k, 0); got != 0 {
			t.Errorf("%s: Ease(0) = %v, want 0", k, got)
		}
		if got := Ease(k, 1); got != 1 {
			t.Errorf("%s: Ease(1) = %v, want 1", k, got)
		}
	}
}

func TestEase_LinearIsIdentity(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		x := float64(i) / 1000
		if got := Ease(Linear, x); got != x {
			t.Fatalf("Ease(Linear, %v) = %v", x, got)
		}
	}
}

func TestEase_Monotonic(t *testing.T) {
	for _, k := range Kinds() {
		prev := -1.0
		for i := 0; i <= 2000; i++ {
			v := Ease(k, float64(i)/2000)
			if v < prev {
				t.Fatalf("%s not monotonic at step %d: %v < %v", k, i, v, prev)
			}
			if v < 0 || v > 1 {
				t.Fatalf("%s out of range at step %d: %v", k, i, v)
			}
			prev = v
		}
	}
}

func TestEase_ClampsInput(t *testing.T) {
	inputs := []float64{-5, math.Inf(-1), math.NaN()}
	for _, k := range Kinds() {
		for _, in := range inputs {
			if got := Ease(k, in); got != 0 {
				t.Errorf("%s: Ease(%v) = %v, want 0", k, in, got)
			}
		}
		if got := Ease(k, math.Inf(1)); got != 1 {
			t.Errorf("%s: Ease(+Inf) = %v, want 1", k, got)
		}
		if got := Ease(k, 7); got != 1 {
			t.Errorf("%s: Ease(7) = %v, want 1", k, got)
		}
	}
}

func TestEase_MatchesClosedForm(t *testing.T) {
	for _, k := range Kinds() {
		f := curve(k)
		for i := 0; i <= 100; i++ {
			x := float64(i) / 100
			if d := math.Abs(Ease(k, x) - f(x)); d > 1e-3 {
				t.Errorf("%s: Ease(%v) differs from closed form by %v", k, x, d)
			}
		}
	}
}

func TestEaseInOut_Symmetric(t *testing.T) {
	for i := 0; i <= 100; i++ {
		x := float64(i) / 100
		a := Ease(EaseInOut, x)
		b := 1 - Ease(EaseInOut, 1-x)
		if math.Abs(a-b) > 1e-6 {
			t.Errorf("EaseInOut not symmetric at %v: %v vs %v", x, a, b)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if got, err := ParseKind("Ease-In-Out"); err != nil || got != EaseInOut {
		t.Errorf("ParseKind(Ease-In-Out) = %v, %v", got, err)
	}
	if _, err := ParseKind("bounce"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLookup_ConcurrentFirstUse(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]float64, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Ease(EaseOutCubic, 0.5)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Fatalf("goroutine %d saw %v, goroutine 0 saw %v", i, r, results[0])
		}
	}
}

func TestEase_LookupCost(t *testing.T) {
	Warm()
	const n = 100000
	start := time.Now()
	var sink float64
	for i := 0; i < n; i++ {
		sink += Ease(EaseInOut, float64(i%1000)/1000)
	}
	avg := time.Since(start) / n
	if avg > 10*time.Microsecond {
		t.Errorf("average lookup %v exceeds 10µs", avg)
	}
	_ = sink
}

func BenchmarkEase(b *testing.B) {
	Warm()
	var sink float64
	for i := 0; i < b.N; i++ {
		sink += Ease(EaseInOut, float64(i&1023)/1023)
	}
	_ = sink
}
