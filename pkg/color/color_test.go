package color

import (
	"math"
	"testing"
)

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-10, 0},
		{0, 0},
		{127.4, 127},
		{127.6, 128},
		{255, 255},
		{300, 255},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ClampByte(tt.in); got != tt.want {
			t.Errorf("ClampByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLerp(t *testing.T) {
	mid := Lerp(Black, White, 0.5)
	if mid.R != 128 || mid.G != 128 || mid.B != 128 {
		t.Errorf("Lerp midpoint = %v, want #808080", mid)
	}
	if got := Lerp(Black, White, 2); got != White {
		t.Errorf("Lerp overshoot should clamp, got %v", got)
	}
}

func TestScale(t *testing.T) {
	c := RGB{200, 100, 50}
	if got := c.Scale(0.5); got != (RGB{100, 50, 25}) {
		t.Errorf("Scale(0.5) = %v", got)
	}
	if got := c.Scale(0); !got.IsBlack() {
		t.Errorf("Scale(0) = %v, want black", got)
	}
}

func TestBlendHSV_Endpoints(t *testing.T) {
	a := RGB{255, 0, 0}
	b := RGB{0, 0, 255}
	if got := BlendHSV(a, b, 0); got != a {
		t.Errorf("BlendHSV(t=0) = %v, want %v", got, a)
	}
	if got := BlendHSV(a, b, 1); got != b {
		t.Errorf("BlendHSV(t=1) = %v, want %v", got, b)
	}
}

func TestBlendHSV_KeepsSaturation(t *testing.T) {
	// Red to green through HSV passes yellow-ish, never grey.
	mid := BlendHSV(RGB{255, 0, 0}, RGB{0, 255, 0}, 0.5)
	_, s, v := mid.HSV()
	if s < 0.9 || v < 0.9 {
		t.Errorf("HSV midpoint lost saturation: %v (s=%.2f v=%.2f)", mid, s, v)
	}
}

func TestWeightedHSV(t *testing.T) {
	red := RGB{255, 0, 0}
	blue := RGB{0, 0, 255}

	if got := WeightedHSV([]RGB{red, blue}, []float64{1, 0}); got != red {
		t.Errorf("zero weight should be ignored, got %v", got)
	}
	if got := WeightedHSV([]RGB{red, blue}, []float64{0, 0}); got != Black {
		t.Errorf("all-zero weights should give black, got %v", got)
	}
	if got := WeightedHSV([]RGB{red, blue}, []float64{1, 1}); got != BlendHSV(red, blue, 0.5) {
		t.Errorf("equal weights should be the midpoint, got %v", got)
	}
}

func TestFromHSV_RoundTrip(t *testing.T) {
	c := FromHSV(120, 1, 1)
	if c != (RGB{0, 255, 0}) {
		t.Errorf("FromHSV(120,1,1) = %v, want #00ff00", c)
	}
	if FromHSV(-240, 1, 1) != c {
		t.Error("negative hue should wrap")
	}
}
