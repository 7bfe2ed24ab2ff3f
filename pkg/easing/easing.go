// Package easing maps normalized time t ∈ [0, 1] to eased progress.
//
// Curves are sampled once into fixed-size lookup tables on first use and
// evaluated with linear interpolation between neighbouring entries, so a call
// costs a couple of multiplies regardless of the curve.
package easing

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// TableSize is the number of samples per easing curve.
const TableSize = 256

// Kind identifies an easing curve.
type Kind int

const (
	Linear Kind = iota
	EaseIn
	EaseOut
	EaseInOut
	EaseInCubic
	EaseOutCubic
	EaseInOutSine

	numKinds
)

var kindNames = [numKinds]string{
	Linear:        "linear",
	EaseIn:        "ease_in",
	EaseOut:       "ease_out",
	EaseInOut:     "ease_in_out",
	EaseInCubic:   "ease_in_cubic",
	EaseOutCubic:  "ease_out_cubic",
	EaseInOutSine: "ease_in_out_sine",
}

// String returns the snake_case name of the curve.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("easing(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k names a defined curve.
func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

// Kinds returns every defined curve.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a curve by name. Hyphens and case are ignored.
func ParseKind(name string) (Kind, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for k, s := range kindNames {
		if s == n {
			return Kind(k), nil
		}
	}
	return Linear, fmt.Errorf("easing: unknown kind %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("easing: invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// curve returns the closed-form function for a kind.
func curve(k Kind) func(float64) float64 {
	switch k {
	case EaseIn:
		return func(t float64) float64 { return t * t }
	case EaseOut:
		return func(t float64) float64 { return t * (2 - t) }
	case EaseInOut:
		return func(t float64) float64 {
			if t < 0.5 {
				return 2 * t * t
			}
			return -1 + (4-2*t)*t
		}
	case EaseInCubic:
		return func(t float64) float64 { return t * t * t }
	case EaseOutCubic:
		return func(t float64) float64 {
			u := t - 1
			return u*u*u + 1
		}
	case EaseInOutSine:
		return func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 }
	default:
		return func(t float64) float64 { return t }
	}
}

type table struct {
	once    sync.Once
	samples [TableSize]float64
}

// tables are process-lifetime state; each is built at most once.
var tables [numKinds]table

func (tb *table) build(k Kind) {
	f := curve(k)
	for i := range TableSize {
		tb.samples[i] = f(float64(i) / float64(TableSize-1))
	}
	// Pin the endpoints so rounding in the closed forms can't leak through.
	tb.samples[0] = 0
	tb.samples[TableSize-1] = 1
}

// lookup returns the table for k, building it on first use. Concurrent first
// callers block in sync.Once until the table is complete.
func lookup(k Kind) *[TableSize]float64 {
	tb := &tables[k]
	tb.once.Do(func() { tb.build(k) })
	return &tb.samples
}

// Warm builds every table up front.
func Warm() {
	for k := Kind(0); k < numKinds; k++ {
		lookup(k)
	}
}

// Clamp01 clamps t to [0, 1]. NaN maps to 0.
func Clamp01(t float64) float64 {
	if !(t > 0) {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Ease returns eased progress for t. t is clamped to [0, 1] first, so NaN and
// infinities never reach the table index. Unknown kinds behave like Linear.
func Ease(k Kind, t float64) float64 {
	t = Clamp01(t)
	if k == Linear || !k.Valid() {
		return t
	}

	s := lookup(k)
	pos := t * float64(TableSize-1)
	i := int(pos)
	if i >= TableSize-1 {
		return s[TableSize-1]
	}
	frac := pos - float64(i)
	return s[i] + (s[i+1]-s[i])*frac
}
