package animation

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/teslashibe/reachy-eyes/pkg/easing"
)

// track is the per-property view of a sequence: one entry per keyframe from
// the keyframe that introduced the property onward. Keyframes that omit the
// property hold the previous value.
type track struct {
	kind    ValueKind
	times   []time.Duration
	values  []Value
	easings []easing.Kind
}

// Sequence is an ordered list of keyframes.
type Sequence struct {
	// Loop wraps queries modulo the duration instead of clamping.
	Loop bool

	keyframes []Keyframe
	tracks    map[string]*track
}

// NewSequence creates an empty sequence.
func NewSequence(loop bool) *Sequence {
	return &Sequence{
		Loop:   loop,
		tracks: make(map[string]*track),
	}
}

// AddKeyframe appends a keyframe. Times must be non-negative and strictly
// increasing, and a property must keep its value kind across keyframes.
// A rejected keyframe leaves the sequence unchanged.
func (s *Sequence) AddKeyframe(at time.Duration, props map[string]Value, ease easing.Kind) error {
	if at < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeTime, at)
	}
	if n := len(s.keyframes); n > 0 && at <= s.keyframes[n-1].Time {
		return fmt.Errorf("%w: %v after %v", ErrNonIncreasingTime, at, s.keyframes[n-1].Time)
	}
	if len(props) == 0 {
		return ErrNoProperties
	}
	props = maps.Clone(props)
	for name, v := range props {
		v = normalize(name, v)
		props[name] = v
		if tr, ok := s.tracks[name]; ok && tr.kind != v.Kind {
			return fmt.Errorf("%w: %q is %s, got %s", ErrTypeMismatch, name, tr.kind, v.Kind)
		}
	}

	kf := Keyframe{Time: at, Properties: props, Easing: ease}
	s.keyframes = append(s.keyframes, kf)

	for name, tr := range s.tracks {
		if _, ok := props[name]; ok {
			continue
		}
		tr.times = append(tr.times, at)
		tr.values = append(tr.values, tr.values[len(tr.values)-1])
		tr.easings = append(tr.easings, ease)
	}
	for name, v := range props {
		tr, ok := s.tracks[name]
		if !ok {
			tr = &track{kind: v.Kind}
			s.tracks[name] = tr
		}
		tr.times = append(tr.times, at)
		tr.values = append(tr.values, v)
		tr.easings = append(tr.easings, ease)
	}
	return nil
}

// normalize stores brightness as a unit value whatever the caller built, and
// clamps unit values to [0, 1].
func normalize(name string, v Value) Value {
	if name == PropBrightness && v.Kind == KindScalar {
		v.Kind = KindUnit
	}
	if v.Kind == KindUnit {
		v.Scalar = clamp(v.Scalar, 0, 1)
	}
	return v
}

// Keyframes returns a copy of the keyframes.
func (s *Sequence) Keyframes() []Keyframe {
	return slices.Clone(s.keyframes)
}

// Len returns the number of keyframes.
func (s *Sequence) Len() int { return len(s.keyframes) }

// Duration is the time of the last keyframe.
func (s *Sequence) Duration() time.Duration {
	if len(s.keyframes) == 0 {
		return 0
	}
	return s.keyframes[len(s.keyframes)-1].Time
}

// Properties returns the sorted property names.
func (s *Sequence) Properties() []string {
	return slices.Sorted(maps.Keys(s.tracks))
}

// normalize maps elapsed time onto the timeline.
func (s *Sequence) normalize(t time.Duration) time.Duration {
	d := s.Duration()
	if d <= 0 {
		return 0
	}
	if s.Loop {
		t %= d
		if t < 0 {
			t += d
		}
		return t
	}
	if t < 0 {
		return 0
	}
	if t > d {
		return d
	}
	return t
}

// ValuesAt returns every property's value at time t.
func (s *Sequence) ValuesAt(t time.Duration) (Values, error) {
	if len(s.keyframes) < 2 {
		return nil, ErrTooFewKeyframes
	}
	t = s.normalize(t)

	out := make(Values, len(s.tracks))
	for name, tr := range s.tracks {
		out[name] = tr.at(t)
	}
	return out, nil
}

// ValueAt returns one property's value at time t.
func (s *Sequence) ValueAt(name string, t time.Duration) (Value, bool) {
	tr, ok := s.tracks[name]
	if !ok || len(s.keyframes) < 2 {
		return Value{}, false
	}
	return tr.at(s.normalize(t)), true
}

func (tr *track) at(t time.Duration) Value {
	n := len(tr.times)
	if t <= tr.times[0] {
		return tr.values[0]
	}
	if t >= tr.times[n-1] {
		return tr.values[n-1]
	}

	// First entry strictly after t; the bracket is [idx-1, idx).
	idx := sort.Search(n, func(i int) bool { return tr.times[i] > t })
	a, b := idx-1, idx

	span := tr.times[b] - tr.times[a]
	if span <= 0 {
		return tr.values[b]
	}
	p := float64(t-tr.times[a]) / float64(span)

	// The arriving keyframe's easing governs the segment.
	return interpolateValue(tr.values[a], tr.values[b], easing.Ease(tr.easings[b], p))
}
