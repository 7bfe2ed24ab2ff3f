package sink

import (
	"sync"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// Multi forwards every call to each of its sinks in order. All sinks see the
// call even when an earlier one fails; the first error is returned.
type Multi struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewMulti fans out to sinks. Nil entries are dropped.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	m.Add(sinks...)
	return m
}

// Add appends sinks. Nil entries are dropped.
func (m *Multi) Add(sinks ...Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sinks)
}

func (m *Multi) each(fn func(Sink) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var first error
	for _, s := range m.sinks {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Multi) SetPattern(name string, speed float64) error {
	return m.each(func(s Sink) error { return s.SetPattern(name, speed) })
}

func (m *Multi) SetColor(c color.RGB) error {
	return m.each(func(s Sink) error { return s.SetColor(c) })
}

func (m *Multi) SetBrightness(level uint8) error {
	return m.each(func(s Sink) error { return s.SetBrightness(level) })
}

func (m *Multi) Update(frame []color.RGB) error {
	return m.each(func(s Sink) error { return s.Update(frame) })
}

func (m *Multi) Clear() error {
	return m.each(func(s Sink) error { return s.Clear() })
}
