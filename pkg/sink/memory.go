package sink

import (
	"slices"
	"sync"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// Call is one recorded non-frame sink call.
type Call struct {
	Method     string
	Pattern    string
	Speed      float64
	Color      color.RGB
	Brightness uint8
}

// Memory records everything pushed to it. It backs dry runs and tests.
type Memory struct {
	mu        sync.Mutex
	maxFrames int
	frames    [][]color.RGB
	total     uint64
	calls     []Call
	err       error
}

// NewMemory keeps the most recent maxFrames frames; 0 keeps only the last.
func NewMemory(maxFrames int) *Memory {
	if maxFrames < 1 {
		maxFrames = 1
	}
	return &Memory{maxFrames: maxFrames}
}

// FailWith makes every later call return err. Nil restores normal operation.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, c)
	return nil
}

func (m *Memory) SetPattern(name string, speed float64) error {
	return m.record(Call{Method: CmdPattern, Pattern: name, Speed: speed})
}

func (m *Memory) SetColor(c color.RGB) error {
	return m.record(Call{Method: CmdColor, Color: c})
}

func (m *Memory) SetBrightness(level uint8) error {
	return m.record(Call{Method: CmdBrightness, Brightness: level})
}

func (m *Memory) Clear() error {
	return m.record(Call{Method: CmdClear})
}

func (m *Memory) Update(frame []color.RGB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.total++
	if len(m.frames) == m.maxFrames {
		m.frames = slices.Delete(m.frames, 0, 1)
	}
	m.frames = append(m.frames, slices.Clone(frame))
	return nil
}

// Frames returns the retained frames, oldest first.
func (m *Memory) Frames() [][]color.RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.frames)
}

// Last returns the most recent frame.
func (m *Memory) Last() ([]color.RGB, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil, false
	}
	return m.frames[len(m.frames)-1], true
}

// FrameCount is the number of frames received, retained or not.
func (m *Memory) FrameCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Calls returns the recorded non-frame calls in order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
