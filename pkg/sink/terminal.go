package sink

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// Terminal preview glyphs.
const (
	ledOn  = '●'
	ledOff = '○'
)

// TerminalSink draws the LEDs as two rings on a terminal. An even pixel
// count of at least two is split into a left and right eye, anything else is
// drawn as a single ring.
type TerminalSink struct {
	mu         sync.Mutex
	screen     tcell.Screen
	closed     bool
	pattern    string
	speed      float64
	color      color.RGB
	brightness uint8
	frames     uint64
}

// NewTerminalSink takes over the controlling terminal.
func NewTerminalSink() (*TerminalSink, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return NewTerminalSinkWithScreen(s), nil
}

// NewTerminalSinkWithScreen draws on an initialized screen, such as a
// tcell simulation screen.
func NewTerminalSinkWithScreen(s tcell.Screen) *TerminalSink {
	s.HideCursor()
	s.Clear()
	return &TerminalSink{screen: s, speed: 1, brightness: 255}
}

func (t *TerminalSink) SetPattern(name string, speed float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.pattern, t.speed = name, speed
	return nil
}

func (t *TerminalSink) SetColor(c color.RGB) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.color = c
	return nil
}

func (t *TerminalSink) SetBrightness(level uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.brightness = level
	return nil
}

func (t *TerminalSink) Update(frame []color.RGB) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.frames++
	t.drawLocked(frame)
	return nil
}

func (t *TerminalSink) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.screen.Clear()
	t.screen.Show()
	return nil
}

// Close restores the terminal.
func (t *TerminalSink) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.screen.Fini()
	return nil
}

func (t *TerminalSink) drawLocked(frame []color.RGB) {
	s := t.screen
	s.Clear()
	w, h := s.Size()

	status := fmt.Sprintf("%s x%.2f  %s  brightness %d  frame %d",
		t.pattern, t.speed, t.color, t.brightness, t.frames)
	drawText(s, 0, 0, status, tcell.StyleDefault)

	rings := [][]color.RGB{frame}
	centers := []int{w / 2}
	if n := len(frame); n >= 2 && n%2 == 0 {
		rings = [][]color.RGB{frame[:n/2], frame[n/2:]}
		centers = []int{w / 4, 3 * w / 4}
	}

	cy := h / 2
	rx := float64(max(2, min(w/8, 12)))
	ry := float64(max(1, min((h-2)/3, 6)))
	for e, ring := range rings {
		n := len(ring)
		for i, c := range ring {
			angle := 2*math.Pi*float64(i)/float64(n) - math.Pi/2
			x := centers[e] + int(math.Round(rx*math.Cos(angle)))
			y := cy + int(math.Round(ry*math.Sin(angle)))

			glyph := ledOn
			style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			if c.IsBlack() {
				glyph = ledOff
				style = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
			}
			s.SetContent(x, y, glyph, nil, style)
		}
	}
	s.Show()
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
