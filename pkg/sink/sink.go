// Package sink provides LED sinks for the render loop: an in-memory recorder,
// a fan-out, a websocket preview feed, a remote controller client and a
// terminal preview.
package sink

import (
	"errors"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

var (
	// ErrClosed is returned by a sink after Close.
	ErrClosed = errors.New("sink: closed")

	// ErrDisconnected is returned while a remote sink has no connection. The
	// sink keeps redialing in the background.
	ErrDisconnected = errors.New("sink: disconnected")

	// ErrInvalidURL is returned for an unusable remote address.
	ErrInvalidURL = errors.New("sink: invalid url")
)

// Sink matches eyes.Sink so the adapters here can be composed without
// importing the render loop.
type Sink interface {
	SetPattern(name string, speed float64) error
	SetColor(c color.RGB) error
	SetBrightness(level uint8) error
	Update(frame []color.RGB) error
	Clear() error
}

// Command is the JSON form of a non-frame sink call.
type Command struct {
	Cmd        string     `json:"cmd"`
	Pattern    string     `json:"pattern,omitempty"`
	Speed      float64    `json:"speed,omitempty"`
	Color      *color.RGB `json:"color,omitempty"`
	Brightness *uint8     `json:"brightness,omitempty"`
}

// Command names.
const (
	CmdPattern    = "pattern"
	CmdColor      = "color"
	CmdBrightness = "brightness"
	CmdClear      = "clear"
)

func patternCommand(name string, speed float64) Command {
	return Command{Cmd: CmdPattern, Pattern: name, Speed: speed}
}

func colorCommand(c color.RGB) Command {
	return Command{Cmd: CmdColor, Color: &c}
}

func brightnessCommand(level uint8) Command {
	return Command{Cmd: CmdBrightness, Brightness: &level}
}

// Pack encodes a frame as consecutive r, g, b bytes.
func Pack(frame []color.RGB) []byte {
	return AppendFrame(make([]byte, 0, 3*len(frame)), frame)
}

// AppendFrame appends the packed frame to dst.
func AppendFrame(dst []byte, frame []color.RGB) []byte {
	for _, c := range frame {
		dst = append(dst, c.R, c.G, c.B)
	}
	return dst
}

// Unpack decodes a packed frame. A trailing partial pixel is ignored.
func Unpack(data []byte) []color.RGB {
	out := make([]color.RGB, len(data)/3)
	for i := range out {
		out[i] = color.RGB{R: data[3*i], G: data[3*i+1], B: data[3*i+2]}
	}
	return out
}
