package sink

import (
	"sync"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// Broadcaster is the part of hub.Hub the preview feed needs.
type Broadcaster interface {
	BroadcastBinary(data []byte)
	BroadcastJSON(v any) error
}

// HubSink streams frames to websocket preview clients. Frames go out as
// binary messages of packed RGB; the other calls go out as JSON Commands.
type HubSink struct {
	hub Broadcaster

	mu     sync.Mutex
	pixels int
}

// NewHubSink creates a preview sink over hub.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

func (h *HubSink) SetPattern(name string, speed float64) error {
	return h.hub.BroadcastJSON(patternCommand(name, speed))
}

func (h *HubSink) SetColor(c color.RGB) error {
	return h.hub.BroadcastJSON(colorCommand(c))
}

func (h *HubSink) SetBrightness(level uint8) error {
	return h.hub.BroadcastJSON(brightnessCommand(level))
}

// Update broadcasts the frame. Each broadcast owns its buffer since clients
// drain asynchronously.
func (h *HubSink) Update(frame []color.RGB) error {
	h.mu.Lock()
	h.pixels = len(frame)
	h.mu.Unlock()
	h.hub.BroadcastBinary(Pack(frame))
	return nil
}

// Clear broadcasts an all-black frame of the last seen size.
func (h *HubSink) Clear() error {
	h.mu.Lock()
	n := h.pixels
	h.mu.Unlock()
	if err := h.hub.BroadcastJSON(Command{Cmd: CmdClear}); err != nil {
		return err
	}
	if n > 0 {
		h.hub.BroadcastBinary(make([]byte, 3*n))
	}
	return nil
}
