package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/reachy-eyes/internal/log"
)

// queueSize bounds pending broadcasts; at 50 fps it is five seconds of frames.
const queueSize = 256

// Hub tracks connected viewers and broadcasts to them. A viewer joining late
// first receives the most recent message, so a preview shows the current
// frame and an event feed starts from the current state.
type Hub struct {
	name   string
	logger *slog.Logger

	queue      chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	viewers map[*Client]struct{}
	last    *Message

	running atomic.Bool
	dropped atomic.Uint64
	skipped atomic.Uint64
}

// New returns a hub; name tags its log lines.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.With("component", "hub", "hub", name),
		queue:      make(chan Message, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		viewers:    make(map[*Client]struct{}),
	}
}

// Run owns the viewer set until ctx is done, then disconnects everyone.
// Call it once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer close(h.done)
	defer h.running.Store(false)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c, "viewer left")
		case m := <-h.queue:
			h.fanOut(m)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.viewers[c] = struct{}{}
	last, n := h.last, len(h.viewers)
	h.mu.Unlock()

	if last != nil {
		c.send <- *last
	}
	h.logger.Info("viewer joined", "viewers", n)
}

func (h *Hub) remove(c *Client, why string) {
	h.mu.Lock()
	_, ok := h.viewers[c]
	if ok {
		delete(h.viewers, c)
		close(c.send)
	}
	n := len(h.viewers)
	h.mu.Unlock()
	if ok {
		h.logger.Info(why, "viewers", n)
	}
}

func (h *Hub) fanOut(m Message) {
	h.mu.Lock()
	h.last = &m
	var lagging []*Client
	for c := range h.viewers {
		select {
		case c.send <- m:
		default:
			if m.Skippable() {
				h.skipped.Add(1)
				continue
			}
			lagging = append(lagging, c)
		}
	}
	h.mu.Unlock()

	for _, c := range lagging {
		h.remove(c, "dropped lagging viewer")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.viewers {
		close(c.send)
		delete(h.viewers, c)
	}
}

// Broadcast queues m for every viewer. It never blocks; m is discarded when
// the queue is full.
func (h *Hub) Broadcast(m Message) {
	select {
	case h.queue <- m:
	default:
		if n := h.dropped.Add(1); n == 1 || n%1000 == 0 {
			h.logger.Warn("broadcast queue full", "dropped", n)
		}
	}
}

// BroadcastJSON encodes v and broadcasts it as an event.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Event(data))
	return nil
}

// BroadcastBinary broadcasts a packed frame.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Frame(data))
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Dropped returns how many broadcasts a full queue discarded.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Skipped returns how many frames lagging viewers missed.
func (h *Hub) Skipped() uint64 { return h.skipped.Load() }

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
