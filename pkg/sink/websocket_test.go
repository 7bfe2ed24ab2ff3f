package sink

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

type wsMessage struct {
	kind int
	data []byte
}

// controller is a fake LED controller that records everything it receives.
type controller struct {
	srv   *httptest.Server
	msgs  chan wsMessage
	conns atomic.Int32
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newController(t *testing.T) *controller {
	t.Helper()
	c := &controller{msgs: make(chan wsMessage, 64)}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		c.conns.Add(1)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			c.msgs <- wsMessage{kind, data}
		}
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *controller) url() string {
	return "ws" + strings.TrimPrefix(c.srv.URL, "http")
}

func (c *controller) next(t *testing.T) wsMessage {
	t.Helper()
	select {
	case m := <-c.msgs:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller message")
		return wsMessage{}
	}
}

func (c *controller) nextCommand(t *testing.T) Command {
	t.Helper()
	m := c.next(t)
	if m.kind != websocket.TextMessage {
		t.Fatalf("message kind = %d, want text", m.kind)
	}
	var cmd Command
	if err := json.Unmarshal(m.data, &cmd); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestWebSocketSinkRejectsBadURL(t *testing.T) {
	for _, u := range []string{"http://host/leds", "://nope"} {
		if _, err := NewWebSocketSink(DefaultWebSocketConfig(u)); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("NewWebSocketSink(%q) = %v, want ErrInvalidURL", u, err)
		}
	}
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// silentController accepts TCP connections and never answers the websocket
// handshake.
func silentController(t *testing.T) (string, *atomic.Int32) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	var accepted atomic.Int32
	var mu sync.Mutex
	var held []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			mu.Lock()
			held = append(held, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range held {
			c.Close()
		}
	})
	return "ws://" + ln.Addr().String() + "/leds", &accepted
}

func TestWebSocketSinkSendsCommandsAndFrames(t *testing.T) {
	ctrl := newController(t)
	s, err := NewWebSocketSink(DefaultWebSocketConfig(ctrl.url()))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Remembered either way: sent now or replayed on connect.
	if err := s.SetPattern("breathing", 1.5); err != nil && !errors.Is(err, ErrDisconnected) {
		t.Fatal(err)
	}
	waitFor(t, "connection", s.Connected)
	if err := s.Update(solidFrame(2, color.RGB{R: 1, G: 2, B: 3})); err != nil {
		t.Fatal(err)
	}

	cmd := ctrl.nextCommand(t)
	if cmd.Cmd != CmdPattern || cmd.Pattern != "breathing" || cmd.Speed != 1.5 {
		t.Errorf("command = %+v", cmd)
	}
	frame := ctrl.next(t)
	if frame.kind != websocket.BinaryMessage {
		t.Fatalf("frame kind = %d, want binary", frame.kind)
	}
	if got := Unpack(frame.data); len(got) != 2 || got[1] != (color.RGB{R: 1, G: 2, B: 3}) {
		t.Errorf("frame = %v", got)
	}
	if s.Dials() != 1 {
		t.Errorf("Dials = %d, want 1", s.Dials())
	}
}

func TestWebSocketSinkRedialsAndReplays(t *testing.T) {
	ctrl := newController(t)
	cfg := DefaultWebSocketConfig(ctrl.url())
	cfg.RetryInterval = 10 * time.Millisecond
	s, err := NewWebSocketSink(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	waitFor(t, "connection", s.Connected)
	if err := s.SetColor(color.RGB{G: 200}); err != nil {
		t.Fatal(err)
	}
	ctrl.nextCommand(t)

	// Break the connection underneath the sink.
	s.mu.Lock()
	s.conn.UnderlyingConn().Close()
	s.mu.Unlock()

	if err := s.Update(solidFrame(2, color.White)); err == nil {
		t.Fatal("Update on a dead connection succeeded")
	}

	waitFor(t, "redial", func() bool { return s.Dials() == 2 && s.Connected() })
	replayed := ctrl.nextCommand(t)
	if replayed.Cmd != CmdColor || replayed.Color == nil || replayed.Color.G != 200 {
		t.Errorf("replayed = %+v, want last color", replayed)
	}
	if err := s.Update(solidFrame(2, color.White)); err != nil {
		t.Fatalf("Update after redial: %v", err)
	}
	if m := ctrl.next(t); m.kind != websocket.BinaryMessage {
		t.Errorf("kind = %d, want binary frame", m.kind)
	}
}

func TestWebSocketSinkUnreachableNeverBlocks(t *testing.T) {
	addr, _ := silentController(t)
	s, err := NewWebSocketSink(DefaultWebSocketConfig(addr))
	if err != nil {
		t.Fatal(err)
	}

	mem := NewMemory(0)
	m := NewMulti(mem, s)

	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := m.Update(solidFrame(4, color.White)); !errors.Is(err, ErrDisconnected) {
			t.Fatalf("Update = %v, want ErrDisconnected", err)
		}
		if err := m.SetColor(color.RGB{R: uint8(i)}); !errors.Is(err, ErrDisconnected) {
			t.Fatalf("SetColor = %v, want ErrDisconnected", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("50 frames took %v while the controller hung", elapsed)
	}
	if mem.FrameCount() != 50 {
		t.Errorf("memory sink got %d frames, want 50", mem.FrameCount())
	}

	// Close interrupts the pending handshake.
	start = time.Now()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close took %v", elapsed)
	}
	if err := s.Clear(); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear after Close = %v, want ErrClosed", err)
	}
}

func TestWebSocketSinkRetryIntervalAfterFailure(t *testing.T) {
	addr, accepted := silentController(t)
	cfg := DefaultWebSocketConfig(addr)
	cfg.HandshakeTimeout = 150 * time.Millisecond
	cfg.RetryInterval = 150 * time.Millisecond
	s, err := NewWebSocketSink(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Each failure takes 150ms and is followed by a 150ms pause, so attempts
	// start at ~0ms and ~300ms. Redialing as soon as the pause measured from
	// the attempt start expired would make four.
	time.Sleep(500 * time.Millisecond)
	if n := accepted.Load(); n < 1 || n > 2 {
		t.Errorf("dial attempts in 500ms = %d, want 1 or 2", n)
	}
	if s.Connected() || s.Dials() != 0 {
		t.Error("sink reports a connection to a silent controller")
	}
}
