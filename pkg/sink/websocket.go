package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// WebSocketConfig configures a remote LED controller connection.
type WebSocketConfig struct {
	// URL of the controller, ws:// or wss://.
	URL string

	HandshakeTimeout time.Duration

	// WriteTimeout bounds each send; a slower controller is dropped and
	// redialed.
	WriteTimeout time.Duration

	// RetryInterval is the pause after a failed dial or a lost connection,
	// measured from when the failure was seen.
	RetryInterval time.Duration

	Logger *slog.Logger
}

// DefaultWebSocketConfig returns timeouts suited to a controller on the LAN.
func DefaultWebSocketConfig(rawURL string) WebSocketConfig {
	return WebSocketConfig{
		URL:              rawURL,
		HandshakeTimeout: 2 * time.Second,
		WriteTimeout:     20 * time.Millisecond,
		RetryInterval:    time.Second,
	}
}

const minRetryInterval = 10 * time.Millisecond

// WebSocketSink pushes frames to a remote controller: binary messages of
// packed RGB and JSON text Commands. A goroutine owned by the sink dials and
// redials; sink calls never wait on the network beyond one bounded write.
// While there is no connection they return ErrDisconnected at once. After
// each connect the last pattern, color and brightness are replayed so the
// controller catches up.
type WebSocketSink struct {
	cfg    WebSocketConfig
	url    string
	dialer websocket.Dialer
	logger *slog.Logger

	cancel  context.CancelFunc
	lost    chan struct{}
	stopped chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	dials  int
	buf    []byte

	// replayed after each connect
	pattern    *Command
	color      *Command
	brightness *Command
}

// NewWebSocketSink validates the URL and starts connecting in the background.
// Call Close to stop.
func NewWebSocketSink(cfg WebSocketConfig) (*WebSocketSink, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 2 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 20 * time.Millisecond
	}
	cfg.RetryInterval = max(cfg.RetryInterval, minRetryInterval)
	logger := cfg.Logger
	if logger == nil {
		logger = log.With("component", "ws-sink")
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &WebSocketSink{
		cfg:     cfg,
		url:     u.String(),
		dialer:  websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		logger:  logger.With("url", u.Redacted()),
		cancel:  cancel,
		lost:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

// Dials returns how many connections were established.
func (w *WebSocketSink) Dials() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dials
}

// Connected reports whether a connection is currently open.
func (w *WebSocketSink) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

// run keeps one connection up until ctx is done.
func (w *WebSocketSink) run(ctx context.Context) {
	defer close(w.stopped)
	failures := 0
	for {
		conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
		switch {
		case ctx.Err() != nil:
			if conn != nil {
				conn.Close()
			}
			return
		case err != nil:
			if failures++; failures == 1 {
				w.logger.Warn("controller unreachable, retrying", "error", err, "retry_in", w.cfg.RetryInterval)
			} else {
				w.logger.Debug("controller dial failed", "error", err, "failures", failures)
			}
		default:
			failures = 0
			if !w.attach(conn) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-w.lost:
			}
		}

		t := time.NewTimer(w.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// attach installs conn and replays the remembered state. It returns false
// when the sink was closed meanwhile.
func (w *WebSocketSink) attach(conn *websocket.Conn) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		conn.Close()
		return false
	}
	select {
	case <-w.lost:
	default:
	}
	w.conn = conn
	w.dials++
	w.logger.Info("connected to LED controller", "dials", w.dials)

	for _, cmd := range []*Command{w.pattern, w.color, w.brightness} {
		if cmd == nil {
			continue
		}
		if err := w.writeJSONLocked(*cmd); err != nil {
			break
		}
	}
	return true
}

// dropLocked discards the connection and wakes the dial loop.
func (w *WebSocketSink) dropLocked() {
	if w.conn == nil {
		return
	}
	w.conn.Close()
	w.conn = nil
	select {
	case w.lost <- struct{}{}:
	default:
	}
}

func (w *WebSocketSink) writeLocked(kind int, data []byte) error {
	w.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout))
	if err := w.conn.WriteMessage(kind, data); err != nil {
		w.dropLocked()
		w.logger.Warn("controller write failed, will redial", "error", err)
		return fmt.Errorf("write controller: %w", err)
	}
	return nil
}

func (w *WebSocketSink) writeJSONLocked(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.writeLocked(websocket.TextMessage, payload)
}

// usableLocked reports why nothing can be sent right now.
func (w *WebSocketSink) usableLocked() error {
	if w.closed {
		return ErrClosed
	}
	if w.conn == nil {
		return ErrDisconnected
	}
	return nil
}

// command remembers cmd for replay and sends it.
func (w *WebSocketSink) command(slot **Command, cmd Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if slot != nil {
		*slot = &cmd
	}
	if err := w.usableLocked(); err != nil {
		return err
	}
	return w.writeJSONLocked(cmd)
}

func (w *WebSocketSink) SetPattern(name string, speed float64) error {
	return w.command(&w.pattern, patternCommand(name, speed))
}

func (w *WebSocketSink) SetColor(c color.RGB) error {
	return w.command(&w.color, colorCommand(c))
}

func (w *WebSocketSink) SetBrightness(level uint8) error {
	return w.command(&w.brightness, brightnessCommand(level))
}

func (w *WebSocketSink) Clear() error {
	return w.command(nil, Command{Cmd: CmdClear})
}

func (w *WebSocketSink) Update(frame []color.RGB) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	w.buf = AppendFrame(w.buf[:0], frame)
	return w.writeLocked(websocket.BinaryMessage, w.buf)
}

// Close stops the dial loop, sends a close frame and shuts the connection.
// Later calls return ErrClosed.
func (w *WebSocketSink) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()

	w.cancel()
	<-w.stopped
	if conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(w.cfg.WriteTimeout))
	return conn.Close()
}
