// Package hub fans live LED frames and state events out to websocket
// viewers. One goroutine owns the viewer set; producers never block.
package hub

import "github.com/gofiber/websocket/v2"

// Kind says how a message is framed and what happens when a viewer lags.
type Kind int

const (
	// KindEvent is a JSON text message. Events are never skipped; a viewer
	// that cannot take one is disconnected.
	KindEvent Kind = iota

	// KindFrame is a packed RGB frame. A newer frame supersedes an older
	// one, so a lagging viewer just misses it.
	KindFrame
)

// Message is one broadcast payload.
type Message struct {
	Kind Kind
	Data []byte
}

// Event wraps pre-encoded JSON.
func Event(data []byte) Message { return Message{Kind: KindEvent, Data: data} }

// Frame wraps a packed frame.
func Frame(data []byte) Message { return Message{Kind: KindFrame, Data: data} }

// Skippable reports whether a lagging viewer may miss m.
func (m Message) Skippable() bool { return m.Kind == KindFrame }

func (m Message) wsType() int {
	if m.Kind == KindFrame {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
