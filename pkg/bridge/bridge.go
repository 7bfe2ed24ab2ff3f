// Package bridge connects the emotion coordinator to an MQTT broker.
//
// A behavior coordinator elsewhere on the robot publishes emotion commands;
// the bridge applies them and publishes every resulting state change.
//
//	<prefix>/emotion/set       {"state": "happy", "force": false}
//	<prefix>/emotion/axes      {"arousal": 0.4, "valence": 0.3, "focus": 0.9, "blink_speed": 1.3, "threshold": 0.5}
//	<prefix>/emotion/reset     (any payload)
//	<prefix>/brightness/set    {"brightness": 0.6}
//	<prefix>/emotion/state     published, retained: {"state", "previous", "forced", "source", "at"}
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"

	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
)

// Emotions is the part of the coordinator the bridge drives.
type Emotions interface {
	SetEmotion(target emotion.State, force bool) (bool, error)
	SetEmotionFromAxes(a emotion.Axes) (bool, error)
	SetEmotionFromAxesWithin(a emotion.Axes, threshold float64) (bool, error)
	ResetToIdle() (bool, error)
}

// Lights is the part of the render loop the bridge drives.
type Lights interface {
	SetBrightness(level float64) error
}

// Topics are the resolved topic names for a prefix.
type Topics struct {
	Set        string
	Axes       string
	Reset      string
	Brightness string
	State      string
}

// TopicsFor builds the topic set under prefix.
func TopicsFor(prefix string) Topics {
	return Topics{
		Set:        prefix + "/emotion/set",
		Axes:       prefix + "/emotion/axes",
		Reset:      prefix + "/emotion/reset",
		Brightness: prefix + "/brightness/set",
		State:      prefix + "/emotion/state",
	}
}

// SetMessage is the payload of the set topic.
type SetMessage struct {
	State string `json:"state"`
	Force bool   `json:"force"`
}

// AxesMessage is the payload of the axes topic. Omitted axes are neutral.
type AxesMessage struct {
	Arousal    *float64 `json:"arousal"`
	Valence    *float64 `json:"valence"`
	Focus      *float64 `json:"focus"`
	BlinkSpeed *float64 `json:"blink_speed"`
	Threshold  *float64 `json:"threshold"`
}

// BrightnessMessage is the payload of the brightness topic.
type BrightnessMessage struct {
	Brightness *float64 `json:"brightness"`
}

// StateMessage is published on every transition.
type StateMessage struct {
	State    emotion.State `json:"state"`
	Previous emotion.State `json:"previous"`
	Forced   bool          `json:"forced"`
	Source   string        `json:"source"`
	At       time.Time     `json:"at"`
}

// Bridge relays MQTT commands to the coordinator.
type Bridge struct {
	cfg      Config
	topics   Topics
	emotions Emotions
	lights   Lights
	logger   *slog.Logger
	outbox   chan StateMessage

	// pending is the state update taken from outbox but not yet accepted
	// by the broker. Only the Run goroutine touches it.
	pending *StateMessage

	mu     sync.Mutex
	client *paho.Client
}

// New validates cfg. lights may be nil, in which case brightness commands
// are rejected.
func New(cfg Config, emotions Emotions, lights Lights) (*Bridge, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := log.Component(cfg.Logger, "mqtt")
	return &Bridge{
		cfg:      cfg,
		topics:   TopicsFor(cfg.TopicPrefix),
		emotions: emotions,
		lights:   lights,
		logger:   logger.With("broker", cfg.Broker, "client_id", cfg.ClientID),
		outbox:   make(chan StateMessage, cfg.Outbox),
	}, nil
}

// Topics returns the topic names in use.
func (b *Bridge) Topics() Topics { return b.topics }

// Connected reports whether a broker session is up.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// Handle applies one inbound message.
func (b *Bridge) Handle(topic string, payload []byte) error {
	switch topic {
	case b.topics.Set:
		var msg SetMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		state, err := emotion.ParseState(msg.State)
		if err != nil {
			return err
		}
		_, err = b.emotions.SetEmotion(state, msg.Force)
		return err

	case b.topics.Axes:
		var msg AxesMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		a := msg.axes()
		if msg.Threshold != nil {
			if !(*msg.Threshold > 0) {
				return fmt.Errorf("%w: threshold %v", ErrBadPayload, *msg.Threshold)
			}
			_, err := b.emotions.SetEmotionFromAxesWithin(a, *msg.Threshold)
			return err
		}
		_, err := b.emotions.SetEmotionFromAxes(a)
		return err

	case b.topics.Reset:
		_, err := b.emotions.ResetToIdle()
		return err

	case b.topics.Brightness:
		var msg BrightnessMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
		if msg.Brightness == nil {
			return fmt.Errorf("%w: brightness missing", ErrBadPayload)
		}
		if b.lights == nil {
			return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
		}
		return b.lights.SetBrightness(*msg.Brightness)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
}

func (m AxesMessage) axes() emotion.Axes {
	a := emotion.NeutralAxes
	if m.Arousal != nil {
		a.Arousal = *m.Arousal
	}
	if m.Valence != nil {
		a.Valence = *m.Valence
	}
	if m.Focus != nil {
		a.Focus = *m.Focus
	}
	if m.BlinkSpeed != nil {
		a.BlinkSpeed = *m.BlinkSpeed
	}
	return a
}

// PublishTransition queues a state update. It never blocks; when the outbox
// is full the update is dropped and the next one supersedes it. It has the
// signature of a coordinator transition listener.
func (b *Bridge) PublishTransition(t emotion.Transition) {
	msg := StateMessage{State: t.To, Previous: t.From, Forced: t.Forced, Source: t.Source, At: t.At}
	select {
	case b.outbox <- msg:
	default:
		b.logger.Warn("state outbox full, dropping update", "state", t.To)
	}
}

// Run keeps a broker session up until ctx is done, redialing after
// RetryInterval whenever the connection drops.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		err := b.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		b.logger.Warn("mqtt session ended, retrying", "error", err, "retry_in", b.cfg.RetryInterval)

		t := time.NewTimer(b.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// statePublisher is the part of a paho client that carries state updates.
type statePublisher interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

// session runs one connection: connect, subscribe, republish any update a
// previous session failed to deliver, then publish queued state updates
// until the connection is lost or ctx is done.
func (b *Bridge) session(ctx context.Context) error {
	client, lost, err := b.connect(ctx)
	if err != nil {
		return err
	}
	defer b.disconnect(client)

	if err := b.flushPending(ctx, client); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-lost:
			return err
		case msg := <-b.outbox:
			if err := b.deliver(ctx, client, msg); err != nil {
				return err
			}
		}
	}
}

// deliver makes msg the pending update and publishes it.
func (b *Bridge) deliver(ctx context.Context, pub statePublisher, msg StateMessage) error {
	b.pending = &msg
	return b.flushPending(ctx, pub)
}

// flushPending publishes the pending update. On failure it stays pending for
// the next session.
func (b *Bridge) flushPending(ctx context.Context, pub statePublisher) error {
	if b.pending == nil {
		return nil
	}
	if err := b.publish(ctx, pub, *b.pending); err != nil {
		return err
	}
	b.pending = nil
	return nil
}

func (b *Bridge) connect(ctx context.Context) (*paho.Client, chan error, error) {
	addr, err := brokerAddr(b.cfg.Broker)
	if err != nil {
		return nil, nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, b.cfg.ConnectTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}

	lost := make(chan error, 1)
	notify := func(err error) {
		select {
		case lost <- err:
		default:
		}
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: b.cfg.ClientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			b.onPublish,
		},
		OnClientError: func(err error) { notify(err) },
		OnServerDisconnect: func(d *paho.Disconnect) {
			notify(fmt.Errorf("server disconnect, reason %d", d.ReasonCode))
		},
	})

	ack, err := client.Connect(dialCtx, &paho.Connect{
		ClientID:   b.cfg.ClientID,
		CleanStart: true,
		KeepAlive:  b.cfg.KeepAlive,
	})
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("connect broker: %w", err)
	}
	if ack.ReasonCode != 0 {
		conn.Close()
		return nil, nil, fmt.Errorf("connect broker: reason %d", ack.ReasonCode)
	}

	subs := make([]paho.SubscribeOptions, 0, 4)
	for _, topic := range []string{b.topics.Set, b.topics.Axes, b.topics.Reset, b.topics.Brightness} {
		subs = append(subs, paho.SubscribeOptions{Topic: topic, QoS: 1})
	}
	if _, err := client.Subscribe(dialCtx, &paho.Subscribe{Subscriptions: subs}); err != nil {
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()
	b.logger.Info("mqtt bridge connected", "prefix", b.cfg.TopicPrefix)
	return client, lost, nil
}

func (b *Bridge) disconnect(client *paho.Client) {
	b.mu.Lock()
	if b.client == client {
		b.client = nil
	}
	b.mu.Unlock()
	_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}

func (b *Bridge) publish(ctx context.Context, pub statePublisher, msg StateMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, b.cfg.ConnectTimeout)
	defer cancel()
	_, err = pub.Publish(pubCtx, &paho.Publish{
		Topic:   b.topics.State,
		QoS:     1,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

func (b *Bridge) onPublish(pr paho.PublishReceived) (bool, error) {
	p := pr.Packet
	if err := b.Handle(p.Topic, p.Payload); err != nil {
		b.logger.Warn("rejected mqtt command", "topic", p.Topic, "error", err)
	}
	return true, nil
}
