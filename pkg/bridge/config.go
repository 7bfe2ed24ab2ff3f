package bridge

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config configures the MQTT bridge.
type Config struct {
	// Broker is host:port or tcp://host:port.
	Broker string

	// TopicPrefix roots every topic, e.g. "reachy/eyes".
	TopicPrefix string

	// ClientID defaults to "reachy-eyes-<uuid>".
	ClientID string

	KeepAlive      uint16
	ConnectTimeout time.Duration
	RetryInterval  time.Duration

	// Outbox is how many state updates may queue while publishing.
	Outbox int

	Logger *slog.Logger
}

// DefaultConfig returns a bridge config for a local broker.
func DefaultConfig() Config {
	return Config{
		Broker:         "localhost:1883",
		TopicPrefix:    "reachy/eyes",
		KeepAlive:      30,
		ConnectTimeout: 5 * time.Second,
		RetryInterval:  2 * time.Second,
		Outbox:         16,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ClientID == "" {
		c.ClientID = "reachy-eyes-" + uuid.NewString()
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = d.KeepAlive
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.Outbox <= 0 {
		c.Outbox = d.Outbox
	}
	c.TopicPrefix = strings.TrimSuffix(c.TopicPrefix, "/")
	return c
}

// Validate checks the prefix and broker address.
func (c Config) Validate() error {
	if c.TopicPrefix == "" || strings.ContainsAny(c.TopicPrefix, "#+") {
		return fmt.Errorf("%w: topic prefix %q", ErrInvalidConfig, c.TopicPrefix)
	}
	if _, err := brokerAddr(c.Broker); err != nil {
		return err
	}
	return nil
}

// brokerAddr reduces Broker to a dialable host:port.
func brokerAddr(broker string) (string, error) {
	addr := broker
	if strings.Contains(broker, "://") {
		u, err := url.Parse(broker)
		if err != nil {
			return "", fmt.Errorf("%w: broker %q: %v", ErrInvalidConfig, broker, err)
		}
		if u.Scheme != "tcp" && u.Scheme != "mqtt" {
			return "", fmt.Errorf("%w: broker scheme %q", ErrInvalidConfig, u.Scheme)
		}
		addr = u.Host
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("%w: broker %q: %v", ErrInvalidConfig, broker, err)
	}
	return addr, nil
}
