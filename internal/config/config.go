// Package config loads the reachy-eyes daemon configuration.
//
// Precedence, lowest first: DefaultConfig, the YAML file, EYES_* environment
// variables (after .env loading in main), then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
	"github.com/teslashibe/reachy-eyes/pkg/pattern"
)

// Config is the daemon configuration file.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Emotions EmotionsConfig `yaml:"emotions"`
	Web      WebConfig      `yaml:"web"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Terminal TerminalConfig `yaml:"terminal"`
	Remote   RemoteConfig   `yaml:"remote"`
	Journal  JournalConfig  `yaml:"journal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type EngineConfig struct {
	FPS           float64 `yaml:"fps"`
	Pixels        int     `yaml:"pixels"`
	JoinTimeoutMS int     `yaml:"join_timeout_ms"`
	MaxSlipFrames int     `yaml:"max_slip_frames"`
	Seed          uint64  `yaml:"seed"`
	Overlay       bool    `yaml:"overlay"`
	FadeEasing    string  `yaml:"fade_easing"`
}

type EmotionsConfig struct {
	// TablePath is an optional YAML emotion table merged over the defaults.
	TablePath         string  `yaml:"table_path,omitempty"`
	AxisNormalization string  `yaml:"axis_normalization"`
	MatchThreshold    float64 `yaml:"match_threshold"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id,omitempty"`
}

type TerminalConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RemoteConfig points at a websocket LED controller. Empty URL disables it.
type RemoteConfig struct {
	URL string `yaml:"url,omitempty"`
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			FPS:           50,
			Pixels:        16,
			JoinTimeoutMS: 1000,
			MaxSlipFrames: 4,
			Seed:          1,
			Overlay:       true,
			FadeEasing:    easing.EaseInOut.String(),
		},
		Emotions: EmotionsConfig{
			AxisNormalization: emotion.NormalizeNone.String(),
			MatchThreshold:    emotion.DefaultMatchThreshold,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		MQTT: MQTTConfig{
			Broker:      "localhost:1883",
			TopicPrefix: "reachy/eyes",
		},
		Journal: JournalConfig{
			Path: "data/journal.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFile reads a YAML config file over DefaultConfig.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(bytes.NewReader(b))
}

// Parse decodes a YAML config over DefaultConfig. Unknown fields and
// trailing documents are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace and comments may follow the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}
	return cfg, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate checks ranges and cross-field requirements. Call it after the
// file, environment and flags are applied.
func (c *Config) Validate() error {
	e := c.Engine
	if !(e.FPS > 0 && e.FPS <= 1000) {
		return fmt.Errorf("engine.fps must be in (0, 1000], got %v", e.FPS)
	}
	if err := pattern.ValidatePixels(e.Pixels); err != nil {
		return fmt.Errorf("engine.pixels: %w", err)
	}
	if e.JoinTimeoutMS <= 0 {
		return errors.New("engine.join_timeout_ms must be > 0")
	}
	if e.MaxSlipFrames < 1 {
		return errors.New("engine.max_slip_frames must be >= 1")
	}
	if _, err := easing.ParseKind(e.FadeEasing); err != nil {
		return fmt.Errorf("engine.fade_easing: %w", err)
	}

	if _, err := emotion.ParseNormalization(c.Emotions.AxisNormalization); err != nil {
		return fmt.Errorf("emotions.axis_normalization: %w", err)
	}
	if !(c.Emotions.MatchThreshold > 0) {
		return errors.New("emotions.match_threshold must be > 0")
	}

	if c.Web.Enabled && (c.Web.Port < 1 || c.Web.Port > 65535) {
		return fmt.Errorf("web.port must be between 1 and 65535, got %d", c.Web.Port)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return errors.New("mqtt.enabled is true but mqtt.broker is empty")
		}
		if c.MQTT.TopicPrefix == "" {
			return errors.New("mqtt.enabled is true but mqtt.topic_prefix is empty")
		}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.enabled is true but journal.path is empty")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
