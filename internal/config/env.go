package config

import (
	"fmt"
	"strconv"
)

// Environment variables read by ApplyEnv.
const (
	EnvFPS          = "EYES_FPS"
	EnvPixels       = "EYES_PIXELS"
	EnvSeed         = "EYES_SEED"
	EnvEmotionTable = "EYES_EMOTION_TABLE"
	EnvWebPort      = "EYES_WEB_PORT"
	EnvMQTTBroker   = "EYES_MQTT_BROKER"
	EnvMQTTPrefix   = "EYES_MQTT_PREFIX"
	EnvRemoteURL    = "EYES_REMOTE_URL"
	EnvJournalPath  = "EYES_JOURNAL_PATH"
	EnvLogLevel     = "EYES_LOG_LEVEL"
	EnvTerminal     = "EYES_TERMINAL"
)

// ApplyEnv overrides cfg from EYES_* variables looked up with getenv
// (normally os.Getenv). Setting a broker or journal path also enables that
// component.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvFPS); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFPS, err)
		}
		c.Engine.FPS = f
	}
	if v := getenv(EnvPixels); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPixels, err)
		}
		c.Engine.Pixels = n
	}
	if v := getenv(EnvSeed); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Engine.Seed = n
	}
	if v := getenv(EnvEmotionTable); v != "" {
		c.Emotions.TablePath = v
	}
	if v := getenv(EnvWebPort); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWebPort, err)
		}
		c.Web.Port = n
	}
	if v := getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
		c.MQTT.Enabled = true
	}
	if v := getenv(EnvMQTTPrefix); v != "" {
		c.MQTT.TopicPrefix = v
	}
	if v := getenv(EnvRemoteURL); v != "" {
		c.Remote.URL = v
	}
	if v := getenv(EnvJournalPath); v != "" {
		c.Journal.Path = v
		c.Journal.Enabled = true
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvTerminal); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTerminal, err)
		}
		c.Terminal.Enabled = b
	}
	return nil
}
