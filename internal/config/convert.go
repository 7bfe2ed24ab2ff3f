package config

import (
	"time"

	"github.com/teslashibe/reachy-eyes/pkg/bridge"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
	"github.com/teslashibe/reachy-eyes/pkg/eyes"
)

// Eyes converts the engine section into an orchestrator config. The
// initial look comes from the Idle entry of table.
func (c *Config) Eyes(table emotion.Table) (eyes.Config, error) {
	ec := eyes.DefaultConfig()
	ec.NumPixels = c.Engine.Pixels
	ec.FrameRate = c.Engine.FPS
	ec.MaxSlipFrames = c.Engine.MaxSlipFrames
	ec.JoinTimeout = time.Duration(c.Engine.JoinTimeoutMS) * time.Millisecond
	ec.Seed = c.Engine.Seed
	ec.Overlay.Seed = c.Engine.Seed
	ec.DisableOverlay = !c.Engine.Overlay

	kind, err := easing.ParseKind(c.Engine.FadeEasing)
	if err != nil {
		return eyes.Config{}, err
	}
	ec.FadeEasing = kind

	if idle, ok := table[emotion.Idle]; ok {
		ec.Pattern = idle.Pattern
		ec.Color = idle.Color
		ec.PatternConfig.Speed = idle.Speed
		ec.PatternConfig.Brightness = idle.Brightness
	}
	return ec, nil
}

// Emotion loads the emotion table, if configured, and builds coordinator
// options.
func (c *Config) Emotion() (emotion.Options, error) {
	opts := emotion.DefaultOptions()
	if c.Emotions.TablePath != "" {
		table, trans, err := emotion.LoadTable(ExpandPath(c.Emotions.TablePath))
		if err != nil {
			return emotion.Options{}, err
		}
		opts.Table, opts.Transitions = table, trans
	}
	norm, err := emotion.ParseNormalization(c.Emotions.AxisNormalization)
	if err != nil {
		return emotion.Options{}, err
	}
	opts.Normalization = norm
	opts.MatchThreshold = c.Emotions.MatchThreshold
	return opts, nil
}

// Bridge converts the mqtt section into a bridge config.
func (c *Config) Bridge() bridge.Config {
	bc := bridge.DefaultConfig()
	bc.Broker = c.MQTT.Broker
	bc.TopicPrefix = c.MQTT.TopicPrefix
	bc.ClientID = c.MQTT.ClientID
	return bc
}
