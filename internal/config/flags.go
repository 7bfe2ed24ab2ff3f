package config

// FlagOverrides holds command-line overrides. Each non-nil pointer is
// applied, even when it points at a zero value.
type FlagOverrides struct {
	FPS    *float64
	Pixels *int
	Seed   *uint64

	EmotionTable *string

	WebEnabled *bool
	WebPort    *int

	MQTTEnabled *bool
	MQTTBroker  *string

	Terminal *bool

	RemoteURL *string

	JournalEnabled *bool
	JournalPath    *string

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.FPS != nil {
		cfg.Engine.FPS = *o.FPS
	}
	if o.Pixels != nil {
		cfg.Engine.Pixels = *o.Pixels
	}
	if o.Seed != nil {
		cfg.Engine.Seed = *o.Seed
	}
	if o.EmotionTable != nil {
		cfg.Emotions.TablePath = *o.EmotionTable
	}
	if o.WebEnabled != nil {
		cfg.Web.Enabled = *o.WebEnabled
	}
	if o.WebPort != nil {
		cfg.Web.Port = *o.WebPort
	}
	if o.MQTTEnabled != nil {
		cfg.MQTT.Enabled = *o.MQTTEnabled
	}
	if o.MQTTBroker != nil {
		cfg.MQTT.Broker = *o.MQTTBroker
	}
	if o.Terminal != nil {
		cfg.Terminal.Enabled = *o.Terminal
	}
	if o.RemoteURL != nil {
		cfg.Remote.URL = *o.RemoteURL
	}
	if o.JournalEnabled != nil {
		cfg.Journal.Enabled = *o.JournalEnabled
	}
	if o.JournalPath != nil {
		cfg.Journal.Path = *o.JournalPath
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}
