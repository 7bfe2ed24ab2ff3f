// Eyes - expressive LED eye animation daemon
// Renders emotion-driven patterns and serves the HTTP/MQTT control surfaces
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/teslashibe/reachy-eyes/internal/config"
	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/daemon"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(2)
	}
	log.Init(cfg.Logging.Level)
	log.Info("reachy-eyes starting", "pixels", cfg.Engine.Pixels, "fps", cfg.Engine.FPS, "web", cfg.Web.Enabled, "mqtt", cfg.MQTT.Enabled)

	app, err := daemon.New(cfg)
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(2)
	}
	defer app.Shutdown()

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		cancel()
		app.Shutdown()
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig() (config.Config, error) {
	var (
		o        config.FlagOverrides
		path     string
		fps      float64
		pixels   int
		seed     uint64
		table    string
		web      bool
		port     int
		mqtt     bool
		broker   string
		terminal bool
		remote   string
		journal  bool
		dbPath   string
		level    string
	)
	flag.StringVar(&path, "config", os.Getenv("EYES_CONFIG"), "YAML config file")
	flag.Float64Var(&fps, "fps", 0, "Render loop rate in Hz")
	flag.IntVar(&pixels, "pixels", 0, "Total LED count across both eyes")
	flag.Uint64Var(&seed, "seed", 0, "Seed for noise patterns and micro-expressions")
	flag.StringVar(&table, "emotions", "", "YAML emotion table")
	flag.BoolVar(&web, "web", true, "Serve the HTTP control API")
	flag.IntVar(&port, "port", 0, "HTTP control API port")
	flag.BoolVar(&mqtt, "mqtt", false, "Connect to the MQTT broker")
	flag.StringVar(&broker, "broker", "", "MQTT broker address")
	flag.BoolVar(&terminal, "terminal", false, "Draw a live preview in the terminal")
	flag.StringVar(&remote, "remote", "", "Websocket URL of a remote LED controller")
	flag.BoolVar(&journal, "journal", false, "Record emotion transitions")
	flag.StringVar(&dbPath, "journal-path", "", "SQLite journal path")
	flag.StringVar(&level, "log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	// Only flags given on the command line override the file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			o.FPS = &fps
		case "pixels":
			o.Pixels = &pixels
		case "seed":
			o.Seed = &seed
		case "emotions":
			o.EmotionTable = &table
		case "web":
			o.WebEnabled = &web
		case "port":
			o.WebPort = &port
		case "mqtt":
			o.MQTTEnabled = &mqtt
		case "broker":
			o.MQTTBroker = &broker
		case "terminal":
			o.Terminal = &terminal
		case "remote":
			o.RemoteURL = &remote
		case "journal":
			o.JournalEnabled = &journal
		case "journal-path":
			o.JournalPath = &dbPath
		case "log-level":
			o.LogLevel = &level
		}
	})

	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return config.Config{}, err
	}
	o.Apply(&cfg)
	return cfg, cfg.Validate()
}
