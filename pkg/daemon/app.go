// Package daemon wires the eyes engine, the emotion coordinator and their
// optional outputs and control surfaces into one process.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/reachy-eyes/internal/config"
	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/bridge"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
	"github.com/teslashibe/reachy-eyes/pkg/eyes"
	"github.com/teslashibe/reachy-eyes/pkg/journal"
	"github.com/teslashibe/reachy-eyes/pkg/sink"
	"github.com/teslashibe/reachy-eyes/pkg/web"
)

// App owns every component and their lifecycle.
type App struct {
	config config.Config
	logger *slog.Logger

	// Core
	sinks *sink.Multi
	orch  *eyes.Orchestrator
	coord *emotion.Coordinator

	// Outputs
	terminal *sink.TerminalSink
	remote   *sink.WebSocketSink

	// Control surfaces and history
	journal *journal.Journal
	web     *web.Server
	bridge  *bridge.Bridge
}

// New validates cfg. Components are built by Init.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &App{
		config: cfg,
		logger: log.With("component", "daemon"),
		sinks:  sink.NewMulti(),
	}, nil
}

// Init builds the components in dependency order and pushes the Idle look.
// Call Shutdown even when Init fails.
func (a *App) Init() error {
	opts, err := a.config.Emotion()
	if err != nil {
		return fmt.Errorf("emotion config: %w", err)
	}
	table := opts.Table
	if table == nil {
		table = emotion.DefaultTable()
	}
	ecfg, err := a.config.Eyes(table)
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	if err := a.initOutputs(); err != nil {
		return err
	}

	a.orch, err = eyes.New(a.sinks, ecfg)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	opts.KnownPattern = a.orch.Registry().Has
	a.coord, err = emotion.NewCoordinator(a.orch, opts)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}
	a.coord.OnTransition(a.retuneOverlay)

	if err := a.initJournal(); err != nil {
		return err
	}
	a.initWeb()
	if err := a.initBridge(); err != nil {
		return err
	}

	if err := a.coord.Apply(); err != nil {
		return fmt.Errorf("apply idle look: %w", err)
	}
	a.logger.Info("initialized",
		"pixels", ecfg.NumPixels,
		"fps", ecfg.FrameRate,
		"sinks", a.sinks.Len(),
		"patterns", table.Patterns(),
		"web", a.web != nil,
		"mqtt", a.bridge != nil,
		"journal", a.journal != nil,
	)
	return nil
}

func (a *App) initOutputs() error {
	if a.config.Terminal.Enabled {
		ts, err := sink.NewTerminalSink()
		if err != nil {
			return fmt.Errorf("terminal preview: %w", err)
		}
		a.terminal = ts
		a.sinks.Add(ts)
	}
	if url := a.config.Remote.URL; url != "" {
		ws, err := sink.NewWebSocketSink(sink.DefaultWebSocketConfig(url))
		if err != nil {
			return fmt.Errorf("remote controller: %w", err)
		}
		a.remote = ws
		a.sinks.Add(ws)
	}
	return nil
}

func (a *App) initJournal() error {
	if !a.config.Journal.Enabled {
		return nil
	}
	j, err := journal.Open(config.ExpandPath(a.config.Journal.Path), nil)
	if err != nil {
		return err
	}
	a.journal = j
	a.coord.OnTransition(j.Hook())
	return nil
}

func (a *App) initWeb() {
	if !a.config.Web.Enabled {
		return
	}
	a.web = web.NewServer(strconv.Itoa(a.config.Web.Port), a.orch, a.coord)
	if a.journal != nil {
		a.web.History = a.journal
	}
	a.sinks.Add(sink.NewHubSink(a.web.FrameHub()))
	a.coord.OnTransition(a.web.PublishTransition)
}

func (a *App) initBridge() error {
	if !a.config.MQTT.Enabled {
		return nil
	}
	b, err := bridge.New(a.config.Bridge(), a.coord, a.orch)
	if err != nil {
		return fmt.Errorf("mqtt bridge: %w", err)
	}
	a.bridge = b
	a.coord.OnTransition(b.PublishTransition)
	return nil
}

// retuneOverlay moves the micro-expressions to the new state's axes.
func (a *App) retuneOverlay(t emotion.Transition) {
	axes := emotion.NeutralAxes
	if p, ok := emotion.PresetFor(a.coord.Presets(), t.To); ok {
		axes = p.Axes
	}
	if err := a.orch.SetAxes(axes); err != nil {
		a.logger.Warn("failed to retune overlay", "state", t.To, "error", err)
	}
}

// Engine returns the render loop.
func (a *App) Engine() *eyes.Orchestrator { return a.orch }

// Coordinator returns the emotion state machine.
func (a *App) Coordinator() *emotion.Coordinator { return a.coord }

// Journal returns the transition journal, or nil when disabled.
func (a *App) Journal() *journal.Journal { return a.journal }

// Run starts the render loop and the enabled control surfaces, and blocks
// until ctx is done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a.orch == nil {
		return fmt.Errorf("daemon not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)

	if err := a.orch.Start(ctx); err != nil {
		return err
	}
	if a.web != nil {
		g.Go(func() error { return a.web.Start(ctx) })
	}
	if a.bridge != nil {
		g.Go(func() error { return a.bridge.Run(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	a.logger.Info("eyes running")
	return g.Wait()
}

// Shutdown stops the render loop, which blanks the LEDs, and releases every
// component. Safe to call after a failed Init.
func (a *App) Shutdown() {
	if a.orch != nil {
		if err := a.orch.Stop(); err != nil {
			a.logger.Warn("engine stop", "error", err)
		}
	}
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.logger.Warn("remote close", "error", err)
		}
	}
	if a.terminal != nil {
		if err := a.terminal.Close(); err != nil {
			a.logger.Warn("terminal close", "error", err)
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("journal close", "error", err)
		}
	}
	a.logger.Info("shutdown complete")
}
