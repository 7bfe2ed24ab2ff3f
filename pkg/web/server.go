// Package web serves the HTTP control API and the live LED preview.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
	"github.com/teslashibe/reachy-eyes/pkg/eyes"
	"github.com/teslashibe/reachy-eyes/pkg/hub"
	"github.com/teslashibe/reachy-eyes/pkg/journal"
	"github.com/teslashibe/reachy-eyes/pkg/pattern"
)

// Engine is the render loop as the API sees it. *eyes.Orchestrator
// implements it.
type Engine interface {
	Status() eyes.Status
	Stats() eyes.Stats
	Snapshot() []color.RGB
	Registry() *pattern.Registry
	SetPattern(name string, speed float64) error
	SetColor(c color.RGB) error
	FadeColor(c color.RGB, d time.Duration) error
	SetBrightness(level float64) error
	Blink()
}

// Emotions is the emotion state machine as the API sees it.
// *emotion.Coordinator implements it.
type Emotions interface {
	Current() emotion.State
	SetEmotion(target emotion.State, force bool) (bool, error)
	SetEmotionFromAxesWithin(a emotion.Axes, threshold float64) (bool, error)
	SetEmotionFromAxes(a emotion.Axes) (bool, error)
	Match(a emotion.Axes) (emotion.Preset, float64, bool)
	Table() emotion.Table
	Transitions() emotion.Transitions
	Presets() []emotion.Preset
}

// History serves past transitions. *journal.Journal implements it.
type History interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Server is the control API server.
type Server struct {
	app      *fiber.App
	port     string
	engine   Engine
	emotions Emotions
	logger   *slog.Logger

	// History is optional; without it /api/history returns 404.
	History History

	// Hubs for websocket broadcast
	frameHub *hub.Hub
	eventHub *hub.Hub
}

// NewServer creates the API server.
func NewServer(port string, engine Engine, emotions Emotions) *Server {
	s := &Server{
		port:     port,
		engine:   engine,
		emotions: emotions,
		logger:   log.With("component", "web"),
		frameHub: hub.New("frames"),
		eventHub: hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Reachy Eyes",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/frame", s.handleFrame)
	api.Get("/patterns", s.handleListPatterns)
	api.Get("/emotions", s.handleListEmotions)
	api.Get("/history", s.handleHistory)
	api.Post("/emotion", s.handleSetEmotion)
	api.Post("/axes", s.handleSetAxes)
	api.Post("/brightness", s.handleSetBrightness)
	api.Post("/color", s.handleSetColor)
	api.Post("/pattern", s.handleSetPattern)
	api.Post("/blink", s.handleBlink)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/frames", websocket.New(s.handleHubWS(s.frameHub)))
	app.Get("/ws/events", websocket.New(s.handleHubWS(s.eventHub)))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// FrameHub returns the hub that carries packed RGB frames to /ws/frames.
func (s *Server) FrameHub() *hub.Hub { return s.frameHub }

// EventHub returns the hub behind /ws/events.
func (s *Server) EventHub() *hub.Hub { return s.eventHub }

// PublishTransition pushes a transition to /ws/events clients. It has the
// signature of a coordinator transition listener.
func (s *Server) PublishTransition(t emotion.Transition) {
	if err := s.eventHub.BroadcastJSON(fiber.Map{"type": "transition", "transition": t}); err != nil {
		s.logger.Warn("failed to publish transition", "error", err)
	}
}

// Start runs the hubs and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("control API listening", "url", "http://localhost:"+s.port)

	go s.frameHub.Run(ctx)
	go s.eventHub.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.logger.Warn("web shutdown", "error", err)
		}
	}()

	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
