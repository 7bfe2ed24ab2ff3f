package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
	"github.com/teslashibe/reachy-eyes/pkg/hub"
	"github.com/teslashibe/reachy-eyes/pkg/journal"
	"github.com/teslashibe/reachy-eyes/pkg/pattern"
)

// EmotionRequest is the body of POST /api/emotion.
type EmotionRequest struct {
	State string `json:"state"`
	Force bool   `json:"force"`
}

// AxesRequest is the body of POST /api/axes. Omitted axes take their
// neutral value; an omitted threshold uses the coordinator's.
type AxesRequest struct {
	Arousal    *float64 `json:"arousal"`
	Valence    *float64 `json:"valence"`
	Focus      *float64 `json:"focus"`
	BlinkSpeed *float64 `json:"blink_speed"`
	Threshold  *float64 `json:"threshold"`
}

// Axes fills omitted fields from emotion.NeutralAxes.
func (r AxesRequest) Axes() emotion.Axes {
	a := emotion.NeutralAxes
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{r.Arousal, &a.Arousal},
		{r.Valence, &a.Valence},
		{r.Focus, &a.Focus},
		{r.BlinkSpeed, &a.BlinkSpeed},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return a
}

// BrightnessRequest is the body of POST /api/brightness.
type BrightnessRequest struct {
	Brightness *float64 `json:"brightness"`
}

// ColorRequest is the body of POST /api/color.
type ColorRequest struct {
	R      int `json:"r"`
	G      int `json:"g"`
	B      int `json:"b"`
	FadeMS int `json:"fade_ms"`
}

// PatternRequest is the body of POST /api/pattern. An omitted speed keeps
// the current one.
type PatternRequest struct {
	Name  string   `json:"name"`
	Speed *float64 `json:"speed"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, emotion.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, emotion.ErrUnknownState),
		errors.Is(err, emotion.ErrInvalidAxes),
		errors.Is(err, pattern.ErrInvalidConfig),
		errors.Is(err, pattern.ErrUnknownPattern):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return errorJSON(c, status, err.Error())
}

// handleStatus returns what the eyes are showing plus loop counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.engine.Status()
	stats := s.engine.Stats()
	return c.JSON(fiber.Map{
		"emotion":    s.emotions.Current(),
		"pattern":    st.Pattern,
		"speed":      st.Speed,
		"color":      st.Color,
		"brightness": st.Brightness,
		"axes":       st.Axes,
		"fading":     st.Fading,
		"running":    stats.Running,
		"frames":     stats.Frames,
		"skipped":    stats.Skipped,
		"overruns":   stats.Overruns,
	})
}

// handleFrame returns the last rendered frame
func (s *Server) handleFrame(c *fiber.Ctx) error {
	frame := s.engine.Snapshot()
	if frame == nil {
		frame = []color.RGB{}
	}
	return c.JSON(fiber.Map{"pixels": frame})
}

func (s *Server) handleListPatterns(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"patterns": s.engine.Registry().Names(),
		"active":   s.engine.Status().Pattern,
	})
}

func (s *Server) handleListEmotions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"current":     s.emotions.Current(),
		"states":      emotion.States(),
		"table":       s.emotions.Table(),
		"transitions": s.emotions.Transitions(),
		"presets":     s.emotions.Presets(),
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.History == nil {
		return errorJSON(c, fiber.StatusNotFound, "journal disabled")
	}
	limit := c.QueryInt("limit", journal.DefaultLimit)
	if limit < 1 || limit > journal.MaxLimit {
		return errorJSON(c, fiber.StatusBadRequest, "limit out of range")
	}
	entries, err := s.History.Recent(c.UserContext(), limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// handleSetEmotion moves the state machine. 409 when the transition is not
// allowed and force is unset.
func (s *Server) handleSetEmotion(c *fiber.Ctx) error {
	var req EmotionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	state, err := emotion.ParseState(req.State)
	if err != nil {
		return s.fail(c, err)
	}
	changed, err := s.emotions.SetEmotion(state, req.Force)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"emotion": s.emotions.Current(), "changed": changed})
}

func (s *Server) handleSetAxes(c *fiber.Ctx) error {
	var req AxesRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	a := req.Axes()
	if err := a.Validate(); err != nil {
		return s.fail(c, err)
	}

	var (
		changed bool
		err     error
	)
	if req.Threshold != nil {
		if !(*req.Threshold > 0) {
			return errorJSON(c, fiber.StatusBadRequest, "threshold must be > 0")
		}
		changed, err = s.emotions.SetEmotionFromAxesWithin(a, *req.Threshold)
	} else {
		changed, err = s.emotions.SetEmotionFromAxes(a)
	}
	if err != nil {
		return s.fail(c, err)
	}

	preset, dist, _ := s.emotions.Match(a)
	return c.JSON(fiber.Map{
		"emotion":  s.emotions.Current(),
		"changed":  changed,
		"nearest":  preset.Name,
		"distance": dist,
	})
}

func (s *Server) handleSetBrightness(c *fiber.Ctx) error {
	var req BrightnessRequest
	if err := c.BodyParser(&req); err != nil || req.Brightness == nil {
		return errorJSON(c, fiber.StatusBadRequest, "brightness required")
	}
	if err := s.engine.SetBrightness(*req.Brightness); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"brightness": *req.Brightness})
}

func (s *Server) handleSetColor(c *fiber.Ctx) error {
	var req ColorRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid body")
	}
	for _, v := range []int{req.R, req.G, req.B} {
		if v < 0 || v > 255 {
			return errorJSON(c, fiber.StatusBadRequest, "color channels must be in [0, 255]")
		}
	}
	if req.FadeMS < 0 || req.FadeMS > emotion.MaxTransitionMS {
		return errorJSON(c, fiber.StatusBadRequest, "fade_ms out of range")
	}

	rgb := color.RGB{R: uint8(req.R), G: uint8(req.G), B: uint8(req.B)}
	var err error
	if req.FadeMS > 0 {
		err = s.engine.FadeColor(rgb, time.Duration(req.FadeMS)*time.Millisecond)
	} else {
		err = s.engine.SetColor(rgb)
	}
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"color": rgb, "fade_ms": req.FadeMS})
}

func (s *Server) handleSetPattern(c *fiber.Ctx) error {
	var req PatternRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return errorJSON(c, fiber.StatusBadRequest, "name required")
	}
	speed := s.engine.Status().Speed
	if req.Speed != nil {
		speed = *req.Speed
	}
	if err := s.engine.SetPattern(req.Name, speed); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"pattern": req.Name, "speed": speed})
}

func (s *Server) handleBlink(c *fiber.Ctx) error {
	s.engine.Blink()
	return c.SendStatus(fiber.StatusNoContent)
}

// handleHubWS attaches a websocket to h until the peer goes away.
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}
