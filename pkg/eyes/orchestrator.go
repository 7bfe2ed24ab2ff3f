// Package eyes runs the LED render loop.
//
// An Orchestrator owns the active pattern, its configuration and the base
// color. A background goroutine renders one frame per period, applies the
// micro-expression overlay, pushes a copy to the Sink and advances the
// pattern. Setters may be called from any goroutine; they take the same lock
// the loop holds while rendering, so a change lands between frames and is
// visible from the next one.
package eyes

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/reachy-eyes/internal/log"
	"github.com/teslashibe/reachy-eyes/pkg/animation"
	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
	"github.com/teslashibe/reachy-eyes/pkg/emotion"
	"github.com/teslashibe/reachy-eyes/pkg/pattern"
)

// Log throttling.
const (
	heartbeatFrames = 250
	errorLogEvery   = 5 * time.Second
)

// Stats are render loop counters.
type Stats struct {
	Frames     uint64        `json:"frames"`
	Skipped    uint64        `json:"skipped"`
	Overruns   uint64        `json:"overruns"`
	Resets     uint64        `json:"resets"`
	SinkErrors uint64        `json:"sink_errors"`
	LastFrame  time.Duration `json:"last_frame_ns"`
	Running    bool          `json:"running"`
}

// Status is a snapshot of what the eyes are showing.
type Status struct {
	Running    bool         `json:"running"`
	Emotion    string       `json:"emotion,omitempty"`
	Pattern    string       `json:"pattern"`
	Speed      float64      `json:"speed"`
	Brightness float64      `json:"brightness"`
	Color      color.RGB    `json:"color"`
	Axes       emotion.Axes `json:"axes"`
	Fading     bool         `json:"fading"`
}

// Orchestrator drives a pattern into a Sink at a fixed rate.
type Orchestrator struct {
	cfg    Config
	sink   Sink
	reg    *pattern.Registry
	logger *slog.Logger

	mu      sync.Mutex
	pat     pattern.Pattern
	pcfg    pattern.Config
	color   color.RGB
	emotion string
	axes    emotion.Axes
	overlay *pattern.Overlay

	// crossfade from the previous pattern
	prev       pattern.Pattern
	blendLeft  int
	blendTotal int

	// color/brightness glide
	fade            *animation.Player
	shownColor      color.RGB
	shownBrightness float64

	last []color.RGB

	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	alive      atomic.Bool
	frames     atomic.Uint64
	skipped    atomic.Uint64
	overruns   atomic.Uint64
	resets     atomic.Uint64
	sinkErrors atomic.Uint64
	lastFrame  atomic.Int64

	errMu        sync.Mutex
	lastErrLog   time.Time
	lastFaultLog time.Time
}

// New creates an orchestrator. A nil sink discards output.
func New(sink Sink, cfg Config) (*Orchestrator, error) {
	d := DefaultConfig()
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = d.FrameRate
	}
	if cfg.MaxSlipFrames <= 0 {
		cfg.MaxSlipFrames = d.MaxSlipFrames
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = d.JoinTimeout
	}
	if cfg.Pattern == "" {
		cfg.Pattern = d.Pattern
	}
	if cfg.PatternConfig == (pattern.Config{}) {
		cfg.PatternConfig = d.PatternConfig
	}
	if !cfg.FadeEasing.Valid() {
		cfg.FadeEasing = d.FadeEasing
	}
	if err := pattern.ValidatePixels(cfg.NumPixels); err != nil {
		return nil, err
	}
	if err := cfg.PatternConfig.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = nopSink{}
	}
	reg := cfg.Registry
	if reg == nil {
		reg = pattern.NewRegistry()
	}

	o := &Orchestrator{
		cfg:             cfg,
		sink:            sink,
		reg:             reg,
		logger:          log.Component(cfg.Logger, "eyes"),
		pcfg:            cfg.PatternConfig,
		color:           cfg.Color,
		shownColor:      cfg.Color,
		shownBrightness: cfg.PatternConfig.Brightness,
		axes:            emotion.NeutralAxes,
	}
	p, err := o.newPattern(cfg.Pattern, cfg.PatternConfig)
	if err != nil {
		return nil, err
	}
	o.pat = p
	if !cfg.DisableOverlay {
		o.overlay = pattern.NewOverlay(cfg.Overlay)
	}
	return o, nil
}

func (o *Orchestrator) newPattern(name string, cfg pattern.Config) (pattern.Pattern, error) {
	return o.reg.New(name, o.cfg.NumPixels, cfg, pattern.Options{Seed: o.cfg.Seed})
}

// Registry returns the pattern registry.
func (o *Orchestrator) Registry() *pattern.Registry { return o.reg }

// Start launches the render loop. The loop also ends when ctx is done.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.running, o.cancel, o.done = true, cancel, done
	o.alive.Store(true)

	go o.run(ctx, done)

	o.logger.Info("render loop started", "fps", o.cfg.FrameRate, "pixels", o.cfg.NumPixels, "pattern", o.pat.Name())
	return nil
}

// Stop halts the render loop, waiting at most JoinTimeout for it, and then
// always clears the sink. Safe to call repeatedly.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	cancel, done, wasRunning := o.cancel, o.done, o.running
	o.running, o.cancel, o.done = false, nil, nil
	o.mu.Unlock()

	if wasRunning {
		cancel()
		select {
		case <-done:
		case <-time.After(o.cfg.JoinTimeout):
			o.logger.Warn("forcing teardown", "error", ErrStopTimeout, "timeout", o.cfg.JoinTimeout)
		}
		o.logger.Info("render loop stopped", "frames", o.frames.Load(), "skipped", o.skipped.Load())
	}

	if err := o.sink.Clear(); err != nil {
		return fmt.Errorf("clear sink: %w", err)
	}
	return nil
}

// Running reports whether the render loop is alive.
func (o *Orchestrator) Running() bool {
	return o.alive.Load()
}

func (o *Orchestrator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer o.alive.Store(false)

	timer := animation.NewFrameTimer(o.cfg.FrameRate, o.cfg.MaxSlipFrames)
	timer.Reset()

	for ctx.Err() == nil {
		o.tick(ctx)

		err := timer.Wait(ctx)
		o.overruns.Store(timer.Overruns())
		o.resets.Store(timer.Resets())
		if err != nil {
			return
		}
	}
}

// tick renders and pushes one frame.
func (o *Orchestrator) tick(ctx context.Context) {
	start := time.Now()

	frame, ok := o.renderFrame()
	if !ok {
		o.skipped.Add(1)
		return
	}
	if ctx.Err() != nil {
		return
	}

	if err := o.sink.Update(frame); err != nil {
		n := o.sinkErrors.Add(1)
		o.throttled(&o.lastErrLog, func() {
			o.logger.Warn("sink update failed", "error", err, "total_errors", n)
		})
	}

	n := o.frames.Add(1)
	o.lastFrame.Store(int64(time.Since(start)))
	if n%heartbeatFrames == 0 {
		o.logger.Debug("heartbeat", "frames", n, "skipped", o.skipped.Load(), "overruns", o.overruns.Load())
	}
}

// renderFrame produces the next frame under the lock. A panic while
// rendering skips the frame; the pattern still advances so a fault tied to
// one frame does not repeat forever.
func (o *Orchestrator) renderFrame() ([]color.RGB, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []color.RGB
	ok := o.guard("render", func() { out = o.composeLocked() })
	o.guard("advance", o.advanceLocked)
	if !ok {
		return nil, false
	}
	o.last = slices.Clone(out)
	return out, true
}

// guard runs fn, converting a panic into a logged fault.
func (o *Orchestrator) guard(stage string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			o.throttled(&o.lastFaultLog, func() {
				o.logger.Error("render fault, frame skipped", "stage", stage, "pattern", o.pat.Name(), "panic", r)
			})
		}
	}()
	fn()
	return true
}

func (o *Orchestrator) throttled(last *time.Time, fn func()) {
	o.errMu.Lock()
	defer o.errMu.Unlock()
	if last.IsZero() || time.Since(*last) > errorLogEvery {
		*last = time.Now()
		fn()
	}
}

// composeLocked renders the active pattern, crossfades from the previous
// one and applies the overlay. The result is a fresh slice.
func (o *Orchestrator) composeLocked() []color.RGB {
	base := o.lookLocked()
	out := slices.Clone(o.pat.Render(base))

	if o.prev != nil && o.blendTotal > 0 {
		from := o.prev.Render(base)
		t := 1 - float64(o.blendLeft)/float64(o.blendTotal)
		for i := range out {
			if i < len(from) {
				out[i] = color.Lerp(from[i], out[i], t)
			}
		}
	}
	if o.overlay != nil {
		o.overlay.Apply(out)
	}
	return out
}

func (o *Orchestrator) advanceLocked() {
	o.pat.Advance()
	if o.prev != nil {
		o.prev.Advance()
		o.blendLeft--
		if o.blendLeft <= 0 {
			o.prev = nil
		}
	}
	if o.overlay != nil {
		o.overlay.Advance()
	}
}

// lookLocked returns the base color for this frame, stepping any glide.
func (o *Orchestrator) lookLocked() color.RGB {
	if o.fade == nil {
		return o.color
	}
	vals, err := o.fade.Update()
	if err != nil {
		o.fade = nil
		o.finishFadeLocked()
		return o.color
	}
	o.shownColor = vals.Color(animation.PropColor, o.color)
	o.shownBrightness = vals.Unit(animation.PropBrightness, o.pcfg.Brightness)
	if cfg, err := o.pat.Config().WithBrightness(o.shownBrightness); err == nil {
		_ = o.pat.SetConfig(cfg)
	}
	if !o.fade.IsPlaying() {
		o.fade = nil
		o.finishFadeLocked()
	}
	return o.shownColor
}

func (o *Orchestrator) finishFadeLocked() {
	o.shownColor = o.color
	o.shownBrightness = o.pcfg.Brightness
	_ = o.pat.SetConfig(o.pcfg)
}

// startFadeLocked glides from what is shown now to the current targets.
// A non-positive duration jumps straight there.
func (o *Orchestrator) startFadeLocked(d time.Duration) error {
	if d <= 0 {
		o.fade = nil
		o.finishFadeLocked()
		return nil
	}
	seq := animation.NewSequence(false)
	if err := seq.AddKeyframe(0, map[string]animation.Value{
		animation.PropColor:      animation.Color(o.shownColor),
		animation.PropBrightness: animation.Unit(o.shownBrightness),
	}, easing.Linear); err != nil {
		return err
	}
	if err := seq.AddKeyframe(d, map[string]animation.Value{
		animation.PropColor:      animation.Color(o.color),
		animation.PropBrightness: animation.Unit(o.pcfg.Brightness),
	}, o.cfg.FadeEasing); err != nil {
		return err
	}
	o.fade = animation.NewPlayer(seq, animation.PlayerOptions{FrameRate: o.cfg.FrameRate, Speed: 1})
	o.fade.Play()

	// Keep the pattern at the shown level until the first glide frame.
	if cfg, err := o.pcfg.WithBrightness(o.shownBrightness); err == nil {
		_ = o.pat.SetConfig(cfg)
	}
	return nil
}

// swapPatternLocked installs p, crossfading over cfg.BlendFrames.
func (o *Orchestrator) swapPatternLocked(p pattern.Pattern, cfg pattern.Config) {
	if cfg.BlendFrames > 0 {
		o.prev = o.pat
		o.blendLeft = cfg.BlendFrames
		o.blendTotal = cfg.BlendFrames
	} else {
		o.prev = nil
	}
	o.pat = p
	o.pcfg = cfg
}

// SetPattern switches to the named pattern at speed, keeping brightness,
// direction and crossfade settings.
func (o *Orchestrator) SetPattern(name string, speed float64) error {
	o.mu.Lock()
	cfg, err := o.pcfg.WithSpeed(speed)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	p, err := o.newPattern(name, cfg)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.swapPatternLocked(p, cfg)
	if o.fade != nil {
		if c, err := cfg.WithBrightness(o.shownBrightness); err == nil {
			_ = p.SetConfig(c)
		}
	}
	o.mu.Unlock()

	o.announce(o.sink.SetPattern(name, speed), "pattern")
	return nil
}

// SetPatternConfig replaces the active pattern's configuration.
func (o *Orchestrator) SetPatternConfig(cfg pattern.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	if err := o.pat.SetConfig(cfg); err != nil {
		o.mu.Unlock()
		return err
	}
	o.pcfg = cfg
	o.fade = nil
	o.shownBrightness = cfg.Brightness
	o.shownColor = o.color
	name := o.pat.Name()
	o.mu.Unlock()

	o.announce(o.sink.SetPattern(name, cfg.Speed), "pattern")
	o.announce(o.sink.SetBrightness(BrightnessByte(cfg.Brightness)), "brightness")
	return nil
}

// SetColor changes the base color immediately.
func (o *Orchestrator) SetColor(c color.RGB) error {
	o.mu.Lock()
	o.color = c
	o.fade = nil
	o.finishFadeLocked()
	o.mu.Unlock()

	o.announce(o.sink.SetColor(c), "color")
	return nil
}

// FadeColor glides the base color to c over d.
func (o *Orchestrator) FadeColor(c color.RGB, d time.Duration) error {
	o.mu.Lock()
	o.color = c
	err := o.startFadeLocked(d)
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.announce(o.sink.SetColor(c), "color")
	return nil
}

// SetBrightness sets the global brightness in [0, 1].
func (o *Orchestrator) SetBrightness(level float64) error {
	o.mu.Lock()
	cfg, err := o.pcfg.WithBrightness(level)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.pcfg = cfg
	if o.fade == nil {
		o.shownBrightness = level
		_ = o.pat.SetConfig(cfg)
	} else {
		// retarget the running glide
		err = o.startFadeLocked(o.remainingFadeLocked())
	}
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.announce(o.sink.SetBrightness(BrightnessByte(level)), "brightness")
	return nil
}

func (o *Orchestrator) remainingFadeLocked() time.Duration {
	if o.fade == nil {
		return 0
	}
	return max(o.fade.Sequence().Duration()-o.fade.Elapsed(), 0)
}

// SetAxes retunes the micro-expression overlay.
func (o *Orchestrator) SetAxes(a emotion.Axes) error {
	if err := a.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.axes = a
	if o.overlay != nil {
		o.overlay.SetAxes(a)
	}
	return nil
}

// SetBlend replaces the layers of the active blend pattern.
func (o *Orchestrator) SetBlend(layers []pattern.Layer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.pat.(*pattern.Blend)
	if !ok {
		return ErrNoBlend
	}
	return b.SetLayers(layers)
}

// Blink triggers a blink on the next frame.
func (o *Orchestrator) Blink() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.overlay != nil {
		o.overlay.Blink()
	}
}

// ApplyEmotion switches to a state's look, gliding color and brightness over
// its transition time. It implements emotion.Output.
func (o *Orchestrator) ApplyEmotion(state emotion.State, ec emotion.Config) error {
	o.mu.Lock()
	cfg := o.pcfg
	cfg.Speed = ec.Speed
	cfg.Brightness = ec.Brightness
	if err := cfg.Validate(); err != nil {
		o.mu.Unlock()
		return err
	}

	if ec.Pattern != o.pat.Name() {
		p, err := o.newPattern(ec.Pattern, cfg)
		if err != nil {
			o.mu.Unlock()
			return err
		}
		o.swapPatternLocked(p, cfg)
	} else {
		o.pcfg = cfg
	}
	o.color = ec.Color
	o.emotion = state.String()
	err := o.startFadeLocked(ec.Transition())
	o.mu.Unlock()
	if err != nil {
		return err
	}

	o.announce(o.sink.SetPattern(ec.Pattern, ec.Speed), "pattern")
	o.announce(o.sink.SetColor(ec.Color), "color")
	o.announce(o.sink.SetBrightness(BrightnessByte(ec.Brightness)), "brightness")
	return nil
}

// announce logs a failed sink notification. Notifications are advisory; the
// next frame carries the real output.
func (o *Orchestrator) announce(err error, what string) {
	if err == nil {
		return
	}
	o.sinkErrors.Add(1)
	o.throttled(&o.lastErrLog, func() {
		o.logger.Warn("sink notification failed", "what", what, "error", err)
	})
}

// Status returns what is being shown.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		Running:    o.alive.Load(),
		Emotion:    o.emotion,
		Pattern:    o.pat.Name(),
		Speed:      o.pcfg.Speed,
		Brightness: o.pcfg.Brightness,
		Color:      o.color,
		Axes:       o.axes,
		Fading:     o.fade != nil,
	}
}

// Stats returns render loop counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Frames:     o.frames.Load(),
		Skipped:    o.skipped.Load(),
		Overruns:   o.overruns.Load(),
		Resets:     o.resets.Load(),
		SinkErrors: o.sinkErrors.Load(),
		LastFrame:  time.Duration(o.lastFrame.Load()),
		Running:    o.alive.Load(),
	}
}

// Snapshot returns a copy of the last rendered frame.
func (o *Orchestrator) Snapshot() []color.RGB {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.last)
}

// RenderOnce renders and advances one frame without the loop or the sink.
// Used for previews and tests.
func (o *Orchestrator) RenderOnce() ([]color.RGB, bool) {
	return o.renderFrame()
}

type nopSink struct{}

func (nopSink) SetPattern(string, float64) error { return nil }
func (nopSink) SetColor(color.RGB) error         { return nil }
func (nopSink) SetBrightness(uint8) error        { return nil }
func (nopSink) Update([]color.RGB) error         { return nil }
func (nopSink) Clear() error                     { return nil }
