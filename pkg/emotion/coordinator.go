package emotion

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/teslashibe/reachy-eyes/internal/log"
)

// DefaultMatchThreshold is the axis distance within which a preset matches.
const DefaultMatchThreshold = 0.5

// Transition sources.
const (
	SourceCommand = "command"
	SourceAxes    = "axes"
	SourceReset   = "reset"
)

// Output receives the look of each newly entered state.
type Output interface {
	ApplyEmotion(state State, cfg Config) error
}

// Transition describes a completed state change.
type Transition struct {
	From   State     `json:"from"`
	To     State     `json:"to"`
	Forced bool      `json:"forced"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// Options configures a Coordinator.
type Options struct {
	Table          Table
	Transitions    Transitions
	Presets        []Preset
	Normalization  Normalization
	MatchThreshold float64
	Logger         *slog.Logger

	// KnownPattern, when set, must accept every pattern in Table. The
	// orchestrator's registry Has fits.
	KnownPattern func(name string) bool

	// Now is the clock used for Transition.At.
	Now func() time.Time
}

// DefaultOptions returns the stock tables with raw axis distances.
func DefaultOptions() Options {
	return Options{
		Table:          DefaultTable(),
		Transitions:    DefaultTransitions(),
		Presets:        DefaultPresets(),
		Normalization:  NormalizeNone,
		MatchThreshold: DefaultMatchThreshold,
	}
}

// Coordinator is the emotion state machine. It starts in Idle and never
// halts. Safe for concurrent use.
//
// Enter and exit hooks run while the coordinator is locked and must not call
// back into it. Transition listeners run after the lock is released.
type Coordinator struct {
	mu        sync.Mutex
	out       Output
	table     Table
	trans     Transitions
	presets   []Preset
	norm      Normalization
	threshold float64
	logger    *slog.Logger
	now       func() time.Time

	current   State
	onEnter   map[State][]func(State)
	onExit    map[State][]func(State)
	listeners []func(Transition)
}

// NewCoordinator validates the tables and returns a coordinator in Idle.
// The Idle look is not pushed to out until Apply or the first transition.
func NewCoordinator(out Output, opts Options) (*Coordinator, error) {
	d := DefaultOptions()
	if opts.Table == nil {
		opts.Table = d.Table
	}
	if opts.Transitions == nil {
		opts.Transitions = d.Transitions
	}
	if opts.Presets == nil {
		opts.Presets = d.Presets
	}
	if !(opts.MatchThreshold > 0) {
		opts.MatchThreshold = d.MatchThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if err := opts.Table.Validate(); err != nil {
		return nil, err
	}
	if opts.KnownPattern != nil {
		if err := opts.Table.CheckPatterns(opts.KnownPattern); err != nil {
			return nil, err
		}
	}
	if err := ValidateTransitions(opts.Transitions); err != nil {
		return nil, err
	}
	for _, p := range opts.Presets {
		if err := p.Axes.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.Name, err)
		}
	}

	return &Coordinator{
		out:       out,
		table:     opts.Table.Clone(),
		trans:     opts.Transitions.Clone(),
		presets:   slices.Clone(opts.Presets),
		norm:      opts.Normalization,
		threshold: opts.MatchThreshold,
		logger:    log.Component(opts.Logger, "emotion"),
		now:       opts.Now,
		current:   Idle,
		onEnter:   make(map[State][]func(State)),
		onExit:    make(map[State][]func(State)),
	}, nil
}

// Apply pushes the current state's look to the output without a transition.
func (c *Coordinator) Apply() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil {
		return nil
	}
	return c.out.ApplyEmotion(c.current, c.table[c.current])
}

// Current returns the current state.
func (c *Coordinator) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Config returns the look of the current state.
func (c *Coordinator) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table[c.current]
}

// Table returns a copy of the emotion table.
func (c *Coordinator) Table() Table {
	return c.table.Clone()
}

// Transitions returns a copy of the transition table.
func (c *Coordinator) Transitions() Transitions {
	return c.trans.Clone()
}

// Presets returns a copy of the axis presets.
func (c *Coordinator) Presets() []Preset {
	return slices.Clone(c.presets)
}

// OnEnter registers fn to run when s becomes current. fn receives the state
// being left.
func (c *Coordinator) OnEnter(s State, fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnter[s] = append(c.onEnter[s], fn)
}

// OnExit registers fn to run when s stops being current. fn receives the
// state being entered.
func (c *Coordinator) OnExit(s State, fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExit[s] = append(c.onExit[s], fn)
}

// OnTransition registers fn to run after every completed transition.
func (c *Coordinator) OnTransition(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// SetEmotion moves to target. It returns false with no error when target is
// already current. Without force, a target missing from the transition table
// returns a *TransitionError and leaves the state unchanged.
func (c *Coordinator) SetEmotion(target State, force bool) (bool, error) {
	return c.transition(target, force, SourceCommand)
}

// ResetToIdle forces a transition to Idle.
func (c *Coordinator) ResetToIdle() (bool, error) {
	return c.transition(Idle, true, SourceReset)
}

// EmotionAxes returns the preset axes of the current state.
func (c *Coordinator) EmotionAxes() Axes {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := PresetFor(c.presets, c.current); ok {
		return p.Axes
	}
	return NeutralAxes
}

// Match returns the preset nearest to a.
func (c *Coordinator) Match(a Axes) (Preset, float64, bool) {
	return Nearest(c.presets, a, c.norm)
}

// SetEmotionFromAxes transitions to the state whose preset is nearest to a,
// using the configured match threshold.
func (c *Coordinator) SetEmotionFromAxes(a Axes) (bool, error) {
	return c.SetEmotionFromAxesWithin(a, c.threshold)
}

// SetEmotionFromAxesWithin is SetEmotionFromAxes with an explicit threshold.
// Nothing changes when the nearest preset is farther than threshold, has no
// state, or is already current.
func (c *Coordinator) SetEmotionFromAxesWithin(a Axes, threshold float64) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}
	p, dist, ok := c.Match(a)
	if !ok || dist > threshold || !p.HasState {
		c.logger.Debug("axes matched no state", "nearest", p.Name, "distance", dist, "threshold", threshold)
		return false, nil
	}
	return c.transition(p.State, false, SourceAxes)
}

func (c *Coordinator) transition(target State, force bool, source string) (bool, error) {
	if !target.Valid() {
		return false, fmt.Errorf("%w: %d", ErrUnknownState, int(target))
	}

	c.mu.Lock()
	from := c.current
	if target == from {
		c.mu.Unlock()
		return false, nil
	}
	if !force && !c.trans.Allowed(from, target) {
		c.mu.Unlock()
		return false, &TransitionError{From: from, To: target}
	}

	if c.out != nil {
		if err := c.out.ApplyEmotion(target, c.table[target]); err != nil {
			c.mu.Unlock()
			return false, fmt.Errorf("apply %s: %w", target, err)
		}
	}
	// Hooks only see transitions that reached the output.
	for _, fn := range c.onExit[from] {
		fn(target)
	}
	for _, fn := range c.onEnter[target] {
		fn(from)
	}
	c.current = target

	tr := Transition{From: from, To: target, Forced: force, Source: source, At: c.now()}
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	c.logger.Info("emotion changed", "from", from, "to", target, "forced", force, "source", source)
	for _, fn := range listeners {
		fn(tr)
	}
	return true, nil
}
