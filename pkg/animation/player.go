package animation

import (
	"context"
	"sync"
	"time"
)

// Player handles sequence playback with keyframe interpolation.
type Player struct {
	mu       sync.RWMutex
	seq      *Sequence
	opts     PlayerOptions
	state    PlaybackState
	startAt  time.Time
	pausedAt time.Duration
	stopped  time.Duration // scaled position held while stopped
	timer    *FrameTimer
	now      func() time.Time
}

// NewPlayer creates a player for seq.
func NewPlayer(seq *Sequence, opts PlayerOptions) *Player {
	if !(opts.Speed > 0) {
		opts.Speed = 1.0
	}
	if !(opts.FrameRate > 0) {
		opts.FrameRate = DefaultFrameRate
	}
	return &Player{
		seq:   seq,
		opts:  opts,
		state: StateStopped,
		timer: NewFrameTimer(opts.FrameRate, opts.MaxSlipFrames),
		now:   time.Now,
	}
}

// Sequence returns the sequence being played.
func (p *Player) Sequence() *Sequence { return p.seq }

// Play records the start time and marks the player as playing.
// Calling Play again restarts from the beginning.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startAt = p.now()
	p.pausedAt = 0
	p.stopped = 0
	p.state = StatePlaying
	p.timer.now = p.now
	p.timer.Reset()
}

// elapsedLocked returns speed-scaled time since Play. Caller holds p.mu.
func (p *Player) elapsedLocked() time.Duration {
	var raw time.Duration
	switch p.state {
	case StatePaused:
		raw = p.pausedAt
	case StatePlaying:
		raw = p.pausedAt + p.now().Sub(p.startAt)
	default:
		return p.stopped
	}
	return time.Duration(float64(raw) * p.opts.Speed)
}

// Update returns the values at the current playback position. A non-looping
// sequence stops playing once elapsed time reaches its duration; the values
// returned on that call are the final keyframe's.
func (p *Player) Update() (Values, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := p.elapsedLocked()
	if p.state == StatePlaying && !p.seq.Loop && elapsed >= p.seq.Duration() {
		elapsed = p.seq.Duration()
		p.pausedAt = 0
		p.stopped = elapsed
		p.state = StateStopped
	}
	return p.seq.ValuesAt(elapsed)
}

// IsPlaying reports whether playback is active.
func (p *Player) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == StatePlaying
}

// WaitForNextFrame blocks until the next frame boundary.
func (p *Player) WaitForNextFrame() {
	_ = p.WaitForNextFrameContext(context.Background())
}

// WaitForNextFrameContext blocks until the next frame boundary or ctx is done.
func (p *Player) WaitForNextFrameContext(ctx context.Context) error {
	return p.timer.Wait(ctx)
}

// Run plays the sequence, calling callback once per frame at the configured
// rate. Blocks until a non-looping sequence completes, the callback returns
// false, Stop is called, or ctx is done.
func (p *Player) Run(ctx context.Context, callback PlayerCallback) error {
	if p.IsPlaying() {
		return ErrAlreadyPlaying
	}
	p.Play()

	for {
		p.mu.RLock()
		state := p.state
		p.mu.RUnlock()

		if state == StateStopped {
			return nil
		}

		if state == StatePlaying {
			values, err := p.Update()
			if err != nil {
				p.Stop()
				return err
			}
			if !callback(values, p.Elapsed()) {
				p.Stop()
				return nil
			}
			if !p.IsPlaying() {
				return nil
			}
		}

		if err := p.WaitForNextFrameContext(ctx); err != nil {
			p.Stop()
			return err
		}
	}
}

// Stop halts playback immediately, holding the current position.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateStopped {
		return
	}
	p.stopped = p.elapsedLocked()
	p.state = StateStopped
	p.pausedAt = 0
}

// Pause temporarily stops playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StatePlaying {
		p.pausedAt += p.now().Sub(p.startAt)
		p.state = StatePaused
	}
}

// Resume continues paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StatePaused {
		p.startAt = p.now()
		p.state = StatePlaying
	}
}

// State returns the current playback state.
func (p *Player) State() PlaybackState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Elapsed returns speed-scaled time since Play.
func (p *Player) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.elapsedLocked()
}
