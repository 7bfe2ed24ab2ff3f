package animation

import (
	"context"
	"time"
)

// DefaultFrameRate is used when a non-positive rate is requested.
const DefaultFrameRate = 50.0

// FrameTimer paces a loop at a fixed rate against the monotonic clock.
//
// Deadlines advance by exactly one period per frame, so a frame that overruns
// its slot shortens the following sleep instead of pushing every later frame
// back. Once the loop falls more than maxSlip behind, the schedule restarts
// from now rather than bursting through the backlog.
type FrameTimer struct {
	period  time.Duration
	maxSlip time.Duration
	next    time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	overruns uint64
	resets   uint64
}

// NewFrameTimer creates a timer for fps frames per second. A frame may slip
// by up to maxSlipFrames periods before the schedule is hard-reset.
func NewFrameTimer(fps float64, maxSlipFrames int) *FrameTimer {
	if !(fps > 0) {
		fps = DefaultFrameRate
	}
	if maxSlipFrames < 1 {
		maxSlipFrames = 1
	}
	period := time.Duration(float64(time.Second) / fps)
	if period <= 0 {
		period = time.Nanosecond
	}
	return &FrameTimer{
		period:  period,
		maxSlip: time.Duration(maxSlipFrames) * period,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Period returns the frame period.
func (f *FrameTimer) Period() time.Duration { return f.period }

// Reset starts a new schedule with the next boundary one period after now.
func (f *FrameTimer) Reset() {
	f.next = f.now().Add(f.period)
}

// Overruns returns how many frames started after their deadline.
func (f *FrameTimer) Overruns() uint64 { return f.overruns }

// Resets returns how many times the schedule was hard-reset.
func (f *FrameTimer) Resets() uint64 { return f.resets }

// Wait blocks until the next frame boundary or until ctx is done.
func (f *FrameTimer) Wait(ctx context.Context) error {
	now := f.now()
	if f.next.IsZero() {
		f.next = now.Add(f.period)
	}

	delay := f.next.Sub(now)
	if delay > 0 {
		f.next = f.next.Add(f.period)
		return f.sleep(ctx, delay)
	}

	f.overruns++
	if -delay > f.maxSlip {
		f.resets++
		f.next = now.Add(f.period)
	} else {
		f.next = f.next.Add(f.period)
	}
	return ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
