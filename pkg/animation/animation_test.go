package animation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/teslashibe/reachy-eyes/pkg/color"
	"github.com/teslashibe/reachy-eyes/pkg/easing"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func mustAdd(t *testing.T, s *Sequence, at time.Duration, props map[string]Value, e easing.Kind) {
	t.Helper()
	if err := s.AddKeyframe(at, props, e); err != nil {
		t.Fatalf("AddKeyframe(%v): %v", at, err)
	}
}

func fade(from, to color.RGB, e easing.Kind) *Sequence {
	s := NewSequence(false)
	_ = s.AddKeyframe(0, map[string]Value{PropColor: Color(from)}, e)
	_ = s.AddKeyframe(ms(1000), map[string]Value{PropColor: Color(to)}, e)
	return s
}

func TestAddKeyframe_RejectsNonIncreasing(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, ms(100), map[string]Value{PropBrightness: Unit(0)}, easing.Linear)

	for _, at := range []time.Duration{ms(100), ms(50)} {
		err := s.AddKeyframe(at, map[string]Value{PropBrightness: Unit(1)}, easing.Linear)
		if !errors.Is(err, ErrNonIncreasingTime) {
			t.Errorf("AddKeyframe(%v) err = %v, want ErrNonIncreasingTime", at, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("rejected keyframes must not be stored, Len = %d", s.Len())
	}
}

func TestAddKeyframe_RejectsBadInput(t *testing.T) {
	s := NewSequence(false)
	if err := s.AddKeyframe(-ms(1), map[string]Value{PropBrightness: Unit(0)}, easing.Linear); !errors.Is(err, ErrNegativeTime) {
		t.Errorf("negative time err = %v", err)
	}
	if err := s.AddKeyframe(0, nil, easing.Linear); !errors.Is(err, ErrNoProperties) {
		t.Errorf("empty props err = %v", err)
	}

	mustAdd(t, s, 0, map[string]Value{PropBrightness: Unit(0)}, easing.Linear)
	err := s.AddKeyframe(ms(10), map[string]Value{PropBrightness: Color(color.White)}, easing.Linear)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("kind change err = %v, want ErrTypeMismatch", err)
	}
}

func TestValuesAt_TooFewKeyframes(t *testing.T) {
	s := NewSequence(false)
	if _, err := s.ValuesAt(0); !errors.Is(err, ErrTooFewKeyframes) {
		t.Errorf("empty sequence err = %v", err)
	}
	mustAdd(t, s, 0, map[string]Value{PropBrightness: Unit(1)}, easing.Linear)
	if _, err := s.ValuesAt(0); !errors.Is(err, ErrTooFewKeyframes) {
		t.Errorf("single keyframe err = %v", err)
	}
}

func TestValuesAt_MidGraySymmetric(t *testing.T) {
	forward := fade(color.Black, color.White, easing.EaseInOut)
	reverse := fade(color.White, color.Black, easing.EaseInOut)

	a, err := forward.ValuesAt(ms(500))
	if err != nil {
		t.Fatal(err)
	}
	b, err := reverse.ValuesAt(ms(500))
	if err != nil {
		t.Fatal(err)
	}

	ca, cb := a[PropColor].Color, b[PropColor].Color
	if math.Abs(float64(ca.R)-127.5) > 1.5 || math.Abs(float64(ca.R)-float64(cb.R)) > 1 {
		t.Errorf("mid-gray mismatch: forward %v reverse %v", ca, cb)
	}
}

func TestValuesAt_Looping(t *testing.T) {
	s := NewSequence(true)
	mustAdd(t, s, 0, map[string]Value{PropBrightness: Unit(0)}, easing.Linear)
	mustAdd(t, s, ms(2000), map[string]Value{PropBrightness: Unit(1)}, easing.EaseIn)
	mustAdd(t, s, ms(4000), map[string]Value{PropBrightness: Unit(0.2)}, easing.EaseOut)

	pairs := [][2]int{{4000, 0}, {5000, 1000}, {8000, 0}, {10500, 2500}}
	for _, p := range pairs {
		a, _ := s.ValuesAt(ms(p[0]))
		b, _ := s.ValuesAt(ms(p[1]))
		if a[PropBrightness] != b[PropBrightness] {
			t.Errorf("ValuesAt(%d) = %v, ValuesAt(%d) = %v", p[0], a[PropBrightness], p[1], b[PropBrightness])
		}
	}
}

func TestValuesAt_ClampsNonLooping(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, 0, map[string]Value{PropBrightness: Unit(0.1)}, easing.Linear)
	mustAdd(t, s, ms(1000), map[string]Value{PropBrightness: Unit(0.9)}, easing.Linear)

	before, _ := s.ValuesAt(-ms(500))
	if before[PropBrightness].Scalar != 0.1 {
		t.Errorf("before start = %v, want 0.1", before[PropBrightness])
	}
	after, _ := s.ValuesAt(ms(5000))
	if after[PropBrightness].Scalar != 0.9 {
		t.Errorf("past end = %v, want final 0.9", after[PropBrightness])
	}
}

func TestValuesAt_ArrivingEasingGoverns(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, 0, map[string]Value{"x": Scalar(0)}, easing.EaseOut)
	mustAdd(t, s, ms(1000), map[string]Value{"x": Scalar(1)}, easing.EaseIn)

	v, _ := s.ValueAt("x", ms(500))
	want := easing.Ease(easing.EaseIn, 0.5)
	if math.Abs(v.Scalar-want) > 1e-9 {
		t.Errorf("x(500) = %v, want ease_in(0.5) = %v", v.Scalar, want)
	}
}

func TestValuesAt_HoldPrevious(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, 0, map[string]Value{"x": Scalar(2), "y": Scalar(0)}, easing.Linear)
	mustAdd(t, s, ms(1000), map[string]Value{"y": Scalar(10)}, easing.Linear)
	mustAdd(t, s, ms(2000), map[string]Value{"x": Scalar(4), "y": Scalar(20)}, easing.Linear)

	x, _ := s.ValueAt("x", ms(500))
	if x.Scalar != 2 {
		t.Errorf("x held across keyframe without it: got %v, want 2", x.Scalar)
	}
	x, _ = s.ValueAt("x", ms(1500))
	if math.Abs(x.Scalar-3) > 1e-9 {
		t.Errorf("x(1500) = %v, want 3", x.Scalar)
	}
	y, _ := s.ValueAt("y", ms(500))
	if math.Abs(y.Scalar-5) > 1e-9 {
		t.Errorf("y(500) = %v, want 5", y.Scalar)
	}
}

func TestValuesAt_LateProperty(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, 0, map[string]Value{"x": Scalar(0)}, easing.Linear)
	mustAdd(t, s, ms(1000), map[string]Value{"x": Scalar(1), PropPosition: Vec2(1, 1)}, easing.Linear)
	mustAdd(t, s, ms(2000), map[string]Value{"x": Scalar(2), PropPosition: Vec2(3, -1)}, easing.Linear)

	v, _ := s.ValuesAt(ms(200))
	if v[PropPosition].Vec != [2]float64{1, 1} {
		t.Errorf("position before introduction = %v, want held (1,1)", v[PropPosition])
	}
	v, _ = s.ValuesAt(ms(1500))
	if v[PropPosition].Vec != [2]float64{2, 0} {
		t.Errorf("position(1500) = %v, want (2,0)", v[PropPosition])
	}
}

func TestValuesAt_ChannelsClamped(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, 0, map[string]Value{PropBrightness: Unit(-3)}, easing.Linear)
	mustAdd(t, s, ms(100), map[string]Value{PropBrightness: Unit(7)}, easing.Linear)
	for i := 0; i <= 100; i += 10 {
		v, _ := s.ValueAt(PropBrightness, ms(i))
		if v.Scalar < 0 || v.Scalar > 1 {
			t.Fatalf("brightness(%d) = %v out of [0,1]", i, v.Scalar)
		}
	}
}

func TestAddKeyframe_ScalarBrightnessClamped(t *testing.T) {
	s := NewSequence(false)
	mustAdd(t, s, 0, map[string]Value{PropBrightness: Scalar(-2), "gain": Scalar(-2)}, easing.Linear)
	mustAdd(t, s, ms(100), map[string]Value{PropBrightness: Scalar(5), "gain": Scalar(5)}, easing.Linear)
	mustAdd(t, s, ms(200), map[string]Value{PropBrightness: Unit(0.5)}, easing.Linear)

	for i := 0; i <= 200; i += 10 {
		v, _ := s.ValueAt(PropBrightness, ms(i))
		if v.Kind != KindUnit || v.Scalar < 0 || v.Scalar > 1 {
			t.Fatalf("brightness(%d) = %v (%s), want unit in [0,1]", i, v.Scalar, v.Kind)
		}
	}
	if got := s.Keyframes()[1].Properties[PropBrightness].Scalar; got != 1 {
		t.Errorf("stored brightness = %v, want 1", got)
	}
	if g, _ := s.ValueAt("gain", ms(100)); g.Scalar != 5 {
		t.Errorf("unbounded scalar = %v, want 5", g.Scalar)
	}
}

func TestValuesAt_Pure(t *testing.T) {
	s := fade(color.Black, color.White, easing.EaseInOut)
	a, _ := s.ValuesAt(ms(321))
	b, _ := s.ValuesAt(ms(321))
	if a[PropColor] != b[PropColor] {
		t.Error("repeated queries must be identical")
	}
}

// fakeClock drives a Player or FrameTimer deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPlayer_UpdateStopsAtEnd(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	p := NewPlayer(fade(color.Black, color.White, easing.Linear), DefaultPlayerOptions())
	p.now = clk.now

	p.Play()
	if !p.IsPlaying() {
		t.Fatal("expected playing after Play")
	}

	clk.advance(ms(250))
	v, err := p.Update()
	if err != nil {
		t.Fatal(err)
	}
	if got := v[PropColor].Color.R; got < 60 || got > 68 {
		t.Errorf("color at 250ms = %d, want ~64", got)
	}

	clk.advance(ms(800))
	v, _ = p.Update()
	if p.IsPlaying() {
		t.Error("non-looping player should stop past duration")
	}
	if v[PropColor].Color != color.White {
		t.Errorf("final values = %v, want white", v[PropColor])
	}

	v, _ = p.Update()
	if v[PropColor].Color != color.White {
		t.Errorf("stopped player should hold final values, got %v", v[PropColor])
	}
}

func TestPlayer_LoopKeepsPlaying(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	seq := fade(color.Black, color.White, easing.Linear)
	seq.Loop = true
	p := NewPlayer(seq, DefaultPlayerOptions())
	p.now = clk.now

	p.Play()
	clk.advance(ms(3500))
	v, _ := p.Update()
	if !p.IsPlaying() {
		t.Error("looping player stopped")
	}
	if got := v[PropColor].Color.R; got < 124 || got > 132 {
		t.Errorf("color at 3.5s (loop) = %d, want ~128", got)
	}
}

func TestPlayer_PauseResume(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := NewPlayer(fade(color.Black, color.White, easing.Linear), DefaultPlayerOptions())
	p.now = clk.now

	p.Play()
	clk.advance(ms(200))
	p.Pause()
	clk.advance(ms(5000))
	if got := p.Elapsed(); got != ms(200) {
		t.Errorf("paused elapsed = %v, want 200ms", got)
	}
	p.Resume()
	clk.advance(ms(100))
	if got := p.Elapsed(); got != ms(300) {
		t.Errorf("resumed elapsed = %v, want 300ms", got)
	}
	if p.State() != StatePlaying {
		t.Errorf("state = %v", p.State())
	}
}

func TestPlayer_Speed(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	opts := DefaultPlayerOptions()
	opts.Speed = 4
	p := NewPlayer(fade(color.Black, color.White, easing.Linear), opts)
	p.now = clk.now

	p.Play()
	clk.advance(ms(250))
	if _, err := p.Update(); err != nil {
		t.Fatal(err)
	}
	if p.IsPlaying() {
		t.Error("4x speed should finish a 1s sequence after 250ms")
	}
}

func TestPlayer_Run(t *testing.T) {
	opts := DefaultPlayerOptions()
	opts.FrameRate = 200
	opts.Speed = 10
	p := NewPlayer(fade(color.Black, color.White, easing.EaseInOut), opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames := 0
	var last Values
	err := p.Run(ctx, func(v Values, elapsed time.Duration) bool {
		frames++
		last = v
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frames == 0 {
		t.Fatal("expected at least one frame")
	}
	if last[PropColor].Color != color.White {
		t.Errorf("last frame = %v, want white", last[PropColor])
	}
}

func TestPlayer_RunCallbackStops(t *testing.T) {
	seq := fade(color.Black, color.White, easing.Linear)
	seq.Loop = true
	p := NewPlayer(seq, PlayerOptions{FrameRate: 500})

	frames := 0
	err := p.Run(context.Background(), func(Values, time.Duration) bool {
		frames++
		return frames < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if frames != 3 {
		t.Errorf("frames = %d, want 3", frames)
	}
	if p.IsPlaying() {
		t.Error("player should be stopped")
	}
}

func TestPlayer_RunContextCancel(t *testing.T) {
	seq := fade(color.Black, color.White, easing.Linear)
	seq.Loop = true
	p := NewPlayer(seq, PlayerOptions{FrameRate: 100})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Run(ctx, func(Values, time.Duration) bool { return true })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run err = %v, want deadline exceeded", err)
	}
}

func TestFrameTimer_DriftCorrection(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	ft := NewFrameTimer(50, 4)
	ft.now = clk.now
	var slept []time.Duration
	ft.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clk.advance(d)
		return nil
	}
	ctx := context.Background()

	ft.Reset()
	// Frame 1 takes 5ms of work: sleep the remaining 15ms.
	clk.advance(ms(5))
	_ = ft.Wait(ctx)
	// Frame 2 overruns by 10ms (30ms of work).
	clk.advance(ms(30))
	_ = ft.Wait(ctx)
	// Frame 3 takes 2ms: the sleep is shortened to make up the lost 10ms.
	clk.advance(ms(2))
	_ = ft.Wait(ctx)

	want := []time.Duration{ms(15), ms(8)}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, slept[i], want[i])
		}
	}
	if ft.Overruns() != 1 {
		t.Errorf("overruns = %d, want 1", ft.Overruns())
	}
}

func TestFrameTimer_HardResetPastMaxSlip(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	ft := NewFrameTimer(50, 2)
	ft.now = clk.now
	var slept []time.Duration
	ft.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clk.advance(d)
		return nil
	}
	ctx := context.Background()

	ft.Reset()
	clk.advance(ms(500)) // stall far past two frame slots
	_ = ft.Wait(ctx)
	if ft.Resets() != 1 {
		t.Fatalf("resets = %d, want 1", ft.Resets())
	}

	// The next frame gets a full period instead of a catch-up burst.
	_ = ft.Wait(ctx)
	if len(slept) != 1 || slept[0] != ms(20) {
		t.Errorf("slept %v, want [20ms]", slept)
	}
}

func TestFrameTimer_ZeroRateUsesDefault(t *testing.T) {
	ft := NewFrameTimer(0, 0)
	if ft.Period() != 20*time.Millisecond {
		t.Errorf("period = %v, want 20ms", ft.Period())
	}
}
