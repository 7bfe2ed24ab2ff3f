package emotion

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

// mockOutput records applied looks.
type mockOutput struct {
	mu      sync.Mutex
	applied []State
	events  *[]string
	err     error
}

func (m *mockOutput) ApplyEmotion(s State, _ Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.applied = append(m.applied, s)
	if m.events != nil {
		*m.events = append(*m.events, "apply:"+s.String())
	}
	return nil
}

func (m *mockOutput) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}

func newTestCoordinator(t *testing.T, out Output) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(out, DefaultOptions())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

func TestNewCoordinator_RejectsUnknownPattern(t *testing.T) {
	known := map[string]bool{}
	for _, name := range DefaultTable().Patterns() {
		known[name] = true
	}
	has := func(name string) bool { return known[name] }

	opts := DefaultOptions()
	opts.KnownPattern = has
	if _, err := NewCoordinator(&mockOutput{}, opts); err != nil {
		t.Fatalf("default table rejected: %v", err)
	}

	tbl := DefaultTable()
	alert := tbl[Alert]
	alert.Pattern = "strobe"
	tbl[Alert] = alert
	opts.Table = tbl
	_, err := NewCoordinator(&mockOutput{}, opts)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "strobe") {
		t.Errorf("error %q does not name the pattern", err)
	}
}

func TestDefaultTransitions_WellFormed(t *testing.T) {
	tr := DefaultTransitions()
	if err := ValidateTransitions(tr); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	for _, s := range States() {
		if s != Idle && !tr.Allowed(s, Idle) {
			t.Errorf("%s cannot reach idle", s)
		}
		if s != Alert && !tr.Allowed(s, Alert) {
			t.Errorf("%s cannot reach alert", s)
		}
		if tr.Allowed(s, s) {
			t.Errorf("%s lists itself", s)
		}
	}
	if tr.Allowed(Sleepy, Excited) {
		t.Error("sleepy -> excited should not be allowed")
	}
}

func TestValidateTransitions_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Transitions)
	}{
		{"missing row", func(tr Transitions) { delete(tr, Thinking) }},
		{"no idle", func(tr Transitions) { tr[Sad] = []State{Alert, Happy} }},
		{"no alert", func(tr Transitions) { tr[Sad] = []State{Idle, Happy} }},
		{"self loop", func(tr Transitions) { tr[Happy] = append(tr[Happy], Happy) }},
		{"unknown target", func(tr Transitions) { tr[Happy] = append(tr[Happy], State(99)) }},
		{"unknown source", func(tr Transitions) { tr[State(42)] = []State{Idle, Alert} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := DefaultTransitions()
			tt.mutate(tr)
			if err := ValidateTransitions(tr); !errors.Is(err, ErrInvalidTransitions) {
				t.Errorf("err = %v, want ErrInvalidTransitions", err)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, s := range States() {
		got, err := ParseState(strings.ToUpper(s.String()))
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseState("grumpy"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("err = %v, want ErrUnknownState", err)
	}
}

func TestDefaultTable_Valid(t *testing.T) {
	tbl := DefaultTable()
	if err := tbl.Validate(); err != nil {
		t.Fatal(err)
	}
	want := []string{"blend", "breathing", "dream", "pulse", "spin"}
	got := tbl.Patterns()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Patterns() = %v, want %v", got, want)
	}

	delete(tbl, Shy)
	if err := tbl.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("missing entry err = %v", err)
	}
}

func TestParseTable_Overrides(t *testing.T) {
	doc := `
emotions:
  idle:
    color: {r: 10, g: 20, b: 30}
    pattern: cloud
    brightness: 0.5
    speed: 2
    transition_ms: 250
transitions:
  sleepy: [idle, alert, excited]
`
	tbl, tr, err := ParseTable(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	idle := tbl[Idle]
	if idle.Pattern != "cloud" || idle.Color.R != 10 || idle.TransitionMS != 250 {
		t.Errorf("idle = %+v", idle)
	}
	if tbl[Happy] != DefaultTable()[Happy] {
		t.Error("unlisted state lost its default")
	}
	if !tr.Allowed(Sleepy, Excited) {
		t.Error("transition override not applied")
	}
}

func TestParseTable_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown field", "emotions:\n  idle:\n    colour: {r: 1}\n", ErrInvalidConfig},
		{"unknown state", "emotions:\n  grumpy:\n    pattern: solid\n    brightness: 1\n    speed: 1\n", ErrUnknownState},
		{"bad brightness", "emotions:\n  idle:\n    pattern: solid\n    brightness: 2\n    speed: 1\n", ErrInvalidConfig},
		{"zero speed", "emotions:\n  idle:\n    pattern: solid\n    brightness: 1\n    speed: 0\n", ErrInvalidConfig},
		{"transitions lose alert", "transitions:\n  happy: [idle]\n", ErrInvalidTransitions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseTable(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCoordinator_StartsIdle(t *testing.T) {
	c := newTestCoordinator(t, nil)
	if c.Current() != Idle {
		t.Errorf("Current() = %s", c.Current())
	}
	changed, err := c.SetEmotion(Idle, false)
	if changed || err != nil {
		t.Errorf("SetEmotion(idle) = %v, %v; want no change", changed, err)
	}
}

func TestCoordinator_InvalidTransitionLeavesState(t *testing.T) {
	out := &mockOutput{}
	c := newTestCoordinator(t, out)

	if _, err := c.SetEmotion(Sleepy, false); err != nil {
		t.Fatal(err)
	}
	changed, err := c.SetEmotion(Excited, false)
	if changed {
		t.Error("changed = true on invalid transition")
	}
	var te *TransitionError
	if !errors.As(err, &te) || te.From != Sleepy || te.To != Excited {
		t.Fatalf("err = %v, want TransitionError sleepy->excited", err)
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("TransitionError should unwrap to ErrInvalidTransition")
	}
	if c.Current() != Sleepy {
		t.Errorf("Current() = %s, want sleepy", c.Current())
	}
	if out.count() != 1 {
		t.Errorf("applied %d looks, want 1", out.count())
	}
}

func TestCoordinator_ForceTransition(t *testing.T) {
	c := newTestCoordinator(t, &mockOutput{})
	c.SetEmotion(Sleepy, false)

	var got []Transition
	c.OnTransition(func(tr Transition) { got = append(got, tr) })

	changed, err := c.SetEmotion(Excited, true)
	if !changed || err != nil {
		t.Fatalf("forced SetEmotion = %v, %v", changed, err)
	}
	if c.Current() != Excited {
		t.Errorf("Current() = %s, want excited", c.Current())
	}
	if len(got) != 1 || got[0].From != Sleepy || got[0].To != Excited || !got[0].Forced || got[0].Source != SourceCommand {
		t.Errorf("transition events = %+v", got)
	}
}

func TestCoordinator_HookOrder(t *testing.T) {
	var events []string
	out := &mockOutput{events: &events}
	c := newTestCoordinator(t, out)

	c.OnExit(Idle, func(next State) { events = append(events, "exit:idle->"+next.String()) })
	c.OnEnter(Happy, func(prev State) { events = append(events, "enter:happy<-"+prev.String()) })

	if _, err := c.SetEmotion(Happy, false); err != nil {
		t.Fatal(err)
	}
	want := "apply:happy,exit:idle->happy,enter:happy<-idle"
	if got := strings.Join(events, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestCoordinator_OutputErrorLeavesState(t *testing.T) {
	out := &mockOutput{err: errors.New("bus down")}
	c := newTestCoordinator(t, out)
	if _, err := c.SetEmotion(Happy, false); err == nil {
		t.Fatal("expected error")
	}
	if c.Current() != Idle {
		t.Errorf("Current() = %s, want idle", c.Current())
	}
}

func TestCoordinator_OutputErrorSkipsHooks(t *testing.T) {
	out := &mockOutput{err: errors.New("bus down")}
	c := newTestCoordinator(t, out)

	var fired []string
	c.OnExit(Idle, func(next State) { fired = append(fired, "exit:"+next.String()) })
	c.OnEnter(Happy, func(prev State) { fired = append(fired, "enter:"+prev.String()) })
	c.OnTransition(func(tr Transition) { fired = append(fired, "listen:"+tr.To.String()) })

	if _, err := c.SetEmotion(Happy, false); err == nil {
		t.Fatal("expected error")
	}
	if len(fired) != 0 {
		t.Errorf("hooks fired on failed apply: %v", fired)
	}

	out.mu.Lock()
	out.err = nil
	out.mu.Unlock()
	if _, err := c.SetEmotion(Happy, false); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(fired, ","); got != "exit:happy,enter:idle,listen:happy" {
		t.Errorf("hooks after recovery = %s", got)
	}
}

func TestCoordinator_AxisRoundTrip(t *testing.T) {
	c := newTestCoordinator(t, &mockOutput{})
	if _, err := c.SetEmotion(Curious, false); err != nil {
		t.Fatal(err)
	}
	axes := c.EmotionAxes()

	if _, err := c.ResetToIdle(); err != nil {
		t.Fatal(err)
	}
	if c.Current() != Idle {
		t.Fatalf("after reset Current() = %s", c.Current())
	}

	changed, err := c.SetEmotionFromAxes(axes)
	if err != nil || !changed {
		t.Fatalf("SetEmotionFromAxes = %v, %v", changed, err)
	}
	if c.Current() != Curious {
		t.Errorf("Current() = %s, want curious", c.Current())
	}
}

func TestCoordinator_CompoundPresetNeverTransitions(t *testing.T) {
	c := newTestCoordinator(t, &mockOutput{})
	for _, p := range DefaultPresets() {
		if p.HasState {
			continue
		}
		changed, err := c.SetEmotionFromAxesWithin(p.Axes, 10)
		if changed || err != nil {
			t.Errorf("%s: changed=%v err=%v", p.Name, changed, err)
		}
		if c.Current() != Idle {
			t.Errorf("%s moved state to %s", p.Name, c.Current())
		}
	}
}

func TestCoordinator_AxesThresholdAndValidation(t *testing.T) {
	c := newTestCoordinator(t, &mockOutput{})

	far := Axes{Arousal: -1, Valence: 1, Focus: 1, BlinkSpeed: 0.25}
	changed, err := c.SetEmotionFromAxesWithin(far, 0.01)
	if changed || err != nil {
		t.Errorf("far axes: changed=%v err=%v", changed, err)
	}

	_, err = c.SetEmotionFromAxes(Axes{Arousal: 3, BlinkSpeed: 1})
	if !errors.Is(err, ErrInvalidAxes) {
		t.Errorf("err = %v, want ErrInvalidAxes", err)
	}
}

func TestCoordinator_AxesRespectTransitions(t *testing.T) {
	c := newTestCoordinator(t, &mockOutput{})
	c.SetEmotion(Sleepy, false)

	p, _ := PresetFor(DefaultPresets(), Excited)
	changed, err := c.SetEmotionFromAxes(p.Axes)
	if changed || !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("changed=%v err=%v, want invalid transition", changed, err)
	}
}

func TestCoordinator_Concurrent(t *testing.T) {
	out := &mockOutput{}
	c := newTestCoordinator(t, out)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				c.SetEmotion(State((i+j)%int(numStates)), true)
				_ = c.EmotionAxes()
			}
		}()
	}
	wg.Wait()
	if !c.Current().Valid() {
		t.Errorf("Current() = %v", c.Current())
	}
}

func TestAxes_Distance(t *testing.T) {
	a := Axes{Arousal: -1, Valence: 0, Focus: 0, BlinkSpeed: 0.25}
	b := Axes{Arousal: 1, Valence: 0, Focus: 0, BlinkSpeed: 2.0}

	raw := a.Distance(b, NormalizeNone)
	if want := math.Sqrt(4 + 1.75*1.75); math.Abs(raw-want) > 1e-12 {
		t.Errorf("raw distance = %v, want %v", raw, want)
	}
	norm := a.Distance(b, NormalizeRange)
	if want := math.Sqrt2; math.Abs(norm-want) > 1e-12 {
		t.Errorf("range distance = %v, want %v", norm, want)
	}
}

func TestAxes_ValidateAndClamp(t *testing.T) {
	bad := Axes{Arousal: 2, Valence: -3, Focus: math.NaN(), BlinkSpeed: 0.1}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAxes) {
		t.Errorf("Validate() = %v", err)
	}
	got := bad.Clamp()
	want := Axes{Arousal: 1, Valence: -1, Focus: 0, BlinkSpeed: 0.25}
	if got != want {
		t.Errorf("Clamp() = %+v, want %+v", got, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("clamped axes invalid: %v", err)
	}
}

func TestParseNormalization(t *testing.T) {
	for in, want := range map[string]Normalization{"": NormalizeNone, "none": NormalizeNone, "range": NormalizeRange} {
		got, err := ParseNormalization(in)
		if err != nil || got != want {
			t.Errorf("ParseNormalization(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseNormalization("zscore"); err == nil {
		t.Error("expected error")
	}
}

func TestDefaultPresets_Valid(t *testing.T) {
	seen := map[State]bool{}
	for _, p := range DefaultPresets() {
		if err := p.Axes.Validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
		if p.HasState {
			seen[p.State] = true
		}
	}
	for _, s := range States() {
		if !seen[s] {
			t.Errorf("no preset for %s", s)
		}
	}
}
