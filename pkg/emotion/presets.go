package emotion

import "math"

// Preset is a named point in axis space. HasState is false for compound
// moods that have no discrete state; matching one never triggers a
// transition.
type Preset struct {
	Name     string `json:"name" yaml:"name"`
	State    State  `json:"state" yaml:"state"`
	HasState bool   `json:"has_state" yaml:"has_state"`
	Axes     Axes   `json:"axes" yaml:"axes"`
}

func statePreset(s State, a Axes) Preset {
	return Preset{Name: s.String(), State: s, HasState: true, Axes: a}
}

func compoundPreset(name string, a Axes) Preset {
	return Preset{Name: name, Axes: a}
}

// DefaultPresets returns the axes of every state plus the compound moods.
func DefaultPresets() []Preset {
	return []Preset{
		statePreset(Idle, Axes{Arousal: 0, Valence: 0, Focus: 0.5, BlinkSpeed: 1.0}),
		statePreset(Happy, Axes{Arousal: 0.5, Valence: 0.8, Focus: 0.5, BlinkSpeed: 1.2}),
		statePreset(Sad, Axes{Arousal: -0.5, Valence: -0.7, Focus: 0.3, BlinkSpeed: 0.6}),
		statePreset(Curious, Axes{Arousal: 0.4, Valence: 0.3, Focus: 0.9, BlinkSpeed: 1.3}),
		statePreset(Alert, Axes{Arousal: 0.9, Valence: -0.2, Focus: 1.0, BlinkSpeed: 0.4}),
		statePreset(Sleepy, Axes{Arousal: -0.9, Valence: 0.1, Focus: 0.1, BlinkSpeed: 0.3}),
		statePreset(Excited, Axes{Arousal: 1.0, Valence: 0.9, Focus: 0.6, BlinkSpeed: 1.8}),
		statePreset(Thinking, Axes{Arousal: 0.1, Valence: 0, Focus: 0.8, BlinkSpeed: 0.7}),
		statePreset(Playful, Axes{Arousal: 0.7, Valence: 0.85, Focus: 0.4, BlinkSpeed: 1.6}),
		statePreset(Shy, Axes{Arousal: -0.2, Valence: 0.3, Focus: 0.4, BlinkSpeed: 1.5}),
		compoundPreset("affectionate", Axes{Arousal: 0.2, Valence: 0.9, Focus: 0.6, BlinkSpeed: 0.9}),
		compoundPreset("empathetic", Axes{Arousal: -0.1, Valence: 0.4, Focus: 0.7, BlinkSpeed: 0.9}),
		compoundPreset("mischievous", Axes{Arousal: 0.6, Valence: 0.5, Focus: 0.7, BlinkSpeed: 1.4}),
	}
}

// Nearest returns the preset closest to a and its distance. ok is false when
// presets is empty. Ties keep the earlier preset.
func Nearest(presets []Preset, a Axes, n Normalization) (best Preset, dist float64, ok bool) {
	dist = math.Inf(1)
	for _, p := range presets {
		if d := a.Distance(p.Axes, n); d < dist {
			best, dist, ok = p, d, true
		}
	}
	return best, dist, ok
}

// PresetFor returns the preset of state s.
func PresetFor(presets []Preset, s State) (Preset, bool) {
	for _, p := range presets {
		if p.HasState && p.State == s {
			return p, true
		}
	}
	return Preset{}, false
}
