package emotion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/reachy-eyes/pkg/color"
)

// MaxTransitionMS bounds a configured transition.
const MaxTransitionMS = 10000

// Config is the LED look of one state.
type Config struct {
	Color        color.RGB `json:"color" yaml:"color"`
	Pattern      string    `json:"pattern" yaml:"pattern"`
	Brightness   float64   `json:"brightness" yaml:"brightness"`
	Speed        float64   `json:"speed" yaml:"speed"`
	TransitionMS int       `json:"transition_ms" yaml:"transition_ms"`
}

// Transition returns the fade duration into this state.
func (c Config) Transition() time.Duration {
	return time.Duration(c.TransitionMS) * time.Millisecond
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidConfig)
	}
	if !(c.Brightness >= 0 && c.Brightness <= 1) {
		return fmt.Errorf("%w: brightness %v outside [0, 1]", ErrInvalidConfig, c.Brightness)
	}
	if !(c.Speed > 0) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("%w: speed %v must be > 0", ErrInvalidConfig, c.Speed)
	}
	if c.TransitionMS < 0 || c.TransitionMS > MaxTransitionMS {
		return fmt.Errorf("%w: transition_ms %d outside [0, %d]", ErrInvalidConfig, c.TransitionMS, MaxTransitionMS)
	}
	return nil
}

// Table maps every state to its look.
type Table map[State]Config

// DefaultTable returns the stock look for every state.
func DefaultTable() Table {
	return Table{
		Idle:     {Color: color.RGB{R: 0, G: 120, B: 255}, Pattern: "breathing", Brightness: 0.4, Speed: 1.0, TransitionMS: 500},
		Happy:    {Color: color.RGB{R: 255, G: 200, B: 0}, Pattern: "pulse", Brightness: 0.8, Speed: 1.5, TransitionMS: 300},
		Sad:      {Color: color.RGB{R: 40, G: 60, B: 200}, Pattern: "breathing", Brightness: 0.3, Speed: 0.5, TransitionMS: 800},
		Curious:  {Color: color.RGB{R: 0, G: 255, B: 180}, Pattern: "spin", Brightness: 0.7, Speed: 1.2, TransitionMS: 300},
		Alert:    {Color: color.RGB{R: 255, G: 40, B: 0}, Pattern: "pulse", Brightness: 1.0, Speed: 3.0, TransitionMS: 100},
		Sleepy:   {Color: color.RGB{R: 80, G: 40, B: 160}, Pattern: "breathing", Brightness: 0.15, Speed: 0.3, TransitionMS: 1000},
		Excited:  {Color: color.RGB{R: 255, G: 80, B: 200}, Pattern: "spin", Brightness: 1.0, Speed: 2.5, TransitionMS: 200},
		Thinking: {Color: color.RGB{R: 150, G: 100, B: 255}, Pattern: "dream", Brightness: 0.6, Speed: 0.8, TransitionMS: 400},
		Playful:  {Color: color.RGB{R: 255, G: 120, B: 40}, Pattern: "blend", Brightness: 0.85, Speed: 1.8, TransitionMS: 250},
		Shy:      {Color: color.RGB{R: 255, G: 150, B: 170}, Pattern: "breathing", Brightness: 0.35, Speed: 0.7, TransitionMS: 600},
	}
}

// Validate checks that every state has a valid entry.
func (t Table) Validate() error {
	for _, s := range States() {
		c, ok := t[s]
		if !ok {
			return fmt.Errorf("%w: no entry for %s", ErrInvalidConfig, s)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
	}
	for s := range t {
		if !s.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownState, int(s))
		}
	}
	return nil
}

// CheckPatterns reports the first state whose pattern known rejects.
func (t Table) CheckPatterns(known func(name string) bool) error {
	for _, s := range States() {
		c, ok := t[s]
		if ok && !known(c.Pattern) {
			return fmt.Errorf("%w: %s uses unregistered pattern %q", ErrInvalidConfig, s, c.Pattern)
		}
	}
	return nil
}

// Patterns returns the distinct pattern names the table uses, sorted.
func (t Table) Patterns() []string {
	seen := make(map[string]struct{}, len(t))
	for _, c := range t {
		seen[c.Pattern] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Clone returns a copy of t.
func (t Table) Clone() Table { return maps.Clone(t) }

// file is the on-disk table document.
type file struct {
	Emotions    map[string]Config   `yaml:"emotions"`
	Transitions map[string][]string `yaml:"transitions"`
}

// LoadTable reads a table file. Entries override DefaultTable and
// DefaultTransitions state by state; the merged result must validate.
func LoadTable(path string) (Table, Transitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open emotion table: %w", err)
	}
	defer f.Close()
	return ParseTable(f)
}

// ParseTable is LoadTable for an open reader.
func ParseTable(r io.Reader) (Table, Transitions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read emotion table: %w", err)
	}

	var doc file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	table := DefaultTable()
	for name, c := range doc.Emotions {
		s, err := ParseState(name)
		if err != nil {
			return nil, nil, err
		}
		table[s] = c
	}
	if err := table.Validate(); err != nil {
		return nil, nil, err
	}

	trans := DefaultTransitions()
	for name, targets := range doc.Transitions {
		from, err := ParseState(name)
		if err != nil {
			return nil, nil, err
		}
		row := make([]State, 0, len(targets))
		for _, tn := range targets {
			to, err := ParseState(tn)
			if err != nil {
				return nil, nil, err
			}
			row = append(row, to)
		}
		trans[from] = row
	}
	if err := ValidateTransitions(trans); err != nil {
		return nil, nil, err
	}
	return table, trans, nil
}
