package pattern

import (
	"fmt"
	"slices"
	"sync"
)

// Options carries per-instance construction parameters that are not part of
// Config.
type Options struct {
	// Seed drives noise fields and particle spawning.
	Seed uint64
}

// Constructor builds a pattern.
type Constructor func(numPixels int, cfg Config, opts Options) (Pattern, error)

// Registry maps pattern names to constructors. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry holding the built-in patterns.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	for name, ctor := range builtins() {
		r.ctors[name] = ctor
	}
	return r
}

func builtins() map[string]Constructor {
	return map[string]Constructor{
		KindSolid.String(): func(n int, cfg Config, _ Options) (Pattern, error) {
			return NewSolid(n, cfg)
		},
		KindBreathing.String(): func(n int, cfg Config, _ Options) (Pattern, error) {
			return NewBreathing(n, cfg)
		},
		KindPulse.String(): func(n int, cfg Config, _ Options) (Pattern, error) {
			return NewPulse(n, cfg)
		},
		KindSpin.String(): func(n int, cfg Config, _ Options) (Pattern, error) {
			return NewSpin(n, cfg)
		},
		KindFire.String(): func(n int, cfg Config, o Options) (Pattern, error) {
			return NewFire(n, cfg, o.Seed)
		},
		KindCloud.String(): func(n int, cfg Config, o Options) (Pattern, error) {
			return NewCloud(n, cfg, o.Seed)
		},
		KindDream.String(): func(n int, cfg Config, o Options) (Pattern, error) {
			return NewDream(n, cfg, o.Seed)
		},
		KindBlend.String(): func(n int, cfg Config, o Options) (Pattern, error) {
			return NewBlend(n, cfg, o.Seed)
		},
	}
}

// Register adds a constructor under name.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("pattern: register needs a name and constructor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicatePattern, name)
	}
	r.ctors[name] = ctor
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the pattern registered under name.
func (r *Registry) New(name string, numPixels int, cfg Config, opts Options) (Pattern, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}
	return ctor(numPixels, cfg, opts)
}
