package tank

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// DefaultEngine is the engine used when none is named.
const DefaultEngine = "sweep"

// Factory builds a tank with the given limits.
type Factory func(minLevel, maxLevel float64, opts ...Option) (Tank, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"sweep": func(minLevel, maxLevel float64, opts ...Option) (Tank, error) {
			t, err := NewSweepTank(minLevel, maxLevel, opts...)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
		"bisect": func(minLevel, maxLevel float64, opts ...Option) (Tank, error) {
			t, err := NewBisectTank(minLevel, maxLevel, opts...)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	}
)

// Register adds a named engine. Names must be unique.
func Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register engine: name and factory are required")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		return fmt.Errorf("register engine: %q already registered", name)
	}
	registry[name] = f
	return nil
}

// New builds a tank with the named engine. An empty name selects DefaultEngine.
func New(name string, minLevel, maxLevel float64, opts ...Option) (Tank, error) {
	if name == "" {
		name = DefaultEngine
	}

	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEngine, name, Names())
	}
	return f(minLevel, maxLevel, opts...)
}

// Names returns the registered engine names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return slices.Sorted(maps.Keys(registry))
}
