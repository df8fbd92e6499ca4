package scoring

import (
	"fmt"
	"sort"
)

// DefaultEngine is used when no engine is named.
const DefaultEngine = "balanced"

// Registry is a closed, explicitly built set of engines.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry registers engines under their names. A later engine with the
// same name replaces an earlier one.
func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[string]Engine, len(engines))}
	for _, e := range engines {
		r.engines[e.Name()] = e
	}
	return r
}

// DefaultRegistry holds every engine shipped with the advisor.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPerCategoryEngine(),
		NewBalancedEngine(),
		NewReferenceEngine(),
	)
}

// Get returns the engine registered as name.
func (r *Registry) Get(name string) (Engine, error) {
	e, ok := r.engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEngine, name, r.Names())
	}
	return e, nil
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
