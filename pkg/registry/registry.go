// Package registry maps runner names to constructors.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/protflow/pkg/domain"
	"github.com/aretw0/protflow/pkg/runner"
	"github.com/mitchellh/mapstructure"
)

// Factory builds a runner from free-form arguments such as CLI flags or
// configuration values.
type Factory func(args map[string]any) (runner.Runner, error)

type entry struct {
	description string
	factory     Factory
}

// Registry manages the available runner variants.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		runners: make(map[string]entry),
	}
}

// Register adds a runner variant.
// If a variant with the same name exists, it is overwritten.
func (r *Registry) Register(name, description string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[name] = entry{description: description, factory: fn}
}

// New looks up a variant by name and builds it.
func (r *Registry) New(name string, args map[string]any) (runner.Runner, error) {
	r.mu.RLock()
	e, ok := r.runners[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: runner %q (available: %v)", domain.ErrNotFound, name, r.Names())
	}
	run, err := e.factory(args)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner %s: %w", name, err)
	}
	return run, nil
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.runners))
	for n := range r.runners {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Describe returns the description of a variant.
func (r *Registry) Describe(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.runners[name]
	return e.description, ok
}

// Decode fills target from args using its mapstructure tags. Strings are
// converted to numbers and booleans where the target needs them.
func Decode(args map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}
