package fixtures

import (
	"fmt"
	"sync"
)

// fieldBinding associates one field name with its resolver function plus
// the metadata surfaced in errors and log events.
type fieldBinding struct {
	field  string
	engine string
	expr   string
	fn     func(FieldContext) (any, error)
}

// fieldRegistry holds the resolvers registered on one class, in
// registration order. Registration happens at class-definition time;
// afterwards the registry is read-only, so reads need no coordination
// beyond the guard that keeps definition-time races honest.
type fieldRegistry struct {
	mu       sync.RWMutex
	order    []fieldBinding
	index    map[string]int
	deferred error
}

func newFieldRegistry() *fieldRegistry {
	return &fieldRegistry{index: map[string]int{}}
}

func (r *fieldRegistry) register(binding fieldBinding) error {
	if binding.field == "" {
		return fmt.Errorf("fixtures: field name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.index[binding.field]; exists {
		return fmt.Errorf("fixtures: resolver for field %q already registered", binding.field)
	}
	r.index[binding.field] = len(r.order)
	r.order = append(r.order, binding)
	return nil
}

// deferError parks a registration failure from a ClassOption so it surfaces
// on the first resolution instead of being silently dropped.
func (r *fieldRegistry) deferError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deferred == nil {
		r.deferred = err
	}
}

func (r *fieldRegistry) bindings() ([]fieldBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.deferred != nil {
		return nil, r.deferred
	}
	out := make([]fieldBinding, len(r.order))
	copy(out, r.order)
	return out, nil
}
