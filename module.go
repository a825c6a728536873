package fixtures

import (
	"fmt"
	"sync"
)

// Module is a declarative container exposing an ordered collection of
// fixtures. Modules carry no behaviour of their own; they exist so related
// fixtures can be declared together and batched.
type Module interface {
	Fixtures() []*Fixture
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func() []*Fixture

// Fixtures implements Module.
func (f ModuleFunc) Fixtures() []*Fixture {
	if f == nil {
		return nil
	}
	return f()
}

type moduleList struct {
	fixtures []*Fixture
}

func (m moduleList) Fixtures() []*Fixture {
	return m.fixtures
}

// Declare builds a Module from an ordered fixture list.
func Declare(fixtures ...*Fixture) Module {
	return moduleList{fixtures: append([]*Fixture(nil), fixtures...)}
}

// UnpackModules flattens modules into one ordered fixture sequence,
// preserving inter-module and intra-module order. The same fixture
// appearing in more than one module stays duplicated; deduplication is the
// caller's responsibility, not this layer's.
func UnpackModules(modules ...Module) ([]*Fixture, error) {
	var batch []*Fixture
	for i, module := range modules {
		if module == nil {
			return nil, fmt.Errorf("fixtures: module [%d] is nil", i)
		}
		for j, fixture := range module.Fixtures() {
			if fixture == nil {
				return nil, fmt.Errorf("fixtures: module [%d] entry [%d]: %w", i, j, ErrNilFixture)
			}
			batch = append(batch, fixture)
		}
	}
	return batch, nil
}

// moduleRegistry holds process-wide named modules, populated at package
// init time by fixture-declaring packages.
var moduleRegistry = struct {
	mu      sync.RWMutex
	modules map[string]Module
}{modules: map[string]Module{}}

// RegisterModule stores module under name guarding against duplicates.
func RegisterModule(name string, module Module) error {
	if name == "" {
		return fmt.Errorf("fixtures: module name must not be empty")
	}
	if module == nil {
		return fmt.Errorf("fixtures: module %q is nil", name)
	}
	moduleRegistry.mu.Lock()
	defer moduleRegistry.mu.Unlock()
	if _, exists := moduleRegistry.modules[name]; exists {
		return fmt.Errorf("fixtures: module %q already registered", name)
	}
	moduleRegistry.modules[name] = module
	return nil
}

// LookupModule returns the module registered under name.
func LookupModule(name string) (Module, bool) {
	moduleRegistry.mu.RLock()
	defer moduleRegistry.mu.RUnlock()
	module, ok := moduleRegistry.modules[name]
	return module, ok
}

// UnpackNamed flattens registered modules by name, in the given order.
func UnpackNamed(names ...string) ([]*Fixture, error) {
	modules := make([]Module, 0, len(names))
	for _, name := range names {
		module, ok := LookupModule(name)
		if !ok {
			return nil, fmt.Errorf("fixtures: module %q not registered", name)
		}
		modules = append(modules, module)
	}
	return UnpackModules(modules...)
}
