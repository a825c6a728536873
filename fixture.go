package fixtures

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Fixture is one declarative unit of storage state: an immutable raw data
// mapping plus the lazily computed, memoized resolved form of that data.
// Identity is pointer identity; two fixtures with equal data are distinct
// entities.
//
// Fixtures move through unresolved -> resolving -> resolved, or -> failed.
// Both terminal states stick for the fixture's lifetime.
type Fixture struct {
	class *Class
	data  Data

	// mu guards state transitions only; it is never held across the
	// recursive walk, so resolving a dependency cannot deadlock.
	mu       sync.Mutex
	state    resolveState
	resolved Data
	err      error
	trace    Trace
}

// Class returns the class this fixture was constructed from.
func (f *Fixture) Class() *Class {
	return f.class
}

// Data returns a copy of the fixture's raw data. Nested string-keyed maps
// and []any slices are copied too, so the raw data cannot be mutated
// through the result.
func (f *Fixture) Data() Data {
	return f.data.deepClone()
}

// Resolved reports whether resolution completed successfully.
func (f *Fixture) Resolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateResolved
}

// Resolve computes the fixture's resolved data: every fixture reference in
// the raw data replaced by its resolved value, then every registered field
// resolver applied. The result is computed once and cached; a failure is
// cached too and returned on every subsequent call.
//
// Resolve is purely a data transformation. It never reads or writes
// storage, and it never loads dependencies.
func (f *Fixture) Resolve() (Data, error) {
	return f.resolve(nil)
}

// resolve is the internal entry point; path names the fixtures already
// resolving on this traversal.
func (f *Fixture) resolve(path []string) (Data, error) {
	f.mu.Lock()
	switch f.state {
	case stateResolved:
		resolved := f.resolved
		f.mu.Unlock()
		return resolved, nil
	case stateFailed:
		err := f.err
		f.mu.Unlock()
		return nil, err
	case stateResolving:
		// Requested again while in progress on this call stack: the
		// reference graph loops back through this fixture.
		cyclePath := append(append([]string(nil), path...), f.String())
		err := &CycleError{Path: cyclePath}
		f.state = stateFailed
		f.err = err
		f.mu.Unlock()
		return nil, err
	}
	f.state = stateResolving
	f.mu.Unlock()

	start := time.Now()
	resolved, trace, err := f.resolveData(append(path, f.String()))

	f.mu.Lock()
	if err != nil {
		f.state = stateFailed
		f.err = err
	} else {
		f.state = stateResolved
		f.resolved = resolved
		f.trace = trace
	}
	f.mu.Unlock()

	f.class.effectiveLogger().Log(LogEvent{
		Op:       OpResolve,
		Fixture:  f.String(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (f *Fixture) resolveData(path []string) (Data, Trace, error) {
	w := &walker{path: path}
	resolved := make(Data, len(f.data))
	trace := Trace{Fixture: f.String()}

	for _, field := range f.data.sortedKeys() {
		w.refs = nil
		value, err := w.resolveValue(f.data[field])
		if err != nil {
			return nil, Trace{}, err
		}
		resolved[field] = value
		trace.Fields = append(trace.Fields, FieldTrace{Field: field, References: w.refs})
	}

	bindings, err := f.class.fieldBindings()
	if err != nil {
		return nil, Trace{}, err
	}
	logger := f.class.effectiveLogger()
	for _, binding := range bindings {
		value, ok := resolved[binding.field]
		if !ok {
			continue
		}
		ctx := FieldContext{
			Value:  value,
			Fields: resolved.clone(),
			Field:  binding.field,
			Class:  f.class.Name(),
		}.withDefaults()

		start := time.Now()
		out, resolveErr := binding.fn(ctx)
		duration := time.Since(start)
		if binding.expr != "" {
			resolveErr = wrapEvaluationError(binding.engine, binding.expr, ctx.label(), resolveErr)
		}
		logger.Log(LogEvent{
			Op:       OpField,
			Fixture:  f.String(),
			Field:    binding.field,
			Engine:   binding.engine,
			Expr:     binding.expr,
			Duration: duration,
			Err:      resolveErr,
		})
		if resolveErr != nil {
			return nil, Trace{}, &ResolutionError{
				Class:   f.class.Name(),
				Field:   binding.field,
				Fixture: f.String(),
				Err:     resolveErr,
			}
		}
		resolved[binding.field] = out
		trace.markResolver(binding)
	}
	return resolved, trace, nil
}

// Exists reports whether the fixture is already present in storage. It
// resolves first, then delegates to the class storage with resolved data.
func (f *Fixture) Exists(ctx context.Context) (bool, error) {
	data, storage, err := f.resolveForStorage()
	if err != nil {
		return false, err
	}
	return storage.Exists(ctx, data)
}

// Load puts the fixture into storage unless it already exists. Dependencies
// are resolved as data only; their storage state must already be in place,
// loading them is the caller's responsibility.
func (f *Fixture) Load(ctx context.Context) error {
	_, err := f.load(ctx)
	return err
}

// load reports whether a record was actually created; an existing record
// makes Load a logged no-op.
func (f *Fixture) load(ctx context.Context) (bool, error) {
	data, storage, err := f.resolveForStorage()
	if err != nil {
		return false, err
	}
	logger := f.class.effectiveLogger()

	exists, err := storage.Exists(ctx, data)
	if err != nil {
		return false, err
	}
	if exists {
		logger.Log(LogEvent{Op: OpSkip, Fixture: f.String()})
		return false, nil
	}

	start := time.Now()
	err = storage.Create(ctx, data)
	logger.Log(LogEvent{Op: OpLoad, Fixture: f.String(), Duration: time.Since(start), Err: err})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unload removes the fixture from storage if it exists. Dependencies are
// never unloaded transitively.
func (f *Fixture) Unload(ctx context.Context) error {
	_, err := f.unload(ctx)
	return err
}

func (f *Fixture) unload(ctx context.Context) (bool, error) {
	data, storage, err := f.resolveForStorage()
	if err != nil {
		return false, err
	}
	logger := f.class.effectiveLogger()

	exists, err := storage.Exists(ctx, data)
	if err != nil {
		return false, err
	}
	if !exists {
		logger.Log(LogEvent{Op: OpSkip, Fixture: f.String()})
		return false, nil
	}

	start := time.Now()
	err = storage.Delete(ctx, data)
	logger.Log(LogEvent{Op: OpUnload, Fixture: f.String(), Duration: time.Since(start), Err: err})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *Fixture) resolveForStorage() (Data, Storage, error) {
	data, err := f.Resolve()
	if err != nil {
		return nil, nil, err
	}
	storage := f.class.effectiveStorage()
	if storage == nil {
		return nil, nil, fmt.Errorf("%w: class %s", ErrNoStorage, f.class.Name())
	}
	return data, storage, nil
}

// String renders Class(field=value, ...) using the class identity fields,
// falling back to every raw field in sorted order.
func (f *Fixture) String() string {
	if f == nil {
		return "<nil>"
	}
	fields := f.class.identityFields()
	if len(fields) == 0 {
		fields = f.data.sortedKeys()
	}
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		value, ok := f.data[field]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", field, formatFieldValue(value)))
	}
	return fmt.Sprintf("%s(%s)", f.class.Name(), strings.Join(parts, ", "))
}

// formatFieldValue keeps String from recursing through referenced fixtures,
// which may form the very cycle resolution is about to report.
func formatFieldValue(v any) string {
	if fx, ok := v.(*Fixture); ok {
		return fmt.Sprintf("%s(...)", fx.class.Name())
	}
	return fmt.Sprintf("%v", v)
}
