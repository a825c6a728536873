package fixtures

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStorage is returned by Exists, Load, and Unload when neither the
// fixture's class nor any ancestor configured storage operations.
var ErrNoStorage = errors.New("fixtures: storage not configured")

// ErrNoEvaluator is returned when an expression-backed field resolver is
// registered on a class without a usable evaluator.
var ErrNoEvaluator = errors.New("fixtures: evaluator not configured")

// ErrFixtureReference reports a reference resolver that returned another
// fixture instead of a resolved value.
var ErrFixtureReference = errors.New("fixtures: reference resolved to another fixture")

// ErrNilFixture reports a nil fixture inside a batch or module.
var ErrNilFixture = errors.New("fixtures: nil fixture")

var errNilResolver = errors.New("field resolver is nil")

// CycleError reports a fixture that transitively depends on itself through
// raw-data references. Path lists the fixtures on the cycle in traversal
// order, ending with the repeated fixture.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("fixtures: dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// ResolutionError reports a field resolver failure during a fixture's
// resolution.
type ResolutionError struct {
	Class   string
	Field   string
	Fixture string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("fixtures: resolving field %q of %s: %v", e.Field, e.Fixture, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BatchError wraps the error a single fixture raised during a batch load or
// unload. The batch halts at the failing fixture; undoing prior effects is
// the enclosing transaction's job.
type BatchError struct {
	Op      string
	Index   int
	Fixture string
	Err     error
}

func (e *BatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("fixtures: batch %s [%d] %s: %v", e.Op, e.Index, e.Fixture, e.Err)
}

func (e *BatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapResolverRegistration(c *Class, field string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("fixtures: register resolver for %s.%s: %w", c.Name(), field, err)
}
