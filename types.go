package fixtures

import (
	"sort"
	"time"
)

// Data is the field mapping a fixture is declared with. Values may be
// scalars, slices, maps, or other fixtures at any nesting depth.
type Data map[string]any

// clone returns a shallow copy of d so callers can keep mutating their
// own map after handing it to a fixture.
func (d Data) clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// deepClone copies d along with every nested string-keyed map and []any
// slice. Other values, fixtures included, are shared: a fixture reference
// is identity, not payload.
func (d Data) deepClone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = deepCloneValue(v)
	}
	return out
}

func deepCloneValue(v any) any {
	switch value := v.(type) {
	case Data:
		return value.deepClone()
	case map[string]any:
		return map[string]any(Data(value).deepClone())
	case []any:
		out := make([]any, len(value))
		for i, nested := range value {
			out[i] = deepCloneValue(nested)
		}
		return out
	default:
		return v
	}
}

func (d Data) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveState tracks a fixture through its resolution lifecycle. Both
// terminal states are permanent: raw data is immutable, so retrying a
// failed resolution would reproduce the same failure.
type resolveState int

const (
	stateUnresolved resolveState = iota
	stateResolving
	stateResolved
	stateFailed
)

func (s resolveState) String() string {
	switch s {
	case stateUnresolved:
		return "unresolved"
	case stateResolving:
		return "resolving"
	case stateResolved:
		return "resolved"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FieldResolver transforms one fully graph-resolved field value into its
// replacement. Resolvers must be pure functions of their input; they run
// only after every raw entry of the fixture has been resolved.
type FieldResolver func(value any) (any, error)

// ReferenceResolver maps a referenced fixture's resolved data to the value
// substituted into the referring fixture. When nil the resolved data map
// itself is substituted.
type ReferenceResolver func(data Data) (any, error)

// FieldContext carries the inputs available to an expression-backed field
// resolver.
type FieldContext struct {
	// Value is the graph-resolved value of the field being transformed.
	Value any
	// Fields holds every graph-resolved field of the fixture, including
	// the one being transformed.
	Fields Data
	// Field and Class identify the binding for error and log messages.
	Field string
	Class string

	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx FieldContext) withDefaultNow() FieldContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx FieldContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx FieldContext) withDefaultMaps() FieldContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx FieldContext) withDefaults() FieldContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// label identifies the binding in evaluator errors and log events.
func (ctx FieldContext) label() string {
	switch {
	case ctx.Class != "" && ctx.Field != "":
		return ctx.Class + "." + ctx.Field
	case ctx.Field != "":
		return ctx.Field
	default:
		return "unknown"
	}
}

// Evaluator executes field-resolver expressions against a field context.
type Evaluator interface {
	Evaluate(ctx FieldContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledResolver, error)
}

// CompiledResolver represents a reusable field-resolver expression program.
type CompiledResolver interface {
	Evaluate(ctx FieldContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
