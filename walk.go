package fixtures

import (
	"fmt"
	"reflect"
)

var (
	fixturePtrType = reflect.TypeOf((*Fixture)(nil))
	anyType        = reflect.TypeOf((*any)(nil)).Elem()
)

// walker substitutes fixture references inside arbitrary nested values.
// It is purely a data transformation: it never touches storage, and it
// always builds new slices and maps, leaving the input untouched.
//
// path carries the fixtures currently being resolved on this traversal so
// cycle errors can name the full cycle. refs accumulates the references
// encountered since the last reset, feeding the resolution trace.
type walker struct {
	path []string
	refs []string
}

// resolveValue walks v depth-first. Fixtures resolve to their reference
// value, slices and maps of any key kind are rebuilt with resolved
// elements, and everything else passes through unchanged. Map keys are
// never searched; structs are opaque.
func (w *walker) resolveValue(v any) (any, error) {
	if fx, ok := v.(*Fixture); ok {
		return w.resolveReference(fx)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if !canHoldReference(rv.Type().Elem(), 0) {
			return v, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			resolved, err := w.resolveValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case reflect.Map:
		t := rv.Type()
		if !canHoldReference(t.Elem(), 0) {
			return v, nil
		}
		if t.Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				resolved, err := w.resolveValue(iter.Value().Interface())
				if err != nil {
					return nil, err
				}
				out[iter.Key().String()] = resolved
			}
			return out, nil
		}
		out := reflect.MakeMapWithSize(reflect.MapOf(t.Key(), anyType), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			resolved, err := w.resolveValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			value := reflect.ValueOf(resolved)
			if !value.IsValid() {
				value = reflect.Zero(anyType)
			}
			out.SetMapIndex(iter.Key(), value)
		}
		return out.Interface(), nil
	default:
		return v, nil
	}
}

func (w *walker) resolveReference(fx *Fixture) (any, error) {
	if fx == nil {
		return nil, ErrNilFixture
	}
	w.refs = append(w.refs, fx.String())

	data, err := fx.resolve(w.path)
	if err != nil {
		return nil, err
	}

	resolver := fx.class.effectiveReference()
	if resolver == nil {
		return data, nil
	}
	out, err := resolver(data)
	if err != nil {
		return nil, fmt.Errorf("fixtures: reference %s: %w", fx, err)
	}
	if _, ok := out.(*Fixture); ok {
		return nil, fmt.Errorf("%w: %s", ErrFixtureReference, fx)
	}
	return out, nil
}

// canHoldReference reports whether a value of type t could contain a
// fixture reference, so the walker can skip rebuilding containers such as
// []string or []byte. The depth cap guards against self-referential type
// definitions.
func canHoldReference(t reflect.Type, depth int) bool {
	if depth > 8 {
		return true
	}
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer:
		return t == fixturePtrType
	case reflect.Slice, reflect.Array:
		return canHoldReference(t.Elem(), depth+1)
	case reflect.Map:
		return canHoldReference(t.Elem(), depth+1)
	default:
		return false
	}
}
