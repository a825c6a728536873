package fixtures

import (
	"reflect"
	"testing"
)

func TestWalkerLeavesScalarsAlone(t *testing.T) {
	w := &walker{}
	for _, v := range []any{nil, 42, "text", 3.14, true, []byte("raw")} {
		out, err := w.resolveValue(v)
		if err != nil {
			t.Fatalf("unexpected error for %#v: %v", v, err)
		}
		if !reflect.DeepEqual(out, v) {
			t.Fatalf("expected %#v unchanged, got %#v", v, out)
		}
	}
}

func TestWalkerSkipsContainersWithoutReferences(t *testing.T) {
	w := &walker{}
	strs := []string{"a", "b"}
	out, err := w.resolveValue(strs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reflect.ValueOf(out).Pointer() != reflect.ValueOf(strs).Pointer() {
		t.Fatalf("expected []string passed through untouched")
	}

	ints := map[string]int{"a": 1}
	out, err = w.resolveValue(ints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reflect.ValueOf(out).Pointer() != reflect.ValueOf(ints).Pointer() {
		t.Fatalf("expected map[string]int passed through untouched")
	}
}

func TestWalkerResolvesNonStringKeyedMaps(t *testing.T) {
	class := NewClass("Org")
	fixture := class.New(Data{"id": 1})

	w := &walker{}
	input := map[int]any{1: fixture, 2: "plain"}
	out, err := w.resolveValue(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := out.(map[int]any)
	if !ok {
		t.Fatalf("expected rebuilt map[int]any, got %T", out)
	}
	if _, isFixture := got[1].(*Fixture); isFixture {
		t.Fatalf("expected reference substituted under int key")
	}
	if got[2] != "plain" {
		t.Fatalf("expected plain value preserved, got %#v", got[2])
	}
	if _, isFixture := input[1].(*Fixture); !isFixture {
		t.Fatalf("input map was mutated")
	}
}

func TestWalkerBuildsNewContainers(t *testing.T) {
	class := NewClass("Org")
	fixture := class.New(Data{"id": 1})

	input := []any{fixture, "x"}
	w := &walker{}
	out, err := w.resolveValue(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resolved, ok := out.([]any)
	if !ok {
		t.Fatalf("expected resolved []any, got %T", out)
	}
	if reflect.ValueOf(out).Pointer() == reflect.ValueOf(input).Pointer() {
		t.Fatalf("expected a new slice, input was reused")
	}
	if _, isFixture := input[0].(*Fixture); !isFixture {
		t.Fatalf("input slice was mutated")
	}
	if _, isFixture := resolved[0].(*Fixture); isFixture {
		t.Fatalf("expected reference substituted in output")
	}
}

func TestWalkerRecordsReferences(t *testing.T) {
	class := NewClass("Org", WithIdentity("id"))
	a := class.New(Data{"id": 1})
	b := class.New(Data{"id": 2})

	w := &walker{}
	if _, err := w.resolveValue([]any{a, map[string]any{"x": b}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.refs) != 2 {
		t.Fatalf("expected both references recorded, got %v", w.refs)
	}
	if w.refs[0] != "Org(id=1)" || w.refs[1] != "Org(id=2)" {
		t.Fatalf("unexpected reference names: %v", w.refs)
	}
}

func TestCanHoldReference(t *testing.T) {
	cases := []struct {
		value any
		want  bool
	}{
		{[]any{}, true},
		{[]*Fixture{}, true},
		{[][]any{}, true},
		{map[string]any{}, true},
		{map[int]any{}, true},
		{[]string{}, false},
		{[]byte{}, false},
		{map[string]int{}, false},
		{[]map[string][]any{}, true},
	}
	for _, tc := range cases {
		got := canHoldReference(reflect.TypeOf(tc.value), 0)
		if got != tc.want {
			t.Fatalf("canHoldReference(%T) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
