package hydrate

import (
	"encoding/json"
	"testing"
)

func TestDecode(t *testing.T) {
	type Target struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	out, err := Decode[Target](map[string]any{"name": "x", "count": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "x" || out.Count != 2 {
		t.Fatalf("unexpected result %#v", out)
	}
}

func TestDecodeUseNumber(t *testing.T) {
	type Target struct {
		Value any `json:"value"`
	}

	out, err := Decode[Target](map[string]any{"value": 7}, WithUseNumber())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out.Value.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", out.Value)
	}
}

func TestDecodeDisallowUnknownFields(t *testing.T) {
	type Target struct {
		Name string `json:"name"`
	}

	if _, err := Decode[Target](map[string]any{"name": "x", "extra": 1}, WithDisallowUnknownFields()); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func TestDecodeRejectsUnencodable(t *testing.T) {
	type Target struct{}

	if _, err := Decode[Target](map[string]any{"fn": func() {}}); err == nil {
		t.Fatalf("expected encode failure")
	}
}
