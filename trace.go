package fixtures

import "encoding/json"

// Trace captures provenance for one fixture's resolution: which fields
// carried references and which resolvers rewrote them. Available after a
// successful Resolve.
type Trace struct {
	Fixture string       `json:"fixture"`
	Fields  []FieldTrace `json:"fields"`
}

// FieldTrace details how a single field reached its resolved value.
type FieldTrace struct {
	Field string `json:"field"`
	// References lists the fixtures substituted anywhere inside this
	// field's value, in traversal order.
	References []string `json:"references,omitempty"`
	// Resolver names the engine of the field resolver that ran, "func"
	// for plain function resolvers, empty when none was registered.
	Resolver string `json:"resolver,omitempty"`
	Expr     string `json:"expr,omitempty"`
}

func (t *Trace) markResolver(binding fieldBinding) {
	for i := range t.Fields {
		if t.Fields[i].Field == binding.field {
			t.Fields[i].Resolver = binding.engine
			t.Fields[i].Expr = binding.expr
			return
		}
	}
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously generated via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Trace returns the resolution trace. The second return is false until the
// fixture resolved successfully.
func (f *Fixture) Trace() (Trace, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != stateResolved {
		return Trace{}, false
	}
	return f.trace, true
}
