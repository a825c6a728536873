package fixtures

// mergeData composes two data mappings, keeping every entry of strong and
// filling missing fields from weak. Nested string-keyed maps merge
// recursively; any other value from strong replaces the weak one outright.
// Both inputs stay untouched.
func mergeData(strong, weak Data) Data {
	if weak == nil {
		return strong.clone()
	}
	out := make(Data, len(strong)+len(weak))
	for k, v := range weak {
		out[k] = v
	}
	for k, v := range strong {
		existing, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		strongMap, strongOK := asDataMap(v)
		weakMap, weakOK := asDataMap(existing)
		if strongOK && weakOK {
			out[k] = mergeData(strongMap, weakMap)
			continue
		}
		out[k] = v
	}
	return out
}

func asDataMap(v any) (Data, bool) {
	switch m := v.(type) {
	case Data:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}
