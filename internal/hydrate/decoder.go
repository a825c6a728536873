package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Option configures a decode pass.
type Option func(*config)

type config struct {
	useNumber     bool
	disallowExtra bool
}

// WithUseNumber enables json.Decoder.UseNumber during decoding.
func WithUseNumber() Option {
	return func(cfg *config) {
		cfg.useNumber = true
	}
}

// WithDisallowUnknownFields rejects payload fields the target has no
// counterpart for.
func WithDisallowUnknownFields() Option {
	return func(cfg *config) {
		cfg.disallowExtra = true
	}
}

// Decode converts a field mapping into a strongly typed struct via a JSON
// round trip.
func Decode[T any](payload map[string]any, opts ...Option) (T, error) {
	var out T
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("hydrate: encode payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if cfg.useNumber {
		dec.UseNumber()
	}
	if cfg.disallowExtra {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("hydrate: decode payload: %w", err)
	}
	return out, nil
}
