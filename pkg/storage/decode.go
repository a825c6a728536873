package storage

import "github.com/goliatone/go-fixtures/internal/hydrate"

// DecodeOption configures record decoding.
type DecodeOption = hydrate.Option

// WithUseNumber decodes JSON numbers as json.Number instead of float64.
func WithUseNumber() DecodeOption {
	return hydrate.WithUseNumber()
}

// WithDisallowUnknownFields rejects record fields the target struct does
// not declare.
func WithDisallowUnknownFields() DecodeOption {
	return hydrate.WithDisallowUnknownFields()
}

// Decode hydrates a record into a strongly typed struct, for assertions in
// tests and scripts that read fixture records back.
func Decode[T any](record Record, opts ...DecodeOption) (T, error) {
	return hydrate.Decode[T](record, opts...)
}
