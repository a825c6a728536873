package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a ref names no existing record.
var ErrNotFound = errors.New("storage: record not found")

// ErrDependencyNotLoaded reports a record referencing another record that
// is not present in storage. Under the no-recursive-loading rule this is
// expected behaviour, not a bug: callers must load dependencies first.
var ErrDependencyNotLoaded = errors.New("storage: dependency not loaded")

// Record is one persisted record's field mapping.
type Record map[string]any

func (r Record) clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Ref identifies one record by collection and identity-field values. A Ref
// stored inside another record acts as a foreign reference and is checked
// on insert.
type Ref struct {
	Collection string         `json:"collection"`
	Key        map[string]any `json:"key"`
}

// Identifier derives a deterministic string key for the ref.
func (r Ref) Identifier() (string, error) {
	if r.Collection == "" {
		return "", fmt.Errorf("storage: ref collection must not be empty")
	}
	if len(r.Key) == 0 {
		return "", fmt.Errorf("storage: ref key must not be empty")
	}
	fields := make([]string, 0, len(r.Key))
	for field := range r.Key {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", field, r.Key[field]))
	}
	return fmt.Sprintf("%s/%s", r.Collection, strings.Join(parts, "&")), nil
}

func (r Ref) String() string {
	id, err := r.Identifier()
	if err != nil {
		return fmt.Sprintf("%s(invalid)", r.Collection)
	}
	return id
}

// Meta is storage-owned metadata attached to each persisted record.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Store persists fixture records for one backend. Implementations must
// treat records as immutable snapshots: Insert copies, Get returns copies.
type Store interface {
	Get(ctx context.Context, ref Ref) (Record, Meta, bool, error)
	Insert(ctx context.Context, collection string, record Record) (Meta, error)
	Delete(ctx context.Context, ref Ref) error
}
