package storage

import (
	"context"
	"fmt"

	fixtures "github.com/goliatone/go-fixtures"
)

// RecordStorage implements fixtures.Storage for classes persisted as
// records in one collection. Records are identified by the configured
// identity fields of their resolved data.
type RecordStorage struct {
	store      Store
	collection string
	identity   []string
}

// NewRecordStorage binds a collection and its identity fields to store.
func NewRecordStorage(store Store, collection string, identity ...string) *RecordStorage {
	return &RecordStorage{
		store:      store,
		collection: collection,
		identity:   append([]string(nil), identity...),
	}
}

// Exists implements fixtures.Storage.
func (s *RecordStorage) Exists(ctx context.Context, data fixtures.Data) (bool, error) {
	ref, err := s.ref(data)
	if err != nil {
		return false, err
	}
	_, _, ok, err := s.store.Get(ctx, ref)
	return ok, err
}

// Create implements fixtures.Storage. Any Ref left in the data by the
// reference resolver must already name a loaded record; the store rejects
// the insert with ErrDependencyNotLoaded otherwise.
func (s *RecordStorage) Create(ctx context.Context, data fixtures.Data) error {
	_, err := s.store.Insert(ctx, s.collection, Record(data))
	return err
}

// Delete implements fixtures.Storage.
func (s *RecordStorage) Delete(ctx context.Context, data fixtures.Data) error {
	ref, err := s.ref(data)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, ref)
}

// Reference is the reference resolver installed on record classes: a
// fixture referenced from another fixture's data is substituted by its
// Ref, so the dependent record stores a foreign reference instead of the
// whole payload.
func (s *RecordStorage) Reference(data fixtures.Data) (any, error) {
	ref, err := s.ref(data)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *RecordStorage) ref(data fixtures.Data) (Ref, error) {
	if len(s.identity) == 0 {
		return Ref{}, fmt.Errorf("storage: collection %q has no identity fields", s.collection)
	}
	key := make(map[string]any, len(s.identity))
	for _, field := range s.identity {
		value, ok := data[field]
		if !ok {
			return Ref{}, fmt.Errorf("storage: collection %q identity field %q missing", s.collection, field)
		}
		key[field] = value
	}
	return Ref{Collection: s.collection, Key: key}, nil
}

// NewRecordClass builds a fixture class persisted to store under
// collection, identified by the given identity fields. Extra class options
// are applied after the storage wiring, so callers can still override the
// reference resolver or attach field resolvers.
func NewRecordClass(name string, store Store, collection string, identity []string, opts ...fixtures.ClassOption) *fixtures.Class {
	rs := NewRecordStorage(store, collection, identity...)
	base := []fixtures.ClassOption{
		fixtures.WithStorage(rs),
		fixtures.WithIdentity(identity...),
		fixtures.WithReferenceResolver(rs.Reference),
	}
	return fixtures.NewClass(name, append(base, opts...)...)
}
