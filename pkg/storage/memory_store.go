package storage

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	fixtures "github.com/goliatone/go-fixtures"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store intended for tests, demos, and
// examples. Records live in per-collection slices and are matched by
// comparing every key field, so no schema registration is needed.
//
// It also implements fixtures.TxProvider with a single snapshot-based
// transaction: Begin captures the current contents, Rollback restores
// them, Commit discards the snapshot.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string][]memoryRecord
	snapshot    map[string][]memoryRecord
	inTx        bool
}

type memoryRecord struct {
	record Record
	meta   Meta
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string][]memoryRecord{}}
}

// Get implements Store. The returned record is a copy.
func (s *MemoryStore) Get(_ context.Context, ref Ref) (Record, Meta, bool, error) {
	if _, err := ref.Identifier(); err != nil {
		return nil, Meta{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if at := s.indexOf(ref); at >= 0 {
		found := s.collections[ref.Collection][at]
		return found.record.clone(), found.meta, true, nil
	}
	return nil, Meta{}, false, nil
}

// Insert implements Store. Every Ref value inside the record, at any
// nesting depth, must name an existing record or the insert fails with
// ErrDependencyNotLoaded.
func (s *MemoryStore) Insert(_ context.Context, collection string, record Record) (Meta, error) {
	if collection == "" {
		return Meta{}, fmt.Errorf("storage: collection must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ref := range collectRefs(record) {
		if s.indexOf(ref) < 0 {
			return Meta{}, fmt.Errorf("%w: %s", ErrDependencyNotLoaded, ref)
		}
	}

	meta := Meta{
		SnapshotID: uuid.NewString(),
		CreatedAt:  time.Now(),
	}
	s.collections[collection] = append(s.collections[collection], memoryRecord{
		record: record.clone(),
		meta:   meta,
	})
	return meta, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, ref Ref) error {
	if _, err := ref.Identifier(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.indexOf(ref)
	if at < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	records := s.collections[ref.Collection]
	s.collections[ref.Collection] = append(records[:at:at], records[at+1:]...)
	return nil
}

// indexOf locates the first record matching every key field of ref.
// Callers hold s.mu.
func (s *MemoryStore) indexOf(ref Ref) int {
	for i, candidate := range s.collections[ref.Collection] {
		if matches(candidate.record, ref.Key) {
			return i
		}
	}
	return -1
}

func matches(record Record, key map[string]any) bool {
	if len(key) == 0 {
		return false
	}
	for field, want := range key {
		got, ok := record[field]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// collectRefs gathers every Ref embedded in v, walking slices and
// string-keyed maps.
func collectRefs(v any) []Ref {
	switch value := v.(type) {
	case Ref:
		return []Ref{value}
	case *Ref:
		if value == nil {
			return nil
		}
		return []Ref{*value}
	case Record:
		return collectRefs(map[string]any(value))
	case fixtures.Data:
		return collectRefs(map[string]any(value))
	case map[string]any:
		var refs []Ref
		for _, nested := range value {
			refs = append(refs, collectRefs(nested)...)
		}
		return refs
	case []any:
		var refs []Ref
		for _, nested := range value {
			refs = append(refs, collectRefs(nested)...)
		}
		return refs
	default:
		return nil
	}
}

// Begin implements fixtures.TxProvider. Only one transaction may be open
// at a time; the memory store models the single transactional scope a
// batch call assumes.
func (s *MemoryStore) Begin(_ context.Context) (fixtures.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inTx {
		return nil, fmt.Errorf("storage: transaction already open")
	}
	snapshot := make(map[string][]memoryRecord, len(s.collections))
	for collection, records := range s.collections {
		snapshot[collection] = append([]memoryRecord(nil), records...)
	}
	s.snapshot = snapshot
	s.inTx = true
	return &memoryTx{store: s}, nil
}

type memoryTx struct {
	store *MemoryStore
	done  bool
}

func (tx *memoryTx) Commit() error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.done {
		return fmt.Errorf("storage: transaction already closed")
	}
	tx.done = true
	tx.store.snapshot = nil
	tx.store.inTx = false
	return nil
}

func (tx *memoryTx) Rollback() error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.done {
		return fmt.Errorf("storage: transaction already closed")
	}
	tx.done = true
	tx.store.collections = tx.store.snapshot
	tx.store.snapshot = nil
	tx.store.inTx = false
	return nil
}
