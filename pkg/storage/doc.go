// Package storage defines persistence-facing contracts for fixture
// records, plus a record-backed implementation of the core Storage
// interface.
//
// Responsibilities:
//   - Store persists one Record per insert and locates records by Ref,
//     a collection name plus identity-field values.
//   - RecordStorage adapts a Store to fixtures.Storage for one
//     collection, and supplies the reference resolver that substitutes
//     a referenced fixture by its Ref instead of its full payload.
//   - MemoryStore is the in-memory Store used by tests and examples; it
//     also implements fixtures.TxProvider with a snapshot transaction.
//
// Data flow:
//
//	Class -> Fixture.Load -> RecordStorage -> Store.Insert
//
// Dependency checking:
//
//	A Ref embedded in a record is a foreign reference. Store
//	implementations verify every embedded Ref names a loaded record and
//	reject the insert with ErrDependencyNotLoaded otherwise, which is how
//	the no-recursive-loading rule surfaces at the persistence layer.
//
// Deterministic keys:
//
//	Ref.Identifier() provides a canonical storage key derived from the
//	collection and sorted identity fields, so adapters for real backends
//	can key on it directly.
package storage
