package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	fixtures "github.com/goliatone/go-fixtures"
)

func TestRecordClassLoadStoresRefs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgs := NewRecordClass("Org", store, "orgs", []string{"id"})
	users := NewRecordClass("User", store, "users", []string{"email"})

	acme := orgs.New(fixtures.Data{"id": 1, "name": "acme"})
	alice := users.New(fixtures.Data{"email": "alice@acme.test", "org": acme})

	if err := fixtures.LoadFixtures(ctx, []*fixtures.Fixture{acme, alice}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, _, ok, err := store.Get(ctx, Ref{
		Collection: "users",
		Key:        map[string]any{"email": "alice@acme.test"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected user record loaded")
	}
	wantRef := Ref{Collection: "orgs", Key: map[string]any{"id": 1}}
	if !reflect.DeepEqual(record["org"], wantRef) {
		t.Fatalf("expected org substituted by its ref, got %#v", record["org"])
	}
}

func TestRecordClassRejectsUnloadedDependency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgs := NewRecordClass("Org", store, "orgs", []string{"id"})
	users := NewRecordClass("User", store, "users", []string{"email"})

	acme := orgs.New(fixtures.Data{"id": 1})
	alice := users.New(fixtures.Data{"email": "alice@acme.test", "org": acme})

	// the dependent comes first, so its embedded ref names nothing yet
	err := fixtures.LoadFixtures(ctx, []*fixtures.Fixture{alice, acme})
	if !errors.Is(err, ErrDependencyNotLoaded) {
		t.Fatalf("expected ErrDependencyNotLoaded, got %v", err)
	}
	var batchErr *fixtures.BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *fixtures.BatchError, got %T", err)
	}
	if batchErr.Index != 0 {
		t.Fatalf("expected failure at index 0, got %d", batchErr.Index)
	}
}

func TestRecordClassLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgs := NewRecordClass("Org", store, "orgs", []string{"id"})
	acme := orgs.New(fixtures.Data{"id": 1})

	for i := 0; i < 2; i++ {
		if err := acme.Load(ctx); err != nil {
			t.Fatalf("unexpected error on load %d: %v", i, err)
		}
	}
	if len(storeRecords(store, "orgs")) != 1 {
		t.Fatalf("expected a single record after repeated loads")
	}
}

func TestRecordClassUnloadDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgs := NewRecordClass("Org", store, "orgs", []string{"id"})
	users := NewRecordClass("User", store, "users", []string{"email"})

	acme := orgs.New(fixtures.Data{"id": 1})
	alice := users.New(fixtures.Data{"email": "alice@acme.test", "org": acme})

	if err := fixtures.LoadFixtures(ctx, []*fixtures.Fixture{acme, alice}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := alice.Unload(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if exists, _ := acme.Exists(ctx); !exists {
		t.Fatalf("expected dependency to survive dependent unload")
	}
	if exists, _ := alice.Exists(ctx); exists {
		t.Fatalf("expected dependent removed")
	}
}

func TestRecordClassBatchInsideTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	orgs := NewRecordClass("Org", store, "orgs", []string{"id"})
	users := NewRecordClass("User", store, "users", []string{"email"})

	acme := orgs.New(fixtures.Data{"id": 1})
	ghost := orgs.New(fixtures.Data{"id": 2})
	broken := users.New(fixtures.Data{"org": ghost}) // no email identity field

	err := fixtures.InTransaction(ctx, store, func(ctx context.Context) error {
		return fixtures.LoadFixtures(ctx, []*fixtures.Fixture{acme, ghost, broken})
	})
	if err == nil {
		t.Fatalf("expected batch failure")
	}

	// the transaction rolled the partial batch back
	if len(storeRecords(store, "orgs")) != 0 {
		t.Fatalf("expected orgs rolled back, got %d records", len(storeRecords(store, "orgs")))
	}
}

func TestDecodeRecord(t *testing.T) {
	type User struct {
		Email string `json:"email"`
		Age   int    `json:"age"`
	}

	user, err := Decode[User](Record{"email": "alice@acme.test", "age": 33})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "alice@acme.test" || user.Age != 33 {
		t.Fatalf("unexpected decode result %#v", user)
	}

	_, err = Decode[User](Record{"email": "x", "extra": true}, WithDisallowUnknownFields())
	if err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}

func storeRecords(store *MemoryStore, collection string) []memoryRecord {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]memoryRecord(nil), store.collections[collection]...)
}
