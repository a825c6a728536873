package fixtures

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestLoadFixturesInOrder(t *testing.T) {
	store := newFakeStorage()
	class := NewClass("Account", WithStorage(store))

	capture := &CaptureHook{}
	batch := []*Fixture{
		class.New(Data{"id": 1}),
		class.New(Data{"id": 2}),
		class.New(Data{"id": 3}),
	}
	if err := LoadFixtures(context.Background(), batch, WithHooks(capture)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.creates != 3 {
		t.Fatalf("expected 3 creates, got %d", store.creates)
	}
	if len(capture.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(capture.Events))
	}
	for i, event := range capture.Events {
		if event.Index != i {
			t.Fatalf("event %d carries index %d", i, event.Index)
		}
		if event.Verb != OpLoad {
			t.Fatalf("event %d verb = %q, want %q", i, event.Verb, OpLoad)
		}
		if event.Class != "Account" {
			t.Fatalf("event %d class = %q", i, event.Class)
		}
	}
}

func TestLoadFixturesHaltsOnFailure(t *testing.T) {
	good := newFakeStorage()
	bad := newFakeStorage()
	bad.createErr = fmt.Errorf("backend unavailable")

	first := NewClass("First", WithStorage(good)).New(Data{"id": 1})
	second := NewClass("Second", WithStorage(bad)).New(Data{"id": 2})
	third := NewClass("Third", WithStorage(good)).New(Data{"id": 3})

	err := LoadFixtures(context.Background(), []*Fixture{first, second, third})
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %T: %v", err, err)
	}
	if batchErr.Op != OpLoad {
		t.Fatalf("expected load op, got %q", batchErr.Op)
	}
	if batchErr.Index != 1 {
		t.Fatalf("expected failure at index 1, got %d", batchErr.Index)
	}
	// the fixture after the failure must not have been touched
	if good.creates != 1 {
		t.Fatalf("expected 1 create before the halt, got %d", good.creates)
	}
}

func TestLoadFixturesEmitsSkipForExisting(t *testing.T) {
	store := newFakeStorage()
	store.existing["1"] = true
	class := NewClass("Account", WithStorage(store))

	capture := &CaptureHook{}
	batch := []*Fixture{
		class.New(Data{"id": 1}),
		class.New(Data{"id": 2}),
	}
	if err := LoadFixtures(context.Background(), batch, WithHooks(capture)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.creates != 1 {
		t.Fatalf("expected 1 create, got %d", store.creates)
	}
	verbs := []string{capture.Events[0].Verb, capture.Events[1].Verb}
	if verbs[0] != OpSkip || verbs[1] != OpLoad {
		t.Fatalf("expected [skip load], got %v", verbs)
	}
}

func TestLoadFixturesRejectsNilFixture(t *testing.T) {
	err := LoadFixtures(context.Background(), []*Fixture{nil})
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrNilFixture) {
		t.Fatalf("expected ErrNilFixture, got %v", err)
	}
}

func TestUnloadFixturesResolvesEverythingFirst(t *testing.T) {
	store := newFakeStorage()
	store.existing["1"] = true
	loaded := NewClass("Account", WithStorage(store)).New(Data{"id": 1})

	broken := NewClass("Broken",
		WithStorage(store),
		WithFieldResolver("id", func(any) (any, error) {
			return nil, fmt.Errorf("cannot resolve")
		}),
	).New(Data{"id": 2})

	err := UnloadFixtures(context.Background(), []*Fixture{loaded, broken})
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %T: %v", err, err)
	}
	if batchErr.Op != OpUnload {
		t.Fatalf("expected unload op, got %q", batchErr.Op)
	}
	if batchErr.Index != 1 {
		t.Fatalf("expected failure at index 1, got %d", batchErr.Index)
	}
	// resolution fails before any deletion happens
	if store.deletes != 0 {
		t.Fatalf("expected no deletes, got %d", store.deletes)
	}
}

func TestUnloadFixturesEmitsSkipForMissing(t *testing.T) {
	store := newFakeStorage()
	store.existing["1"] = true
	class := NewClass("Account", WithStorage(store))

	capture := &CaptureHook{}
	batch := []*Fixture{
		class.New(Data{"id": 1}),
		class.New(Data{"id": 2}),
	}
	if err := UnloadFixtures(context.Background(), batch, WithHooks(capture)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.deletes != 1 {
		t.Fatalf("expected 1 delete, got %d", store.deletes)
	}
	verbs := []string{capture.Events[0].Verb, capture.Events[1].Verb}
	if verbs[0] != OpUnload || verbs[1] != OpSkip {
		t.Fatalf("expected [unload skip], got %v", verbs)
	}
}

func TestBatchMetadataAndIDPropagate(t *testing.T) {
	store := newFakeStorage()
	class := NewClass("Account", WithStorage(store))

	capture := &CaptureHook{}
	batch := []*Fixture{
		class.New(Data{"id": 1}),
		class.New(Data{"id": 2}),
	}
	err := LoadFixtures(context.Background(), batch,
		WithHooks(capture),
		WithBatchMetadata(map[string]any{"source": "seed"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(capture.Events))
	}
	if capture.Events[0].BatchID == "" {
		t.Fatalf("expected a batch id")
	}
	if capture.Events[0].BatchID != capture.Events[1].BatchID {
		t.Fatalf("batch id differs across events")
	}
	for _, event := range capture.Events {
		if event.Metadata["source"] != "seed" {
			t.Fatalf("expected metadata on event, got %#v", event.Metadata)
		}
	}
}

func TestHookFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStorage()
	class := NewClass("Account", WithStorage(store))

	failing := HookFunc(func(context.Context, Event) error {
		return fmt.Errorf("sink offline")
	})
	batch := []*Fixture{
		class.New(Data{"id": 1}),
		class.New(Data{"id": 2}),
	}
	err := LoadFixtures(context.Background(), batch, WithHooks(failing))
	if err == nil {
		t.Fatalf("expected joined hook error")
	}
	if store.creates != 2 {
		t.Fatalf("expected every fixture loaded despite hook failures, got %d creates", store.creates)
	}
}

func TestBatchErrorCarriesHookFailures(t *testing.T) {
	good := newFakeStorage()
	bad := newFakeStorage()
	bad.createErr = fmt.Errorf("backend unavailable")

	failing := HookFunc(func(context.Context, Event) error {
		return fmt.Errorf("sink offline")
	})
	batch := []*Fixture{
		NewClass("First", WithStorage(good)).New(Data{"id": 1}),
		NewClass("Second", WithStorage(bad)).New(Data{"id": 2}),
	}
	err := LoadFixtures(context.Background(), batch, WithHooks(failing))
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %T: %v", err, err)
	}
	if batchErr.Index != 1 {
		t.Fatalf("expected failure at index 1, got %d", batchErr.Index)
	}
	if !strings.Contains(err.Error(), "sink offline") {
		t.Fatalf("expected hook failure reported alongside the batch error, got %v", err)
	}
}

func TestUnpackModulesPreservesOrder(t *testing.T) {
	class := NewClass("Account")
	a := class.New(Data{"id": 1})
	b := class.New(Data{"id": 2})
	c := class.New(Data{"id": 3})

	batch, err := UnpackModules(Declare(a, b), Declare(c, a))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []*Fixture{a, b, c, a}
	if len(batch) != len(want) {
		t.Fatalf("expected %d fixtures, got %d", len(want), len(batch))
	}
	for i := range want {
		if batch[i] != want[i] {
			t.Fatalf("fixture order diverges at %d", i)
		}
	}
}

func TestUnpackModulesRejectsNilModule(t *testing.T) {
	if _, err := UnpackModules(nil); err == nil {
		t.Fatalf("expected error for nil module")
	}
}

func TestUnpackModulesRejectsNilFixture(t *testing.T) {
	_, err := UnpackModules(Declare(nil))
	if err == nil {
		t.Fatalf("expected error for nil fixture")
	}
	if !errors.Is(err, ErrNilFixture) {
		t.Fatalf("expected ErrNilFixture, got %v", err)
	}
}

func TestModuleFunc(t *testing.T) {
	class := NewClass("Account")
	a := class.New(Data{"id": 1})

	module := ModuleFunc(func() []*Fixture { return []*Fixture{a} })
	batch, err := UnpackModules(module)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 1 || batch[0] != a {
		t.Fatalf("unexpected batch %#v", batch)
	}
}

func TestRegisterModuleGuardsDuplicates(t *testing.T) {
	class := NewClass("Account")
	module := Declare(class.New(Data{"id": 1}))

	if err := RegisterModule("batch_test.accounts", module); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RegisterModule("batch_test.accounts", module); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if _, ok := LookupModule("batch_test.accounts"); !ok {
		t.Fatalf("expected module to stay registered")
	}
}

func TestUnpackNamed(t *testing.T) {
	class := NewClass("Account")
	a := class.New(Data{"id": 1})
	b := class.New(Data{"id": 2})

	if err := RegisterModule("batch_test.named.a", Declare(a)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := RegisterModule("batch_test.named.b", Declare(b)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch, err := UnpackNamed("batch_test.named.b", "batch_test.named.a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 2 || batch[0] != b || batch[1] != a {
		t.Fatalf("unexpected batch order %#v", batch)
	}

	if _, err := UnpackNamed("batch_test.named.missing"); err == nil {
		t.Fatalf("expected error for unknown module name")
	}
}
