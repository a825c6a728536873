package fixtures

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BatchOption configures a batch load or unload.
type BatchOption func(*batchConfig)

type batchConfig struct {
	hooks    Hooks
	metadata map[string]any
}

// WithHooks attaches lifecycle hooks notified for every fixture operation
// in the batch.
func WithHooks(hooks ...Hook) BatchOption {
	return func(cfg *batchConfig) {
		for _, hook := range hooks {
			if hook != nil {
				cfg.hooks = append(cfg.hooks, hook)
			}
		}
	}
}

// WithBatchMetadata attaches metadata propagated on every hook event.
func WithBatchMetadata(metadata map[string]any) BatchOption {
	return func(cfg *batchConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = metadata
	}
}

func applyBatchOptions(opts []BatchOption) batchConfig {
	cfg := batchConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// LoadFixtures loads fixtures strictly in the given order. Dependency
// fixtures must appear before their dependents; no reordering is performed
// and no dependency is loaded implicitly.
//
// The first failing fixture halts the batch and its error propagates
// wrapped in a *BatchError. No compensation runs here: the caller is
// expected to scope the batch inside a transaction (see InTransaction),
// and the transaction undoes partial effects.
func LoadFixtures(ctx context.Context, fixtures []*Fixture, opts ...BatchOption) error {
	emit := newBatchEmitter(ctx, applyBatchOptions(opts))

	for i, fixture := range fixtures {
		if fixture == nil {
			return emit.fail(&BatchError{Op: OpLoad, Index: i, Fixture: "<nil>", Err: ErrNilFixture})
		}
		loaded, err := fixture.load(ctx)
		if err != nil {
			return emit.fail(&BatchError{Op: OpLoad, Index: i, Fixture: fixture.String(), Err: err})
		}
		verb := OpLoad
		if !loaded {
			verb = OpSkip
		}
		emit.emit(verb, i, fixture)
	}
	return emit.flush()
}

// UnloadFixtures unloads fixtures strictly in the given order, inside the
// caller's transaction scope, with the same halting and no-compensation
// semantics as LoadFixtures.
//
// Every fixture is resolved up front: unloading lazily would delete a
// dependency's record and then fail to resolve a later fixture against it.
func UnloadFixtures(ctx context.Context, fixtures []*Fixture, opts ...BatchOption) error {
	for i, fixture := range fixtures {
		if fixture == nil {
			return &BatchError{Op: OpUnload, Index: i, Fixture: "<nil>", Err: ErrNilFixture}
		}
		if _, err := fixture.Resolve(); err != nil {
			return &BatchError{Op: OpUnload, Index: i, Fixture: fixture.String(), Err: err}
		}
	}

	emit := newBatchEmitter(ctx, applyBatchOptions(opts))
	for i, fixture := range fixtures {
		unloaded, err := fixture.unload(ctx)
		if err != nil {
			return emit.fail(&BatchError{Op: OpUnload, Index: i, Fixture: fixture.String(), Err: err})
		}
		verb := OpUnload
		if !unloaded {
			verb = OpSkip
		}
		emit.emit(verb, i, fixture)
	}
	return emit.flush()
}

// batchEmitter fans batch events out to hooks, accumulating hook failures
// without aborting the batch.
type batchEmitter struct {
	ctx     context.Context
	hooks   Hooks
	meta    map[string]any
	batchID string
	errs    []error
}

func newBatchEmitter(ctx context.Context, cfg batchConfig) *batchEmitter {
	return &batchEmitter{
		ctx:     ctx,
		hooks:   cfg.hooks,
		meta:    cfg.metadata,
		batchID: uuid.NewString(),
	}
}

func (e *batchEmitter) emit(verb string, index int, fixture *Fixture) {
	if !e.hooks.Enabled() {
		return
	}
	err := e.hooks.Notify(e.ctx, Event{
		BatchID:    e.batchID,
		Verb:       verb,
		Fixture:    fixture.String(),
		Class:      fixture.class.Name(),
		Index:      index,
		OccurredAt: time.Now(),
		Metadata:   e.meta,
	})
	if err != nil {
		e.errs = append(e.errs, err)
	}
}

func (e *batchEmitter) flush() error {
	if len(e.errs) == 0 {
		return nil
	}
	return errors.Join(e.errs...)
}

// fail returns batchErr joined with any hook failures already collected,
// so a halted batch does not drop them.
func (e *batchEmitter) fail(batchErr *BatchError) error {
	if hookErr := e.flush(); hookErr != nil {
		return errors.Join(batchErr, hookErr)
	}
	return batchErr
}
