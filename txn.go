package fixtures

import (
	"context"
	"errors"
	"fmt"
)

// Tx is an open transaction on a storage backend.
type Tx interface {
	Commit() error
	Rollback() error
}

// TxProvider opens transactions. The batch coordinator never calls it; the
// caller owns the transaction scope and wraps LoadFixtures/UnloadFixtures
// inside it.
type TxProvider interface {
	Begin(ctx context.Context) (Tx, error)
}

// InTransaction runs fn inside a transaction from provider: commit on
// success, rollback on error or panic. This is the scoped-acquisition
// construct batch callers wrap around LoadFixtures and UnloadFixtures.
func InTransaction(ctx context.Context, provider TxProvider, fn func(ctx context.Context) error) (err error) {
	if provider == nil {
		return errors.New("fixtures: transaction provider is nil")
	}
	if fn == nil {
		return errors.New("fixtures: transaction body is nil")
	}

	tx, err := provider.Begin(ctx)
	if err != nil {
		return fmt.Errorf("fixtures: begin transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		// Reached on panic only; roll back before re-panicking.
		_ = tx.Rollback()
	}()

	if err := fn(ctx); err != nil {
		done = true
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("fixtures: rollback: %w", rbErr))
		}
		return err
	}

	done = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("fixtures: commit transaction: %w", err)
	}
	return nil
}
