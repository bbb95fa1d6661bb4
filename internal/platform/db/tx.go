package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khata-erp/khata-erp/internal/shared"
)

// maxConflictRetries bounds optimistic re-runs of a conflicted transaction.
const maxConflictRetries = 3

// WithTx executes a function within a transaction using the RepeatableRead
// isolation level. Serialization failures are mapped to shared.ErrTxConflict.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return mapConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(fmt.Errorf("platform/db: commit tx: %w", err))
	}

	return nil
}

// WithTxRetry re-runs the whole transactional procedure when the store aborts
// it with a serialization conflict. The callback must be safe to repeat.
func WithTxRetry(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		err = WithTx(ctx, pool, fn)
		if !errors.Is(err, shared.ErrTxConflict) {
			return err
		}
	}
	return err
}

// mapConflict translates SQLSTATE 40001/40P01 into the shared conflict error.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %s", shared.ErrTxConflict, pgErr.Message)
		}
	}
	return err
}
