package crdb

import (
	"context"
	"time"

	"github.com/arenaops/court-reservations/internal/domain"
	"github.com/arenaops/court-reservations/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	SerializationFailureCode = "40001"
	DeadlockDetectedCode     = "40P01"

	// txRetries bounds transparent retries of serialization/deadlock aborts.
	txRetries = 3
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// WithTx runs fn in a SERIALIZABLE transaction. Serialization and deadlock
// aborts are retried up to txRetries times; a still-failing attempt surfaces
// as domain.ErrSerializationFailure. Any other error rolls back and returns.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = r.runTx(ctx, fn)
		if !retryable(err) {
			return err
		}
	}
	return domain.ErrSerializationFailure
}

func (r *Repository) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE"); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == SerializationFailureCode || pgErr.Code == DeadlockDetectedCode
	}
	return false
}
