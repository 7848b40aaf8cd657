// Package postgres implements paginate.QueryExecutor over a pgx connection
// pool. It is the only part of the module that speaks to a real database:
// the compiler core never imports pgx, and callers embedding objectquel with
// a different driver supply their own QueryExecutor instead of this one
// (spec.md §7).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// Executor fetches a single column via pgx, retrying transient failures
// (connection resets, serialization failures, deadlocks) and giving up
// immediately on anything that isn't safe to retry, such as a syntax error
// or a constraint violation.
type Executor struct {
	pool        *pgxpool.Pool
	maxAttempts uint64
	baseDelay   time.Duration
}

// New wraps pool in an Executor with the package's default retry policy:
// up to 3 attempts with exponential backoff starting at 50ms.
func New(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool, maxAttempts: 3, baseDelay: 50 * time.Millisecond}
}

// Open dials databaseURL and returns an Executor backed by a new pool. The
// caller owns the pool's lifetime and should call Close when done.
func Open(ctx context.Context, databaseURL string) (*Executor, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// Close releases the underlying connection pool.
func (e *Executor) Close() { e.pool.Close() }

// FetchColumn implements paginate.QueryExecutor. sql is expected to select
// exactly one column; every row's first value is appended to the result in
// row order.
func (e *Executor) FetchColumn(ctx context.Context, sql string, params []any) ([]any, error) {
	var values []any

	// WithMaxRetries counts retries after the first attempt.
	backoff := retry.WithMaxRetries(e.maxAttempts-1, retry.NewExponential(e.baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		values = nil
		rows, err := e.pool.Query(ctx, sql, params...)
		if err != nil {
			return classify(err)
		}
		defer rows.Close()

		for rows.Next() {
			vals, err := rows.Values()
			if err != nil {
				return classify(err)
			}
			if len(vals) == 0 {
				return fmt.Errorf("query returned a row with no columns")
			}
			values = append(values, vals[0])
		}
		return classify(rows.Err())
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// classify marks err as retryable when it represents a transient condition
// (connection failure, serialization failure, deadlock), and leaves it
// alone otherwise so retry.Do gives up after the first attempt.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected,
			pgerrcode.ConnectionException, pgerrcode.ConnectionDoesNotExist,
			pgerrcode.ConnectionFailure, pgerrcode.CannotConnectNow:
			return retry.RetryableError(err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return retry.RetryableError(err)
	}

	return err
}
