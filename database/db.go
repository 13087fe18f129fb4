// Package database connects to the PostgreSQL store that holds all
// analytics state. Every mutation runs through InTx; reads may use the
// pooled handle directly.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so store code is
// written once and runs either inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// serialRetryCount bounds retries of transactions that fail with a
// serialization error.
const serialRetryCount = 3

// InTx runs fn inside a single database transaction. The transaction is
// committed only if fn returns nil; any error rolls it back wholesale, so
// a failed ingestion leaves no partial counters and no orphan event.
// Transient conflicts are retried a bounded number of times.
func InTx(ctx context.Context, db *sqlx.DB, fn func(q DBTX) error) error {
	var err error
	for attempt := 0; attempt < serialRetryCount; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !isRetryableTxError(err) {
			return err
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", serialRetryCount, err)
}

// isRetryableTxError classifies conflicts a fresh transaction resolves:
// serialization failures, and unique violations on the registry natural
// keys — two ingestions racing to create the same path or visitor, where
// the rerun's first lookup finds the winner's committed row.
func isRetryableTxError(err error) bool {
	return IsSerializedError(err) ||
		IsUniqueViolation(err, ConstraintPathsPathKey, ConstraintVisitorsIPAddressHash)
}

func runTx(ctx context.Context, db *sqlx.DB, fn func(q DBTX) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		rerr := tx.Rollback()
		if rerr == nil || errors.Is(rerr, sql.ErrTxDone) {
			// tx committed or rolled back cleanly
			return
		}
		err = fmt.Errorf("defer (%s): %w", rerr.Error(), err)
	}()

	if err = fn(tx); err != nil {
		return fmt.Errorf("execute transaction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
