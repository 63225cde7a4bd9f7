package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SerializableTxOptions is the isolation level every mutating ledger
// operation runs under. Read-only callers may use the zero options instead.
var SerializableTxOptions = pgx.TxOptions{IsoLevel: pgx.Serializable}

// WithTransaction executes a function within a serializable transaction.
// If the function returns an error, the transaction is rolled back;
// otherwise it is committed. Low-level Postgres failures on the way out are
// translated through MapError.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, SerializableTxOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
				err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		err = MapError(err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("failed to commit transaction: %w", MapError(err))
		return err
	}

	return nil
}
