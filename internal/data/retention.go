package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/target/newsletter-api/internal/data/pgxutil"
)

// Advisory lock namespace for retention operations.
// Uses two-arg pg_try_advisory_xact_lock(major, minor) so each cleanup has its own key.
const (
	advisoryLockRetentionMajor      = 2000
	advisoryLockIdempotencyCleanup  = 1
	advisoryLockPendingSubscription = 2
)

type lockedDeleteParams struct {
	minor int
	query string
	args  []any
}

// lockedDelete runs a batched delete while holding a transaction-scoped advisory lock.
// When another replica already holds the lock the delete is skipped and 0 is returned.
func lockedDelete(ctx context.Context, db *sql.DB, p lockedDeleteParams) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, db, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockRetentionMajor, p.minor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			res, err := tx.ExecContext(ctx, p.query, p.args...)
			if err != nil {
				return err
			}
			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
