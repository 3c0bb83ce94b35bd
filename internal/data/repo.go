package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/newsletter-api/internal/data/pgxutil"
)

// RepoConfig holds options shared by the repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (c RepoConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c RepoConfig) timeProvider() TimeProvider {
	if c.TimeProvider != nil {
		return c.TimeProvider
	}
	return &RealTimeProvider{}
}

// TxManager runs callbacks inside database/sql transactions.
type TxManager struct {
	DB *sql.DB
}

// NewTxManager creates a TxManager for db.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{DB: db}
}

// WithTx runs fn in a read-committed transaction.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return pgxutil.WithSQLTx(ctx, m.DB, pgxutil.SQLTxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn:   func(tx *sql.Tx) error { return fn(ctx, tx) },
	})
}
