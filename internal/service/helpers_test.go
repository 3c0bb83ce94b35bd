package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/target/newsletter-api/internal/domain/idempotency"
)

// fakeTx runs callbacks with a nil *sql.Tx and records how they ended.
type fakeTx struct {
	commits   int
	rollbacks int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if err := fn(ctx, nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testScope(t *testing.T, userID string) idempotency.Scope {
	t.Helper()
	key, err := idempotency.ParseKey("11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	return idempotency.Scope{UserID: userID, Key: key}
}
