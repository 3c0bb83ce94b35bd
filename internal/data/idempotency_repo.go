package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/data/pgxutil"
	"github.com/target/newsletter-api/internal/domain/idempotency"
)

// IdempotencyRepo persists idempotency claims and the responses they resolve to.
type IdempotencyRepo struct {
	DB           *sql.DB
	logger       *slog.Logger
	timeProvider TimeProvider
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(db *sql.DB, cfg RepoConfig) *IdempotencyRepo {
	return &IdempotencyRepo{
		DB:           db,
		logger:       cfg.logger().With("component", "idempotency_repo"),
		timeProvider: cfg.timeProvider(),
	}
}

// ClaimTx inserts an in-progress record. A concurrent claim for the same scope blocks on the
// primary key until the first transaction finishes, then reports false.
func (r *IdempotencyRepo) ClaimTx(ctx context.Context, tx *sql.Tx, scope idempotency.Scope) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO idempotency (user_id, idempotency_key, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, scope.UserID, scope.Key.String(), r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert idempotency claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Header pairs are read back through unnest ... WITH ORDINALITY so stored order survives.
const getSavedResponseSQL = `
	SELECT
		i.response_status_code,
		i.response_body,
		ARRAY(
			SELECT h.name FROM unnest(i.response_headers) WITH ORDINALITY AS h(name, value, ord)
			ORDER BY h.ord
		) AS header_names,
		ARRAY(
			SELECT h.value FROM unnest(i.response_headers) WITH ORDINALITY AS h(name, value, ord)
			ORDER BY h.ord
		) AS header_values
	FROM idempotency i
	WHERE i.user_id = $1 AND i.idempotency_key = $2
`

// GetSavedTx returns the completed response for scope. It returns nil when no record exists
// or the record has no response yet.
func (r *IdempotencyRepo) GetSavedTx(
	ctx context.Context,
	tx *sql.Tx,
	scope idempotency.Scope,
) (*idempotency.Response, error) {
	var (
		status sql.NullInt16
		body   []byte
		names  []string
		values [][]byte
	)
	err := tx.QueryRowContext(ctx, getSavedResponseSQL, scope.UserID, scope.Key.String()).Scan(
		&status,
		&body,
		pgxutil.ArrayScanner(&names),
		pgxutil.ArrayScanner(&values),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select saved response: %w", err)
	}
	if !status.Valid {
		return nil, nil
	}
	code := int(status.Int16)
	if code < 100 || code > 599 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, code)
	}
	if len(names) != len(values) {
		return nil, fmt.Errorf("saved headers are malformed: %d names, %d values", len(names), len(values))
	}

	stored := make([]idempotency.HeaderPair, len(names))
	for i := range names {
		stored[i] = idempotency.HeaderPair{Name: names[i], Value: values[i]}
	}
	headers, dropped := idempotency.SplitHeaderPairs(stored)
	for _, p := range dropped {
		r.logger.ErrorContext(ctx, "skipping invalid saved header",
			"user_id", scope.UserID,
			"idempotency_key", scope.Key.String(),
			"header", p.Name,
		)
	}

	if body == nil {
		body = []byte{}
	}
	return &idempotency.Response{StatusCode: code, Headers: headers, Body: body}, nil
}

// SaveTx stores the response on the claimed record. Headers are passed as two parallel
// arrays and zipped into header_pair[] in order.
func (r *IdempotencyRepo) SaveTx(ctx context.Context, tx *sql.Tx, params core.SaveResponseParams) error {
	resp := params.Response
	if resp == nil {
		return errors.New("response is required")
	}
	names := make([]string, len(resp.Headers))
	values := make([][]byte, len(resp.Headers))
	for i, p := range resp.Headers {
		names[i] = p.Name
		values[i] = p.Value
	}
	body := resp.Body
	if body == nil {
		body = []byte{}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE idempotency
		SET
			response_status_code = $3,
			response_headers = ARRAY(
				SELECT ROW(h.name, h.value)::header_pair
				FROM unnest($4::text[], $5::bytea[]) WITH ORDINALITY AS h(name, value, ord)
				ORDER BY h.ord
			),
			response_body = $6
		WHERE user_id = $1 AND idempotency_key = $2
	`, params.Scope.UserID, params.Scope.Key.String(), int16(resp.StatusCode), names, values, body)
	if err != nil {
		return fmt.Errorf("update idempotency response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save response: no claim for key %q", params.Scope.Key.String())
	}
	return nil
}

// DeleteCreatedBefore removes up to BatchSize records older than MaxAge.
// Records still in progress are only removed once they are older than MaxAge too.
func (r *IdempotencyRepo) DeleteCreatedBefore(ctx context.Context, params core.RetentionParams) (int64, error) {
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}
	cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
	n, err := lockedDelete(ctx, r.DB, lockedDeleteParams{
		minor: advisoryLockIdempotencyCleanup,
		query: `
			DELETE FROM idempotency
			USING (
				SELECT user_id, idempotency_key
				FROM idempotency
				WHERE created_at < $1
				ORDER BY created_at
				LIMIT $2
			) old
			WHERE idempotency.user_id = old.user_id
			  AND idempotency.idempotency_key = old.idempotency_key
		`,
		args: []any{cutoff, params.BatchSize},
	})
	if err != nil {
		return 0, fmt.Errorf("delete old idempotency records: %w", err)
	}
	return n, nil
}
