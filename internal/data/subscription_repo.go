package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/data/database"
	"github.com/target/newsletter-api/internal/data/pgxutil"
	"github.com/target/newsletter-api/internal/domain/model"
)

// SubscriptionRepo stores subscribers and their confirmation tokens.
type SubscriptionRepo struct {
	DB           *sql.DB
	logger       *slog.Logger
	timeProvider TimeProvider
}

// NewSubscriptionRepo creates a new SubscriptionRepo.
func NewSubscriptionRepo(db *sql.DB, cfg RepoConfig) *SubscriptionRepo {
	return &SubscriptionRepo{
		DB:           db,
		logger:       cfg.logger().With("component", "subscription_repo"),
		timeProvider: cfg.timeProvider(),
	}
}

const subscriptionColumns = `id, email, name, status, subscribed_at`

var subscriptionColumnList = []string{"id", "email", "name", "status", "subscribed_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var s model.Subscription
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Status, &s.SubscribedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateTx inserts a subscription and, when a token is supplied, its confirmation token.
func (r *SubscriptionRepo) CreateTx(
	ctx context.Context,
	tx *sql.Tx,
	params core.CreateSubscriptionParams,
) (*model.Subscription, error) {
	if !params.Status.Valid() {
		return nil, fmt.Errorf("invalid subscription status: %q", params.Status)
	}
	sub, err := scanSubscription(tx.QueryRowContext(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+subscriptionColumns,
		uuid.NewString(),
		params.Subscriber.Email.String(),
		params.Subscriber.Name.String(),
		r.timeProvider.Now().UTC(),
		params.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	if params.Token != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscription_tokens (subscription_token, subscriber_id)
			VALUES ($1, $2)
		`, string(params.Token), sub.ID); err != nil {
			return nil, fmt.Errorf("insert subscription token: %w", err)
		}
	}
	return sub, nil
}

// ConfirmByToken marks the subscription owning token as confirmed. Confirming twice is not an error.
func (r *SubscriptionRepo) ConfirmByToken(
	ctx context.Context,
	token model.SubscriptionToken,
) (*model.Subscription, error) {
	sub, err := scanSubscription(r.DB.QueryRowContext(ctx, `
		UPDATE subscriptions s
		SET status = 'confirmed'
		FROM subscription_tokens t
		WHERE t.subscription_token = $1
		  AND t.subscriber_id = s.id
		RETURNING s.id, s.email, s.name, s.status, s.subscribed_at
	`, string(token)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("confirm subscription: %w", err)
	}
	return sub, nil
}

// List returns subscriptions ordered by subscription time.
func (r *SubscriptionRepo) List(
	ctx context.Context,
	opts model.SubscriptionListOptions,
) ([]*model.Subscription, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	conds := []database.ListQueryOption{
		database.WithColumns(subscriptionColumnList...),
		database.WithOrderBy("subscribed_at", "ASC"),
		database.WithOrderBy("id", "ASC"),
		database.WithLimit(limit),
		database.WithOffset(max(opts.Offset, 0)),
	}
	if opts.Status != nil {
		conds = append(conds, database.WithCondition(database.WhereCond("status", database.Equal, string(*opts.Status))))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("subscriptions", conds...))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// Import bulk loads subscribers with COPY into a staging table, then inserts the ones whose
// email is not already subscribed as confirmed. Imported rows never get a confirmation token.
// It returns the number of new subscriptions.
func (r *SubscriptionRepo) Import(ctx context.Context, subs []model.NewSubscriber) (int64, error) {
	if len(subs) == 0 {
		return 0, nil
	}

	now := r.timeProvider.Now().UTC()
	var inserted int64
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `
				CREATE TEMP TABLE subscriptions_import (
					id UUID, email TEXT, name TEXT, subscribed_at TIMESTAMPTZ, status TEXT
				) ON COMMIT DROP
			`); err != nil {
				return fmt.Errorf("create import table: %w", err)
			}

			rows := make([][]any, len(subs))
			for i, s := range subs {
				rows[i] = []any{uuid.New(), s.Email.String(), s.Name.String(), now, string(model.SubscriptionStatusConfirmed)}
			}
			if _, err := tx.CopyFrom(ctx,
				pgx.Identifier{"subscriptions_import"},
				[]string{"id", "email", "name", "subscribed_at", "status"},
				pgx.CopyFromRows(rows),
			); err != nil {
				return fmt.Errorf("copy subscriptions: %w", err)
			}

			tag, err := tx.Exec(ctx, `
				INSERT INTO subscriptions (id, email, name, subscribed_at, status)
				SELECT DISTINCT ON (email) id, email, name, subscribed_at, status
				FROM subscriptions_import
				ORDER BY email
				ON CONFLICT (email) DO NOTHING
			`)
			if err != nil {
				return fmt.Errorf("insert imported subscriptions: %w", err)
			}
			inserted = tag.RowsAffected()
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// DeleteStalePending removes up to BatchSize unconfirmed subscriptions older than MaxAge.
// Their tokens go with them through ON DELETE CASCADE.
func (r *SubscriptionRepo) DeleteStalePending(ctx context.Context, params core.RetentionParams) (int64, error) {
	if params.BatchSize <= 0 {
		return 0, errors.New("batch size must be greater than zero")
	}
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be greater than zero")
	}
	cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
	n, err := lockedDelete(ctx, r.DB, lockedDeleteParams{
		minor: advisoryLockPendingSubscription,
		query: `
			DELETE FROM subscriptions
			WHERE id IN (
				SELECT id FROM subscriptions
				WHERE status = 'pending_confirmation'
				  AND subscribed_at < $1
				ORDER BY subscribed_at
				LIMIT $2
			)
		`,
		args: []any{cutoff, params.BatchSize},
	})
	if err != nil {
		return 0, fmt.Errorf("delete stale pending subscriptions: %w", err)
	}
	return n, nil
}
