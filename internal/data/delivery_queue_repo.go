package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/newsletter-api/internal/domain/model"
)

// DeliveryQueueRepo manages issue_delivery_queue rows.
type DeliveryQueueRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewDeliveryQueueRepo creates a new DeliveryQueueRepo.
func NewDeliveryQueueRepo(db *sql.DB, cfg RepoConfig) *DeliveryQueueRepo {
	return &DeliveryQueueRepo{
		DB:     db,
		logger: cfg.logger().With("component", "delivery_queue_repo"),
	}
}

// EnqueueConfirmedTx inserts one task per confirmed subscriber as a single set-based statement.
func (r *DeliveryQueueRepo) EnqueueConfirmedTx(ctx context.Context, tx *sql.Tx, issueID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_email)
		SELECT $1, email
		FROM subscriptions
		WHERE status = 'confirmed'
	`, issueID)
	if err != nil {
		return 0, fmt.Errorf("enqueue delivery tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DequeueTx locks one task for the lifetime of tx. Rows locked by other workers are skipped,
// so concurrent workers never receive the same task.
func (r *DeliveryQueueRepo) DequeueTx(ctx context.Context, tx *sql.Tx) (*model.DeliveryTask, error) {
	var task model.DeliveryTask
	err := tx.QueryRowContext(ctx, `
		SELECT newsletter_issue_id, subscriber_email
		FROM issue_delivery_queue
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`).Scan(&task.IssueID, &task.SubscriberEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue delivery task: %w", err)
	}
	return &task, nil
}

// DeleteTx removes a task once it has been handled.
func (r *DeliveryQueueRepo) DeleteTx(ctx context.Context, tx *sql.Tx, task model.DeliveryTask) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE newsletter_issue_id = $1 AND subscriber_email = $2
	`, task.IssueID, task.SubscriberEmail); err != nil {
		return fmt.Errorf("delete delivery task: %w", err)
	}
	return nil
}

// Stats reports pending tasks per issue, most backlogged first.
func (r *DeliveryQueueRepo) Stats(ctx context.Context) ([]model.QueueStats, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT q.newsletter_issue_id, i.title, COUNT(*) AS pending
		FROM issue_delivery_queue q
		JOIN newsletter_issues i ON i.newsletter_issue_id = q.newsletter_issue_id
		GROUP BY q.newsletter_issue_id, i.title
		ORDER BY pending DESC, q.newsletter_issue_id
	`)
	if err != nil {
		return nil, fmt.Errorf("delivery queue stats: %w", err)
	}
	defer rows.Close()

	var stats []model.QueueStats
	for rows.Next() {
		var s model.QueueStats
		if err := rows.Scan(&s.IssueID, &s.Title, &s.Pending); err != nil {
			return nil, fmt.Errorf("scan queue stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue stats: %w", err)
	}
	return stats, nil
}
