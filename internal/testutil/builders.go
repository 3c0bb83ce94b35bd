package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubscriptionFixture describes a subscriptions row inserted directly by tests.
type SubscriptionFixture struct {
	Email  string
	Name   string
	Status string
	// SubscribedAt defaults to now.
	SubscribedAt time.Time
}

// InsertSubscription writes a subscription row and returns its id.
func InsertSubscription(t TestingTB, db *sql.DB, f SubscriptionFixture) string {
	t.Helper()
	if f.Name == "" {
		f.Name = "Test Subscriber"
	}
	if f.Status == "" {
		f.Status = "confirmed"
	}
	if f.SubscribedAt.IsZero() {
		f.SubscribedAt = time.Now().UTC()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`, id, f.Email, f.Name, f.SubscribedAt, f.Status); err != nil {
		t.Fatalf("Failed to insert subscription %s: %v", f.Email, err)
	}
	return id
}

// InsertConfirmedSubscribers inserts n confirmed subscribers and returns their emails.
func InsertConfirmedSubscribers(t TestingTB, db *sql.DB, n int) []string {
	t.Helper()
	emails := make([]string, n)
	for i := range n {
		emails[i] = fmt.Sprintf("reader%d-%s@example.com", i, uuid.NewString()[:8])
		InsertSubscription(t, db, SubscriptionFixture{Email: emails[i], Status: "confirmed"})
	}
	return emails
}

// CountRows returns the number of rows in table. The table name must be a trusted constant.
func CountRows(t TestingTB, db *sql.DB, table string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}

// DeliveryRecipients returns the queued recipient emails for an issue, sorted.
func DeliveryRecipients(t TestingTB, db *sql.DB, issueID string) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT subscriber_email FROM issue_delivery_queue
		WHERE newsletter_issue_id = $1
		ORDER BY subscriber_email
	`, issueID)
	if err != nil {
		t.Fatalf("Failed to query delivery queue: %v", err)
	}
	defer closeQuietly(t, "delivery rows", rows)

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			t.Fatalf("Failed to scan delivery row: %v", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to iterate delivery rows: %v", err)
	}
	return emails
}
