// Package core declares the ports between the newsletter services and their adapters.
package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/target/newsletter-api/internal/domain/idempotency"
	"github.com/target/newsletter-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on the data package.

// TxRunner runs fn inside one database transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

// SaveResponseParams groups parameters for IdempotencyRepository.SaveTx.
type SaveResponseParams struct {
	Scope    idempotency.Scope
	Response *idempotency.Response
}

// IdempotencyRepository persists claims and completed responses.
type IdempotencyRepository interface {
	// ClaimTx inserts an empty record for scope. It reports false when the record already existed.
	ClaimTx(ctx context.Context, tx *sql.Tx, scope idempotency.Scope) (bool, error)
	// GetSavedTx returns the completed response for scope, or nil when the record is
	// missing or still in progress.
	GetSavedTx(ctx context.Context, tx *sql.Tx, scope idempotency.Scope) (*idempotency.Response, error)
	SaveTx(ctx context.Context, tx *sql.Tx, params SaveResponseParams) error
	DeleteCreatedBefore(ctx context.Context, params RetentionParams) (int64, error)
}

// IssueRepository stores newsletter issues.
type IssueRepository interface {
	InsertTx(ctx context.Context, tx *sql.Tx, req model.PublishIssueRequest) (*model.NewsletterIssue, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.NewsletterIssue, error)
	List(ctx context.Context, opts model.IssueListOptions) ([]*model.NewsletterIssue, error)
}

// DeliveryQueueRepository manages issue_delivery_queue.
type DeliveryQueueRepository interface {
	// EnqueueConfirmedTx fans out one task per confirmed subscriber and returns the task count.
	EnqueueConfirmedTx(ctx context.Context, tx *sql.Tx, issueID string) (int64, error)
	// DequeueTx locks one task not locked by another transaction. It returns nil when none is available.
	DequeueTx(ctx context.Context, tx *sql.Tx) (*model.DeliveryTask, error)
	DeleteTx(ctx context.Context, tx *sql.Tx, task model.DeliveryTask) error
	Stats(ctx context.Context) ([]model.QueueStats, error)
}

// CreateSubscriptionParams groups parameters for SubscriptionRepository.CreateTx.
type CreateSubscriptionParams struct {
	Subscriber model.NewSubscriber
	Status     model.SubscriptionStatus
	// Token is stored in subscription_tokens when non-empty.
	Token model.SubscriptionToken
}

// SubscriptionRepository stores subscribers and confirmation tokens.
type SubscriptionRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, params CreateSubscriptionParams) (*model.Subscription, error)
	ConfirmByToken(ctx context.Context, token model.SubscriptionToken) (*model.Subscription, error)
	List(ctx context.Context, opts model.SubscriptionListOptions) ([]*model.Subscription, error)
	// Import stores subs as confirmed subscriptions. Existing emails are left untouched.
	Import(ctx context.Context, subs []model.NewSubscriber) (int64, error)
	DeleteStalePending(ctx context.Context, params RetentionParams) (int64, error)
}

// RetentionParams bounds one batched cleanup pass.
type RetentionParams struct {
	MaxAge    time.Duration
	BatchSize int
}

// SendEmailRequest is one outbound email.
type SendEmailRequest struct {
	Recipient model.SubscriberEmail
	Subject   string
	HTMLBody  string
	TextBody  string
}

// EmailSender delivers a single email with one attempt.
type EmailSender interface {
	SendEmail(ctx context.Context, req SendEmailRequest) error
}

// IssuePublishedEvent is announced after a publish transaction commits.
type IssuePublishedEvent struct {
	IssueID     string    `json:"newsletter_issue_id"`
	Title       string    `json:"title"`
	TaskCount   int64     `json:"task_count"`
	PublishedBy string    `json:"published_by"`
	PublishedAt time.Time `json:"published_at"`
}

// EventPublisher announces domain events to other systems.
type EventPublisher interface {
	PublishIssuePublished(ctx context.Context, evt IssuePublishedEvent) error
}

// ReaperRepository is the retention surface used by the reaper. Each call deletes at most
// one batch and returns the number of rows removed.
type ReaperRepository interface {
	DeleteExpiredIdempotency(ctx context.Context, params RetentionParams) (int64, error)
	DeleteStalePendingSubscriptions(ctx context.Context, params RetentionParams) (int64, error)
}
