package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/observability/metrics"
	"github.com/target/newsletter-api/internal/observability/statsd"
)

// DeliveryServiceOptions groups dependencies for DeliveryService.
type DeliveryServiceOptions struct {
	Tx      core.TxRunner                // Required
	Queue   core.DeliveryQueueRepository // Required
	Issues  core.IssueRepository         // Required
	Email   core.EmailSender             // Required
	Logger  *slog.Logger                 // Optional
	Metrics statsd.Sink                  // Optional
}

// DeliveryService sends one queued issue email per call.
type DeliveryService struct {
	tx      core.TxRunner
	queue   core.DeliveryQueueRepository
	issues  core.IssueRepository
	email   core.EmailSender
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewDeliveryService constructs a new DeliveryService.
func NewDeliveryService(opts DeliveryServiceOptions) (*DeliveryService, error) {
	switch {
	case opts.Tx == nil:
		return nil, errors.New("TxRunner is required")
	case opts.Queue == nil:
		return nil, errors.New("DeliveryQueueRepository is required")
	case opts.Issues == nil:
		return nil, errors.New("IssueRepository is required")
	case opts.Email == nil:
		return nil, errors.New("EmailSender is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryService{
		tx:      opts.Tx,
		queue:   opts.Queue,
		issues:  opts.Issues,
		email:   opts.Email,
		logger:  logger.With("component", "delivery_service"),
		metrics: opts.Metrics,
	}, nil
}

// ExecuteTask takes one unlocked task and handles it inside a single transaction.
//
// The task row stays locked while the email is sent, so no other worker can pick it up.
// It is deleted whether or not the send succeeds: delivery is at most once per task.
// An invalid recipient is logged and dropped the same way. A missing issue is an error
// and rolls back, leaving the task queued.
func (s *DeliveryService) ExecuteTask(ctx context.Context) (model.DeliveryOutcome, error) {
	start := time.Now()
	var (
		outcome model.DeliveryOutcome
		sent    bool
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		outcome, sent = "", false
		task, err := s.queue.DequeueTx(ctx, tx)
		if err != nil {
			return err
		}
		if task == nil {
			outcome = model.DeliveryOutcomeEmptyQueue
			return nil
		}

		sent, err = s.deliver(ctx, tx, *task)
		if err != nil {
			return err
		}
		if err := s.queue.DeleteTx(ctx, tx, *task); err != nil {
			return err
		}
		outcome = model.DeliveryOutcomeTaskCompleted
		return nil
	})

	m := metrics.DeliveryMetric{Outcome: string(outcome), Duration: time.Since(start), Sent: sent}
	switch {
	case err != nil:
		m.Outcome, m.Result, m.Err = "", metrics.ResultError, err
	case outcome == model.DeliveryOutcomeEmptyQueue:
		m.Result = metrics.ResultNoop
	default:
		m.Result = metrics.ResultSuccess
	}
	metrics.EmitDelivery(s.metrics, m)

	if err != nil {
		return "", fmt.Errorf("execute delivery task: %w", err)
	}
	return outcome, nil
}

// deliver sends the issue to the task's recipient. It returns an error only for conditions
// that must roll the task back; per-recipient failures are logged and reported as not sent.
func (s *DeliveryService) deliver(ctx context.Context, tx *sql.Tx, task model.DeliveryTask) (bool, error) {
	recipient, err := model.ParseSubscriberEmail(task.SubscriberEmail)
	if err != nil {
		s.logger.ErrorContext(ctx, "skipping a confirmed subscriber, stored email is invalid",
			"issue_id", task.IssueID,
			"subscriber_email", task.SubscriberEmail,
			"error", err,
		)
		return false, nil
	}

	issue, err := s.issues.GetByIDTx(ctx, tx, task.IssueID)
	if err != nil {
		return false, fmt.Errorf("load issue for delivery: %w", err)
	}

	if err := s.email.SendEmail(ctx, core.SendEmailRequest{
		Recipient: recipient,
		Subject:   issue.Title,
		HTMLBody:  issue.HTMLContent,
		TextBody:  issue.TextContent,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to deliver issue to a confirmed subscriber, skipping",
			"issue_id", task.IssueID,
			"subscriber_email", task.SubscriberEmail,
			"error", err,
		)
		return false, nil
	}
	return true, nil
}
