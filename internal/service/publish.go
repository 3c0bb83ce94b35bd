package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/idempotency"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/observability/metrics"
	"github.com/target/newsletter-api/internal/observability/statsd"
)

// PublishRepositories groups the stores a publish writes to.
type PublishRepositories struct {
	Issues core.IssueRepository
	Queue  core.DeliveryQueueRepository
}

// PublishServiceOptions groups dependencies for PublishService.
type PublishServiceOptions struct {
	Tx          core.TxRunner       // Required
	Idempotency *IdempotencyService // Required
	Repos       PublishRepositories // Required
	Events      core.EventPublisher // Optional: announces committed publishes
	Logger      *slog.Logger        // Optional
	Metrics     statsd.Sink         // Optional
}

// PublishService creates newsletter issues and fans them out to the delivery queue.
type PublishService struct {
	tx      core.TxRunner
	idem    *IdempotencyService
	issues  core.IssueRepository
	queue   core.DeliveryQueueRepository
	events  core.EventPublisher
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewPublishService constructs a new PublishService.
func NewPublishService(opts PublishServiceOptions) (*PublishService, error) {
	switch {
	case opts.Tx == nil:
		return nil, errors.New("TxRunner is required")
	case opts.Idempotency == nil:
		return nil, errors.New("IdempotencyService is required")
	case opts.Repos.Issues == nil:
		return nil, errors.New("IssueRepository is required")
	case opts.Repos.Queue == nil:
		return nil, errors.New("DeliveryQueueRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishService{
		tx:      opts.Tx,
		idem:    opts.Idempotency,
		issues:  opts.Repos.Issues,
		queue:   opts.Repos.Queue,
		events:  opts.Events,
		logger:  logger.With("component", "publish_service"),
		metrics: opts.Metrics,
	}, nil
}

// ResponseRenderer builds the response returned for a freshly published issue.
type ResponseRenderer func(issue *model.NewsletterIssue) (*idempotency.Response, error)

// PublishInput groups parameters for Publish.
type PublishInput struct {
	Scope   idempotency.Scope
	Request model.PublishIssueRequest
	Render  ResponseRenderer
}

// PublishResult is the outcome of Publish.
type PublishResult struct {
	Response *idempotency.Response
	// Replayed is true when Response was loaded from an earlier request with the same scope.
	Replayed bool
	// Issue and TaskCount are only set when Replayed is false.
	Issue     *model.NewsletterIssue
	TaskCount int64
}

// Publish runs claim, issue insert, fan-out and response save in one transaction. Any failure
// rolls all of it back, including the claim, so the key can be retried. A request whose scope
// already holds a saved response gets that response back and writes nothing.
func (s *PublishService) Publish(ctx context.Context, in PublishInput) (*PublishResult, error) {
	if in.Render == nil {
		return nil, errors.New("response renderer is required")
	}
	if err := in.Request.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var result PublishResult
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		result = PublishResult{}
		action, saved, err := s.idem.TryProcessing(ctx, tx, in.Scope)
		if err != nil {
			return err
		}
		if action == idempotency.ReturnSavedResponse {
			result.Response = saved
			result.Replayed = true
			return nil
		}

		issue, err := s.issues.InsertTx(ctx, tx, in.Request)
		if err != nil {
			return fmt.Errorf("insert newsletter issue: %w", err)
		}
		count, err := s.queue.EnqueueConfirmedTx(ctx, tx, issue.ID)
		if err != nil {
			return fmt.Errorf("enqueue delivery tasks: %w", err)
		}

		resp, err := in.Render(issue)
		if err != nil {
			return fmt.Errorf("render publish response: %w", err)
		}
		resp, err = s.idem.SaveResponse(ctx, tx, core.SaveResponseParams{Scope: in.Scope, Response: resp})
		if err != nil {
			return err
		}

		result.Response = resp
		result.Issue = issue
		result.TaskCount = count
		return nil
	})
	if err != nil {
		metrics.EmitPublish(s.metrics, metrics.PublishMetric{
			Result: metrics.ResultError, Duration: time.Since(start), Err: err,
		})
		return nil, err
	}

	if result.Replayed {
		s.logger.InfoContext(ctx, "replaying saved publish response",
			"user_id", in.Scope.UserID,
			"idempotency_key", in.Scope.Key.String(),
		)
		metrics.EmitPublish(s.metrics, metrics.PublishMetric{Result: metrics.ResultReplay, Duration: time.Since(start)})
		return &result, nil
	}

	s.logger.InfoContext(ctx, "published newsletter issue",
		"issue_id", result.Issue.ID,
		"task_count", result.TaskCount,
		"user_id", in.Scope.UserID,
	)
	metrics.EmitPublish(s.metrics, metrics.PublishMetric{
		Result: metrics.ResultSuccess, TaskCount: result.TaskCount, Duration: time.Since(start),
	})
	s.announce(ctx, in.Scope.UserID, &result)
	return &result, nil
}

// announce publishes the domain event after commit. The publish already succeeded, so a
// broker failure is only logged.
func (s *PublishService) announce(ctx context.Context, userID string, result *PublishResult) {
	if s.events == nil {
		return
	}
	evt := core.IssuePublishedEvent{
		IssueID:     result.Issue.ID,
		Title:       result.Issue.Title,
		TaskCount:   result.TaskCount,
		PublishedBy: userID,
		PublishedAt: result.Issue.PublishedAt,
	}
	if err := s.events.PublishIssuePublished(ctx, evt); err != nil {
		s.logger.WarnContext(ctx, "failed to announce published issue",
			"issue_id", evt.IssueID,
			"error", err,
		)
	}
}

// ListIssues returns published issues, newest first.
func (s *PublishService) ListIssues(ctx context.Context, opts model.IssueListOptions) ([]*model.NewsletterIssue, error) {
	issues, err := s.issues.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

// QueueStats reports the pending delivery backlog per issue.
func (s *PublishService) QueueStats(ctx context.Context) ([]model.QueueStats, error) {
	stats, err := s.queue.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}
