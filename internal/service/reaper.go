package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/core"
	obserrors "github.com/target/newsletter-api/internal/observability/errors"
	"github.com/target/newsletter-api/internal/observability/metrics"
	"github.com/target/newsletter-api/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: retention repository
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ReaperService removes rows that are no longer useful.
//
// This service manages:
// - Deleting idempotency records past their replay window.
// - Deleting subscriptions that were never confirmed.
type ReaperService struct {
	repo    core.ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"idempotency_max_age", opts.Config.IdempotencyMaxAge,
			"pending_subscription_max_age", opts.Config.PendingSubscriptionMaxAge,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Spread replicas that start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// CleanupReport counts rows removed by one cleanup pass.
type CleanupReport struct {
	IdempotencyRecords   int64
	PendingSubscriptions int64
}

// RunOnce performs a single cleanup pass.
func (s *ReaperService) RunOnce(ctx context.Context) (CleanupReport, error) {
	start := time.Now()
	var (
		errs               []error
		allContextCanceled = true
		report             CleanupReport
		m                  cleanupMetrics
	)

	steps := []cleanupStep{
		{
			fn:        s.deleteExpiredIdempotency,
			label:     "delete expired idempotency records",
			operation: "delete_idempotency",
			count:     &report.IdempotencyRecords,
		},
		{
			fn:        s.deleteStalePendingSubscriptions,
			label:     "delete stale pending subscriptions",
			operation: "delete_pending_subscriptions",
			count:     &report.PendingSubscriptions,
		},
	}

	for _, step := range steps {
		outcome := s.executeCleanupStep(ctx, step.fn, step.label)
		*step.count = outcome.count
		m.ops = append(m.ops, cleanupOperation{name: step.operation, count: outcome.count, err: outcome.metricErr})
		if outcome.aggregateErr != nil {
			errs = append(errs, outcome.aggregateErr)
			allContextCanceled = allContextCanceled && outcome.canceled
		}
	}

	m.elapsed = time.Since(start)
	s.emitCleanupMetrics(m)

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled && isContextCancellation(joined) {
			return report, context.Canceled
		}
		return report, fmt.Errorf("cleanup failed: %w", joined)
	}
	return report, nil
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
			}
		}
	}
}

type cleanupFunc func(context.Context) (int64, error)

type cleanupStep struct {
	fn        cleanupFunc
	label     string
	operation string
	count     *int64
}

type cleanupStepOutcome struct {
	count        int64
	metricErr    error
	aggregateErr error
	canceled     bool
}

func (s *ReaperService) executeCleanupStep(ctx context.Context, fn cleanupFunc, label string) cleanupStepOutcome {
	count, err := fn(ctx)
	outcome := cleanupStepOutcome{
		count:     count,
		metricErr: suppressContextCancellation(err),
		canceled:  isContextCancellation(err),
	}
	if err != nil {
		outcome.aggregateErr = fmt.Errorf("%s: %w", label, err)
	}
	return outcome
}

func (s *ReaperService) deleteExpiredIdempotency(ctx context.Context) (int64, error) {
	total, err := s.drain(ctx, s.repo.DeleteExpiredIdempotency, s.config.IdempotencyMaxAge)
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "deleted expired idempotency records",
			"count", total,
			"max_age", s.config.IdempotencyMaxAge,
		)
	}
	return total, err
}

func (s *ReaperService) deleteStalePendingSubscriptions(ctx context.Context) (int64, error) {
	total, err := s.drain(ctx, s.repo.DeleteStalePendingSubscriptions, s.config.PendingSubscriptionMaxAge)
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "deleted stale pending subscriptions",
			"count", total,
			"max_age", s.config.PendingSubscriptionMaxAge,
		)
	}
	return total, err
}

// drain repeats a batched delete until a batch removes nothing.
func (s *ReaperService) drain(
	ctx context.Context,
	del func(context.Context, core.RetentionParams) (int64, error),
	maxAge time.Duration,
) (int64, error) {
	params := core.RetentionParams{MaxAge: maxAge, BatchSize: s.config.BatchSize}
	var total int64
	for {
		count, err := del(ctx, params)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

type cleanupOperation struct {
	name  string
	count int64
	err   error
}

type cleanupMetrics struct {
	ops     []cleanupOperation
	elapsed time.Duration
}

func (s *ReaperService) emitCleanupMetrics(m cleanupMetrics) {
	if s.metrics == nil {
		return
	}

	var (
		total    int64
		firstErr error
	)
	for _, op := range m.ops {
		total += op.count
		if firstErr == nil {
			firstErr = op.err
		}
	}

	tags := map[string]string{"result": resultFor(total, firstErr)}
	if firstErr != nil {
		if class := obserrors.Classify(firstErr); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup", 1, tags)
	if m.elapsed > 0 {
		s.metrics.Timing("reaper.cleanup_duration", m.elapsed, metrics.CloneTags(tags))
	}

	for _, op := range m.ops {
		s.emitCleanupOperationMetric(op)
	}

	if firstErr == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReaperService) emitCleanupOperationMetric(op cleanupOperation) {
	tags := map[string]string{
		"operation": op.name,
		"result":    resultFor(op.count, op.err),
	}
	if op.err != nil {
		if class := obserrors.Classify(op.err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup_operation", 1, tags)
	if op.err == nil && op.count > 0 {
		s.metrics.Count("reaper.rows_deleted", op.count, metrics.CloneTags(tags))
	}
}

func resultFor(count int64, err error) string {
	switch {
	case err != nil:
		return metrics.ResultError
	case count == 0:
		return metrics.ResultNoop
	default:
		return metrics.ResultSuccess
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}
