// Package deliveryrunner drives the issue delivery queue with a pool of polling loops.
package deliveryrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/domain/model"
	obserrors "github.com/target/newsletter-api/internal/observability/errors"
	"github.com/target/newsletter-api/internal/observability/notify"
	"github.com/target/newsletter-api/internal/service/failurenotifier"
)

const workerName = "delivery-worker"

// TaskExecutor handles at most one queued task per call.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context) (model.DeliveryOutcome, error)
}

// RunnerOptions configures the delivery runner.
type RunnerOptions struct {
	Executor        TaskExecutor // Required
	Config          config.DeliveryWorkerConfig
	Logger          *slog.Logger
	FailureNotifier *failurenotifier.Service // Optional
}

// Runner runs Config.Concurrency independent loops against the same queue. Row locks in
// the queue keep loops in this and other processes from taking the same task.
type Runner struct {
	executor TaskExecutor
	cfg      config.DeliveryWorkerConfig
	logger   *slog.Logger
	notifier *failurenotifier.Service
}

// NewRunner constructs a delivery runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	cfg := opts.Config
	cfg.Sanitize()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		executor: opts.Executor,
		cfg:      cfg,
		logger:   logger.With("component", "delivery_runner"),
		notifier: opts.FailureNotifier,
	}, nil
}

// Run starts the loops and blocks until ctx is cancelled. Task errors never stop a loop.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting delivery runner",
		"workers", r.cfg.Concurrency,
		"empty_queue_backoff", r.cfg.EmptyQueueBackoff,
		"error_backoff", r.cfg.ErrorBackoff,
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range r.cfg.Concurrency {
		id := strconv.Itoa(i + 1)
		g.Go(func() error {
			r.workerLoop(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
	r.logger.InfoContext(ctx, "delivery runner stopped")
	return ctx.Err()
}

// workerLoop runs tasks back to back, sleeping after an empty queue or an error.
func (r *Runner) workerLoop(ctx context.Context, workerID string) {
	streak := 0
	for ctx.Err() == nil {
		outcome, err := r.executor.ExecuteTask(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			streak++
			r.logger.ErrorContext(ctx, "delivery task failed",
				"worker_id", workerID,
				"consecutive_errors", streak,
				"error", err,
			)
			r.maybeNotify(ctx, workerID, streak, err)
			_ = notify.SleepContext(ctx, r.cfg.ErrorBackoff)
		case outcome == model.DeliveryOutcomeEmptyQueue:
			streak = 0
			_ = notify.SleepContext(ctx, r.cfg.EmptyQueueBackoff)
		default:
			streak = 0
		}
	}
}

// maybeNotify alerts once per error streak, when it reaches AlertAfterErrors.
func (r *Runner) maybeNotify(ctx context.Context, workerID string, streak int, err error) {
	if !r.notifier.Enabled() || r.cfg.AlertAfterErrors == 0 || streak != r.cfg.AlertAfterErrors {
		return
	}
	r.notifier.NotifyWorkerFailure(ctx, notify.WorkerFailurePayload{
		Worker:            workerName,
		WorkerID:          workerID,
		ConsecutiveErrors: streak,
		Error:             fmt.Sprintf("%d consecutive delivery errors: %v", streak, err),
		ErrorClass:        obserrors.Classify(err),
	})
}
