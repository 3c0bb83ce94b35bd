// Package reaper provides adapters for running the retention reaper.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/data"
	"github.com/target/newsletter-api/internal/observability/statsd"
	"github.com/target/newsletter-api/internal/service"
)

// Runner provides a simple adapter to run the reaper loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.ReaperConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.ReaperRepository
	Metrics statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && opts.Repo == nil {
		return nil, errors.New("either DB or Repo must be provided")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	repo := opts.Repo
	if repo == nil {
		repo = NewRepository(opts.DB)
	}

	reaper, err := service.NewReaperService(service.ReaperServiceOptions{
		Repo:    repo,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{reaper: reaper, logger: opts.Logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner")
	return r.reaper.Run(ctx)
}

// RunOnce performs a single cleanup pass.
func (r *Runner) RunOnce(ctx context.Context) (service.CleanupReport, error) {
	return r.reaper.RunOnce(ctx)
}

// NewRepository combines the idempotency and subscription repositories into the
// retention surface the reaper needs.
func NewRepository(db *sql.DB) core.ReaperRepository {
	cfg := data.RepoConfig{}
	return &reaperRepoAdapter{
		idempotency:   data.NewIdempotencyRepo(db, cfg),
		subscriptions: data.NewSubscriptionRepo(db, cfg),
	}
}

type reaperRepoAdapter struct {
	idempotency   *data.IdempotencyRepo
	subscriptions *data.SubscriptionRepo
}

func (a *reaperRepoAdapter) DeleteExpiredIdempotency(ctx context.Context, params core.RetentionParams) (int64, error) {
	return a.idempotency.DeleteCreatedBefore(ctx, params)
}

func (a *reaperRepoAdapter) DeleteStalePendingSubscriptions(
	ctx context.Context,
	params core.RetentionParams,
) (int64, error) {
	return a.subscriptions.DeleteStalePending(ctx, params)
}
