package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/adapters/deliveryrunner"
	"github.com/target/newsletter-api/internal/adapters/reaper"
	"github.com/target/newsletter-api/internal/observability/statsd"
	"github.com/target/newsletter-api/internal/service/failurenotifier"
)

// DeliveryWorkerConfig contains configuration for the delivery worker.
type DeliveryWorkerConfig struct {
	Executor        deliveryrunner.TaskExecutor
	Config          config.DeliveryWorkerConfig
	Logger          *slog.Logger
	FailureNotifier *failurenotifier.Service
}

// RunDeliveryWorker drains the issue delivery queue until ctx is cancelled.
func RunDeliveryWorker(ctx context.Context, cfg DeliveryWorkerConfig) error {
	if cfg.Executor == nil {
		return errors.New("delivery worker requires a task executor")
	}
	runner, err := deliveryrunner.NewRunner(deliveryrunner.RunnerOptions{
		Executor:        cfg.Executor,
		Config:          cfg.Config,
		Logger:          cfg.Logger,
		FailureNotifier: cfg.FailureNotifier,
	})
	if err != nil {
		return fmt.Errorf("create delivery runner: %w", err)
	}
	return runner.Run(ctx)
}

// ReaperConfig contains configuration for reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics statsd.Sink
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
