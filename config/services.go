package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeDeliveryWorker drains the issue delivery queue.
	ServiceModeDeliveryWorker ServiceMode = "delivery-worker"
	// ServiceModeReaper runs retention cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeDeliveryWorker,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeDeliveryWorker, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, delivery-worker, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// DeliveryWorkerConfig contains delivery worker configuration.
type DeliveryWorkerConfig struct {
	// Concurrency is the number of polling loops run by one process.
	Concurrency int `env:"DELIVERY_WORKER_CONCURRENCY" envDefault:"1"`

	// EmptyQueueBackoff is how long a loop sleeps after finding no task.
	EmptyQueueBackoff time.Duration `env:"DELIVERY_WORKER_EMPTY_QUEUE_BACKOFF" envDefault:"10s"`

	// ErrorBackoff is how long a loop sleeps after an unexpected error.
	ErrorBackoff time.Duration `env:"DELIVERY_WORKER_ERROR_BACKOFF" envDefault:"1s"`

	// AlertAfterErrors is the number of consecutive loop errors that triggers a failure notification.
	// Zero disables notifications.
	AlertAfterErrors int `env:"DELIVERY_WORKER_ALERT_AFTER_ERRORS" envDefault:"5"`
}

// Sanitize applies guardrails to delivery worker configuration values.
func (d *DeliveryWorkerConfig) Sanitize() {
	if d.Concurrency < 1 {
		d.Concurrency = 1
	}
	if d.Concurrency > 64 {
		d.Concurrency = 64
	}
	if d.EmptyQueueBackoff <= 0 {
		d.EmptyQueueBackoff = 10 * time.Second
	}
	if d.ErrorBackoff <= 0 {
		d.ErrorBackoff = time.Second
	}
	if d.AlertAfterErrors < 0 {
		d.AlertAfterErrors = 0
	}
}

// ReaperConfig contains retention cleanup configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// IdempotencyMaxAge is how long saved publish responses stay replayable.
	IdempotencyMaxAge time.Duration `env:"REAPER_IDEMPOTENCY_MAX_AGE" envDefault:"48h"`

	// PendingSubscriptionMaxAge is how long an unconfirmed subscription is kept.
	PendingSubscriptionMaxAge time.Duration `env:"REAPER_PENDING_SUBSCRIPTION_MAX_AGE" envDefault:"168h"` // 7 days

	// BatchSize is the maximum number of rows to delete per statement.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.IdempotencyMaxAge < 1*time.Hour {
		r.IdempotencyMaxAge = 1 * time.Hour
	}
	if r.PendingSubscriptionMaxAge < 1*time.Hour {
		r.PendingSubscriptionMaxAge = 1 * time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
