// Package notify defines the payload and sink contract for background worker failure alerts.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// WorkerFailurePayload describes a background loop that keeps failing.
type WorkerFailurePayload struct {
	// Worker names the loop, e.g. "delivery-worker".
	Worker string
	// WorkerID distinguishes loops within one process.
	WorkerID          string
	ConsecutiveErrors int
	Error             string
	ErrorClass        string
	Severity          string
	OccurredAt        time.Time
	Metadata          map[string]string
}

// DedupKey groups notifications for the same loop.
func (p WorkerFailurePayload) DedupKey() string {
	if p.WorkerID == "" {
		return p.Worker
	}
	return p.Worker + ":" + p.WorkerID
}

// Sink describes a destination capable of consuming worker failure notifications.
type Sink interface {
	SendWorkerFailure(ctx context.Context, payload WorkerFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload WorkerFailurePayload) error

// SendWorkerFailure implements the Sink interface.
func (f SinkFunc) SendWorkerFailure(ctx context.Context, payload WorkerFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// RetryDelay is the linear backoff used by webhook sinks between attempts.
func RetryDelay(attempt int) time.Duration {
	return time.Duration(attempt+1) * 200 * time.Millisecond
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
