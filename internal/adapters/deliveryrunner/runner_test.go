package deliveryrunner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/observability/notify"
	"github.com/target/newsletter-api/internal/service/failurenotifier"
)

type step struct {
	outcome model.DeliveryOutcome
	err     error
}

// scriptedExecutor replays steps, then cancels the run once they are used up.
type scriptedExecutor struct {
	mu     sync.Mutex
	steps  []step
	calls  int
	times  []time.Time
	cancel context.CancelFunc
}

func (e *scriptedExecutor) ExecuteTask(context.Context) (model.DeliveryOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.times = append(e.times, time.Now())
	if len(e.steps) == 0 {
		e.cancel()
		return model.DeliveryOutcomeEmptyQueue, nil
	}
	s := e.steps[0]
	e.steps = e.steps[1:]
	return s.outcome, s.err
}

func fastConfig() config.DeliveryWorkerConfig {
	return config.DeliveryWorkerConfig{
		Concurrency:       1,
		EmptyQueueBackoff: time.Millisecond,
		ErrorBackoff:      time.Millisecond,
		AlertAfterErrors:  2,
	}
}

func TestNewRunner_RequiresExecutor(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunner_KeepsGoingAfterErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &scriptedExecutor{
		cancel: cancel,
		steps: []step{
			{outcome: model.DeliveryOutcomeTaskCompleted},
			{err: errors.New("db down")},
			{outcome: model.DeliveryOutcomeEmptyQueue},
			{outcome: model.DeliveryOutcomeTaskCompleted},
		},
	}
	runner, err := NewRunner(RunnerOptions{Executor: exec, Config: fastConfig()})
	require.NoError(t, err)

	err = runner.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, exec.calls)
}

func TestRunner_NotifiesOncePerErrorStreak(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		payloads []notify.WorkerFailurePayload
	)
	notifier := failurenotifier.NewService(failurenotifier.Options{
		Sinks: []failurenotifier.SinkRegistration{{
			Name: "capture",
			Sink: notify.SinkFunc(func(_ context.Context, p notify.WorkerFailurePayload) error {
				mu.Lock()
				defer mu.Unlock()
				payloads = append(payloads, p)
				return nil
			}),
		}},
	})

	boom := errors.New("smtp down")
	exec := &scriptedExecutor{
		cancel: cancel,
		steps: []step{
			{err: boom}, {err: boom}, {err: boom},
			{outcome: model.DeliveryOutcomeTaskCompleted},
			{err: boom}, {err: boom},
		},
	}
	runner, err := NewRunner(RunnerOptions{Executor: exec, Config: fastConfig(), FailureNotifier: notifier})
	require.NoError(t, err)

	_ = runner.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 2)
	assert.Equal(t, "delivery-worker", payloads[0].Worker)
	assert.Equal(t, "1", payloads[0].WorkerID)
	assert.Equal(t, 2, payloads[0].ConsecutiveErrors)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &scriptedExecutor{cancel: cancel}
	cfg := fastConfig()
	cfg.Concurrency = 3
	runner, err := NewRunner(RunnerOptions{Executor: exec, Config: cfg})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_BackoffPerOutcome(t *testing.T) {
	const (
		short = time.Millisecond
		long  = 400 * time.Millisecond
	)
	tests := []struct {
		name    string
		cfg     config.DeliveryWorkerConfig
		first   step
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "empty queue waits for the empty queue backoff",
			cfg:     config.DeliveryWorkerConfig{Concurrency: 1, EmptyQueueBackoff: long, ErrorBackoff: short},
			first:   step{outcome: model.DeliveryOutcomeEmptyQueue},
			wantMin: long,
			wantMax: 10 * long,
		},
		{
			name:    "error waits for the error backoff",
			cfg:     config.DeliveryWorkerConfig{Concurrency: 1, EmptyQueueBackoff: short, ErrorBackoff: long},
			first:   step{err: errors.New("db down")},
			wantMin: long,
			wantMax: 10 * long,
		},
		{
			name:    "empty queue ignores the error backoff",
			cfg:     config.DeliveryWorkerConfig{Concurrency: 1, EmptyQueueBackoff: short, ErrorBackoff: long},
			first:   step{outcome: model.DeliveryOutcomeEmptyQueue},
			wantMax: long / 2,
		},
		{
			name:    "error ignores the empty queue backoff",
			cfg:     config.DeliveryWorkerConfig{Concurrency: 1, EmptyQueueBackoff: long, ErrorBackoff: short},
			first:   step{err: errors.New("db down")},
			wantMax: long / 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			exec := &scriptedExecutor{cancel: cancel, steps: []step{tt.first}}
			runner, err := NewRunner(RunnerOptions{Executor: exec, Config: tt.cfg})
			require.NoError(t, err)

			_ = runner.Run(ctx)

			require.Len(t, exec.times, 2)
			gap := exec.times[1].Sub(exec.times[0])
			assert.GreaterOrEqual(t, gap, tt.wantMin)
			assert.Less(t, gap, tt.wantMax)
		})
	}
}

func TestRunner_CompletedTasksRunBackToBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &scriptedExecutor{
		cancel: cancel,
		steps: []step{
			{outcome: model.DeliveryOutcomeTaskCompleted},
			{outcome: model.DeliveryOutcomeTaskCompleted},
			{outcome: model.DeliveryOutcomeTaskCompleted},
			{outcome: model.DeliveryOutcomeTaskCompleted},
		},
	}
	cfg := config.DeliveryWorkerConfig{
		Concurrency:       1,
		EmptyQueueBackoff: time.Second,
		ErrorBackoff:      time.Second,
	}
	runner, err := NewRunner(RunnerOptions{Executor: exec, Config: cfg})
	require.NoError(t, err)

	start := time.Now()
	_ = runner.Run(ctx)

	assert.Equal(t, 5, exec.calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
