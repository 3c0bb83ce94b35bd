package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/newsletter-api/config"
	"github.com/target/newsletter-api/internal/core"
)

type stubRepo struct {
	idem    []int64
	pending []int64
}

func (s *stubRepo) DeleteExpiredIdempotency(context.Context, core.RetentionParams) (int64, error) {
	return pop(&s.idem), nil
}

func (s *stubRepo) DeleteStalePendingSubscriptions(context.Context, core.RetentionParams) (int64, error) {
	return pop(&s.pending), nil
}

func pop(vals *[]int64) int64 {
	if len(*vals) == 0 {
		return 0
	}
	v := (*vals)[0]
	*vals = (*vals)[1:]
	return v
}

func TestNewRunner_RequiresRepoOrDB(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	require.Error(t, err)
}

func TestRunner_RunOnce(t *testing.T) {
	repo := &stubRepo{idem: []int64{10, 3}, pending: []int64{2}}
	runner, err := NewRunner(RunnerOptions{
		Repo: repo,
		Config: config.ReaperConfig{
			Interval:                  time.Minute,
			IdempotencyMaxAge:         time.Hour,
			PendingSubscriptionMaxAge: time.Hour,
			BatchSize:                 10,
		},
	})
	require.NoError(t, err)

	report, err := runner.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(13), report.IdempotencyRecords)
	assert.Equal(t, int64(2), report.PendingSubscriptions)
}
