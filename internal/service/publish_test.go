package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/idempotency"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/mocks"
	"github.com/target/newsletter-api/internal/observability/statsd"
	"go.uber.org/mock/gomock"
)

type publishFixture struct {
	tx      *fakeTx
	idem    *mocks.MockIdempotencyRepository
	issues  *mocks.MockIssueRepository
	queue   *mocks.MockDeliveryQueueRepository
	events  *mocks.MockEventPublisher
	metrics *statsd.Recorder
	svc     *PublishService
}

func newPublishFixture(t *testing.T) *publishFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &publishFixture{
		tx:      &fakeTx{},
		idem:    mocks.NewMockIdempotencyRepository(ctrl),
		issues:  mocks.NewMockIssueRepository(ctrl),
		queue:   mocks.NewMockDeliveryQueueRepository(ctrl),
		events:  mocks.NewMockEventPublisher(ctrl),
		metrics: &statsd.Recorder{},
	}
	idem, err := NewIdempotencyService(IdempotencyServiceOptions{Repo: f.idem, Logger: discardLogger()})
	require.NoError(t, err)
	f.svc, err = NewPublishService(PublishServiceOptions{
		Tx:          f.tx,
		Idempotency: idem,
		Repos:       PublishRepositories{Issues: f.issues, Queue: f.queue},
		Events:      f.events,
		Logger:      discardLogger(),
		Metrics:     f.metrics,
	})
	require.NoError(t, err)
	return f
}

func testPublishRequest() model.PublishIssueRequest {
	return model.PublishIssueRequest{Title: "T", TextContent: "t", HTMLContent: "<p>t</p>"}
}

func seeOtherResponse(*model.NewsletterIssue) (*idempotency.Response, error) {
	return &idempotency.Response{
		StatusCode: http.StatusSeeOther,
		Headers:    []idempotency.HeaderPair{{Name: "Location", Value: []byte("/admin/newsletters")}},
		Body:       []byte{},
	}, nil
}

func TestNewPublishService_RequiresDependencies(t *testing.T) {
	_, err := NewPublishService(PublishServiceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TxRunner is required")
}

func TestPublishService_Publish_FreshRequest(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t)
	scope := testScope(t, "user-1")
	issue := &model.NewsletterIssue{ID: "issue-1", Title: "T", PublishedAt: time.Now()}

	gomock.InOrder(
		f.idem.EXPECT().ClaimTx(gomock.Any(), gomock.Nil(), scope).Return(true, nil),
		f.issues.EXPECT().InsertTx(gomock.Any(), gomock.Nil(), testPublishRequest()).Return(issue, nil),
		f.queue.EXPECT().EnqueueConfirmedTx(gomock.Any(), gomock.Nil(), "issue-1").Return(int64(2), nil),
		f.idem.EXPECT().SaveTx(gomock.Any(), gomock.Nil(), gomock.Any()).Return(nil),
		f.events.EXPECT().PublishIssuePublished(gomock.Any(), core.IssuePublishedEvent{
			IssueID:     "issue-1",
			Title:       "T",
			TaskCount:   2,
			PublishedBy: "user-1",
			PublishedAt: issue.PublishedAt,
		}).Return(nil),
	)

	res, err := f.svc.Publish(ctx, PublishInput{Scope: scope, Request: testPublishRequest(), Render: seeOtherResponse})

	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.Equal(t, issue, res.Issue)
	assert.Equal(t, int64(2), res.TaskCount)
	assert.Equal(t, http.StatusSeeOther, res.Response.StatusCode)
	assert.Equal(t, 1, f.tx.commits)

	publish := f.metrics.Named("newsletter.publish")
	require.Len(t, publish, 1)
	assert.Equal(t, "success", publish[0].Tags["result"])
	enqueued := f.metrics.Named("newsletter.tasks_enqueued")
	require.Len(t, enqueued, 1)
	assert.InDelta(t, 2, enqueued[0].Value, 0)
}

func TestPublishService_Publish_ReplaysSavedResponse(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t)
	scope := testScope(t, "user-1")
	saved := &idempotency.Response{StatusCode: http.StatusSeeOther, Body: []byte{}}

	f.idem.EXPECT().ClaimTx(gomock.Any(), gomock.Nil(), scope).Return(false, nil)
	f.idem.EXPECT().GetSavedTx(gomock.Any(), gomock.Nil(), scope).Return(saved, nil)

	res, err := f.svc.Publish(ctx, PublishInput{
		Scope:   scope,
		Request: testPublishRequest(),
		Render: func(*model.NewsletterIssue) (*idempotency.Response, error) {
			t.Fatal("render must not run on replay")
			return nil, nil
		},
	})

	require.NoError(t, err)
	assert.True(t, res.Replayed)
	assert.Same(t, saved, res.Response)
	assert.Nil(t, res.Issue)

	publish := f.metrics.Named("newsletter.publish")
	require.Len(t, publish, 1)
	assert.Equal(t, "replay", publish[0].Tags["result"])
}

func TestPublishService_Publish_ZeroSubscribers(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t)
	issue := &model.NewsletterIssue{ID: "issue-1", Title: "T"}

	f.idem.EXPECT().ClaimTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	f.issues.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(issue, nil)
	f.queue.EXPECT().EnqueueConfirmedTx(gomock.Any(), gomock.Any(), "issue-1").Return(int64(0), nil)
	f.idem.EXPECT().SaveTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.events.EXPECT().PublishIssuePublished(gomock.Any(), gomock.Any()).Return(nil)

	res, err := f.svc.Publish(ctx, PublishInput{Scope: testScope(t, "u"), Request: testPublishRequest(), Render: seeOtherResponse})

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.TaskCount)
	assert.Equal(t, 1, f.tx.commits)
}

func TestPublishService_Publish_InvalidRequestTouchesNothing(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.svc.Publish(context.Background(), PublishInput{
		Scope:   testScope(t, "user-1"),
		Request: model.PublishIssueRequest{Title: "T"},
		Render:  seeOtherResponse,
	})

	require.ErrorIs(t, err, model.ErrIssueContentRequired)
	assert.Zero(t, f.tx.commits+f.tx.rollbacks)
}

func TestPublishService_Publish_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t)
	boom := errors.New("enqueue failed")

	f.idem.EXPECT().ClaimTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	f.issues.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(&model.NewsletterIssue{ID: "issue-1"}, nil)
	f.queue.EXPECT().EnqueueConfirmedTx(gomock.Any(), gomock.Any(), "issue-1").Return(int64(0), boom)

	_, err := f.svc.Publish(ctx, PublishInput{Scope: testScope(t, "u"), Request: testPublishRequest(), Render: seeOtherResponse})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, f.tx.rollbacks)
	assert.Zero(t, f.tx.commits)

	publish := f.metrics.Named("newsletter.publish")
	require.Len(t, publish, 1)
	assert.Equal(t, "error", publish[0].Tags["result"])
}

func TestPublishService_Publish_EventFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t)

	f.idem.EXPECT().ClaimTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	f.issues.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(&model.NewsletterIssue{ID: "issue-1"}, nil)
	f.queue.EXPECT().EnqueueConfirmedTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
	f.idem.EXPECT().SaveTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.events.EXPECT().PublishIssuePublished(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	res, err := f.svc.Publish(ctx, PublishInput{Scope: testScope(t, "u"), Request: testPublishRequest(), Render: seeOtherResponse})

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TaskCount)
}

func TestPublishService_Publish_RenderFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t)

	f.idem.EXPECT().ClaimTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	f.issues.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(&model.NewsletterIssue{ID: "issue-1"}, nil)
	f.queue.EXPECT().EnqueueConfirmedTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)

	_, err := f.svc.Publish(ctx, PublishInput{
		Scope:   testScope(t, "u"),
		Request: testPublishRequest(),
		Render: func(*model.NewsletterIssue) (*idempotency.Response, error) {
			return nil, errors.New("template")
		},
	})

	require.Error(t, err)
	assert.Equal(t, 1, f.tx.rollbacks)
}
