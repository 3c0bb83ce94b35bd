package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/newsletter-api/internal/core"
	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/mocks"
	"github.com/target/newsletter-api/internal/observability/statsd"
	"go.uber.org/mock/gomock"
)

type deliveryFixture struct {
	tx      *fakeTx
	queue   *mocks.MockDeliveryQueueRepository
	issues  *mocks.MockIssueRepository
	email   *mocks.MockEmailSender
	metrics *statsd.Recorder
	svc     *DeliveryService
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &deliveryFixture{
		tx:      &fakeTx{},
		queue:   mocks.NewMockDeliveryQueueRepository(ctrl),
		issues:  mocks.NewMockIssueRepository(ctrl),
		email:   mocks.NewMockEmailSender(ctrl),
		metrics: &statsd.Recorder{},
	}
	var err error
	f.svc, err = NewDeliveryService(DeliveryServiceOptions{
		Tx:      f.tx,
		Queue:   f.queue,
		Issues:  f.issues,
		Email:   f.email,
		Logger:  discardLogger(),
		Metrics: f.metrics,
	})
	require.NoError(t, err)
	return f
}

var testIssue = &model.NewsletterIssue{
	ID:          "issue-1",
	Title:       "Weekly",
	TextContent: "hello",
	HTMLContent: "<p>hello</p>",
}

func TestDeliveryService_ExecuteTask_EmptyQueue(t *testing.T) {
	f := newDeliveryFixture(t)
	f.queue.EXPECT().DequeueTx(gomock.Any(), gomock.Nil()).Return(nil, nil)

	outcome, err := f.svc.ExecuteTask(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryOutcomeEmptyQueue, outcome)
	task := f.metrics.Named("delivery.task")
	require.Len(t, task, 1)
	assert.Equal(t, "noop", task[0].Tags["result"])
	assert.Empty(t, f.metrics.Named("delivery.email"))
}

func TestDeliveryService_ExecuteTask_SendsAndDeletes(t *testing.T) {
	f := newDeliveryFixture(t)
	task := &model.DeliveryTask{IssueID: "issue-1", SubscriberEmail: "ursula@example.com"}

	gomock.InOrder(
		f.queue.EXPECT().DequeueTx(gomock.Any(), gomock.Nil()).Return(task, nil),
		f.issues.EXPECT().GetByIDTx(gomock.Any(), gomock.Nil(), "issue-1").Return(testIssue, nil),
		f.email.EXPECT().SendEmail(gomock.Any(), core.SendEmailRequest{
			Recipient: "ursula@example.com",
			Subject:   "Weekly",
			HTMLBody:  "<p>hello</p>",
			TextBody:  "hello",
		}).Return(nil),
		f.queue.EXPECT().DeleteTx(gomock.Any(), gomock.Nil(), *task).Return(nil),
	)

	outcome, err := f.svc.ExecuteTask(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryOutcomeTaskCompleted, outcome)
	assert.Equal(t, 1, f.tx.commits)
	sent := f.metrics.Named("delivery.email")
	require.Len(t, sent, 1)
	assert.Equal(t, "true", sent[0].Tags["sent"])
}

func TestDeliveryService_ExecuteTask_SendFailureStillDeletes(t *testing.T) {
	f := newDeliveryFixture(t)
	task := &model.DeliveryTask{IssueID: "issue-1", SubscriberEmail: "ursula@example.com"}

	f.queue.EXPECT().DequeueTx(gomock.Any(), gomock.Any()).Return(task, nil)
	f.issues.EXPECT().GetByIDTx(gomock.Any(), gomock.Any(), "issue-1").Return(testIssue, nil)
	f.email.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Return(errors.New("provider 500"))
	f.queue.EXPECT().DeleteTx(gomock.Any(), gomock.Any(), *task).Return(nil)

	outcome, err := f.svc.ExecuteTask(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryOutcomeTaskCompleted, outcome)
	assert.Equal(t, 1, f.tx.commits)
	sent := f.metrics.Named("delivery.email")
	require.Len(t, sent, 1)
	assert.Equal(t, "false", sent[0].Tags["sent"])
}

func TestDeliveryService_ExecuteTask_InvalidRecipientIsDropped(t *testing.T) {
	f := newDeliveryFixture(t)
	task := &model.DeliveryTask{IssueID: "issue-1", SubscriberEmail: "not-an-email"}

	f.queue.EXPECT().DequeueTx(gomock.Any(), gomock.Any()).Return(task, nil)
	f.queue.EXPECT().DeleteTx(gomock.Any(), gomock.Any(), *task).Return(nil)

	outcome, err := f.svc.ExecuteTask(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryOutcomeTaskCompleted, outcome)
}

func TestDeliveryService_ExecuteTask_MissingIssueRollsBack(t *testing.T) {
	f := newDeliveryFixture(t)
	task := &model.DeliveryTask{IssueID: "issue-1", SubscriberEmail: "ursula@example.com"}

	f.queue.EXPECT().DequeueTx(gomock.Any(), gomock.Any()).Return(task, nil)
	f.issues.EXPECT().GetByIDTx(gomock.Any(), gomock.Any(), "issue-1").Return(nil, model.ErrIssueNotFound)

	outcome, err := f.svc.ExecuteTask(context.Background())

	require.ErrorIs(t, err, model.ErrIssueNotFound)
	assert.Empty(t, outcome)
	assert.Equal(t, 1, f.tx.rollbacks)
	task0 := f.metrics.Named("delivery.task")
	require.Len(t, task0, 1)
	assert.Equal(t, "error", task0[0].Tags["result"])
}

func TestDeliveryService_ExecuteTask_DequeueError(t *testing.T) {
	f := newDeliveryFixture(t)
	f.queue.EXPECT().DequeueTx(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := f.svc.ExecuteTask(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, f.tx.rollbacks)
}
