package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/newsletter-api/internal/core"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	published  []published
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	if kind != amqp.ExchangeTopic || !durable {
		return errors.New("unexpected exchange settings")
	}
	f.declared = append(f.declared, name)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_PublishIssuePublished(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, Config{Exchange: "newsletter.events"})
	require.NoError(t, err)
	assert.Equal(t, []string{"newsletter.events"}, ch.declared)

	evt := core.IssuePublishedEvent{
		IssueID:     "6f1c1d2e-0000-4000-8000-000000000001",
		Title:       "Issue #1",
		TaskCount:   3,
		PublishedBy: "editor",
		PublishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishIssuePublished(context.Background(), evt))

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, "newsletter.events", got.exchange)
	assert.Equal(t, RoutingKeyIssuePublished, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, evt.IssueID, got.msg.MessageId)

	var decoded core.IssuePublishedEvent
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, evt, decoded)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_Errors(t *testing.T) {
	_, err := newPublisher(&fakeChannel{}, Config{})
	require.Error(t, err)

	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := newPublisher(ch, Config{Exchange: "x"})
	require.NoError(t, err)
	err = p.PublishIssuePublished(context.Background(), core.IssuePublishedEvent{IssueID: "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), RoutingKeyIssuePublished)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.PublishIssuePublished(ctx, core.IssuePublishedEvent{}), context.Canceled)

	_, err = Dial(Config{})
	require.Error(t, err)
}
