// Package amqp publishes newsletter domain events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/target/newsletter-api/internal/core"
)

// RoutingKeyIssuePublished is the routing key of IssuePublishedEvent messages.
const RoutingKeyIssuePublished = "newsletter.issue_published"

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Config configures the publisher.
type Config struct {
	URL      string
	Exchange string
	Logger   *slog.Logger
}

// Publisher implements core.EventPublisher. A channel is not safe for concurrent
// publishing, so sends are serialized.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	logger   *slog.Logger
	now      func() time.Time
}

var _ core.EventPublisher = (*Publisher)(nil)

// Dial connects to the broker and declares the durable topic exchange.
func Dial(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := newPublisher(ch, cfg)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, cfg Config) (*Publisher, error) {
	if cfg.Exchange == "" {
		return nil, errors.New("amqp exchange is required")
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		ch:       ch,
		exchange: cfg.Exchange,
		logger:   logger.With("component", "amqp_publisher"),
		now:      time.Now,
	}, nil
}

// PublishIssuePublished sends evt as a persistent JSON message.
func (p *Publisher) PublishIssuePublished(ctx context.Context, evt core.IssuePublishedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, RoutingKeyIssuePublished, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.IssueID,
		Timestamp:    p.now().UTC(),
		Type:         RoutingKeyIssuePublished,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKeyIssuePublished, err)
	}
	p.logger.DebugContext(ctx, "event published", "routing_key", RoutingKeyIssuePublished, "issue_id", evt.IssueID)
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
