package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"deposit-dashboard/internal/deposit"
	"deposit-dashboard/internal/deposit/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "deposit-dashboard"

type Invalidator interface {
	Invalidate(prefix string) int
}

// Consumer marks cached product queries stale when another client registers
// a product.
type Consumer struct {
	channel  *amqp.Channel
	queue    string
	resource string
	cache    Invalidator
	logger   *slog.Logger
}

// NewConsumer subscribes to product events with a queue of its own, so every
// dashboard replica invalidates its cache.
func NewConsumer(conn *amqp.Connection, resource string, cache Invalidator, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	queue, err := messaging.Subscribe(ch)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	return &Consumer{
		channel:  ch,
		queue:    queue,
		resource: resource,
		cache:    cache,
		logger:   logger,
	}, nil
}

// Queue is the server-named queue the consumer reads.
func (c *Consumer) Queue() string {
	return c.queue
}

func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %q: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := c.handle(msg.Body); err != nil {
				c.logger.Error("handle message failed", "error", err)
				// Malformed payloads never become valid; drop instead of requeueing.
				_ = msg.Nack(false, false)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var event deposit.ProductEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	if event.EventType != deposit.EventCreated {
		c.logger.Debug("ignoring product event", "event_type", event.EventType)
		return nil
	}

	marked := c.cache.Invalidate(c.resource)
	c.logger.Info("product event invalidated cache",
		"event_type", event.EventType,
		"product_id", event.ProductID,
		"entries", marked,
	)
	return nil
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
