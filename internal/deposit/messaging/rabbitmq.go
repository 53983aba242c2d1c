package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deposit-dashboard/internal/deposit"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	contentTypeJSON = "application/json"
	exchangeKind    = amqp.ExchangeFanout
)

// DeclareEvents declares the durable fanout exchange product events go
// through. Publisher and subscribers both declare it, so either may start first.
func DeclareEvents(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(deposit.EventsExchange, exchangeKind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %q: %w", deposit.EventsExchange, err)
	}
	return nil
}

// Subscribe declares a server-named queue bound to the events exchange and
// returns its name. The queue lives as long as ch's connection, so every
// subscriber sees every event.
func Subscribe(ch *amqp.Channel) (string, error) {
	if err := DeclareEvents(ch); err != nil {
		return "", err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("declare subscriber queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", deposit.EventsExchange, false, nil); err != nil {
		return "", fmt.Errorf("bind %q to %q: %w", q.Name, deposit.EventsExchange, err)
	}
	return q.Name, nil
}

// Message builds the AMQP message for a product event.
func Message(event deposit.ProductEvent) (amqp.Publishing, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return amqp.Publishing{
		ContentType: contentTypeJSON,
		Type:        event.EventType,
		MessageId:   fmt.Sprintf("%s-%d", event.EventType, event.ProductID),
		Timestamp:   ts,
		Body:        payload,
	}, nil
}

type RabbitPublisher struct {
	channel *amqp.Channel
}

func NewRabbitPublisher(conn *amqp.Connection) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := DeclareEvents(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &RabbitPublisher{channel: ch}, nil
}

// Publish fans event out to every subscribed dashboard. With no subscribers
// bound the broker drops it.
func (p *RabbitPublisher) Publish(ctx context.Context, event deposit.ProductEvent) error {
	msg, err := Message(event)
	if err != nil {
		return err
	}

	if err := p.channel.PublishWithContext(ctx, deposit.EventsExchange, event.EventType, false, false, msg); err != nil {
		return fmt.Errorf("publish %s to %q: %w", event.EventType, deposit.EventsExchange, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	return p.channel.Close()
}
