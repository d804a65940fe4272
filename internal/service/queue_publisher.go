package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/roomescape-reservation/internal/queue"
)

// AMQPPublisher publishes reservation events to a durable RabbitMQ queue.
// It dials per publish.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url, queueName string, log zerolog.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queueName, log: log}
}

// Publish sends ev as a persistent JSON message through the default
// exchange with the queue name as routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug().Str("event_id", ev.EventID).Str("type", ev.Type).Msg("event published")
	return nil
}
