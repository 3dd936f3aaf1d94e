// Package amqpbus is the submission intake transport: a thin wrapper over
// amqp091-go's Channel.Publish/Consume.
package amqpbus

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/eclipse-pass/deposit-orchestrator/internal/mlog"
)

// Conn holds one AMQP connection and channel, reused for both publishing
// and consuming.
type Conn struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect dials rawURL and opens a channel.
func Connect(rawURL string) (*Conn, error) {
	conn, err := amqp.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("amqpbus: dialing broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqpbus: opening channel: %w", err)
	}

	return &Conn{conn: conn, ch: ch}, nil
}

// Close tears down the channel and connection.
func (c *Conn) Close() error {
	if err := c.ch.Close(); err != nil {
		return err
	}

	return c.conn.Close()
}

// Publish sends body to exchange/key as a persistent message.
func (c *Conn) Publish(ctx context.Context, exchange, key string, body []byte) error {
	return c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Handler processes one delivery's body. A non-nil return nacks and
// requeues the delivery; nil acks it.
type Handler func(ctx context.Context, body []byte) error

// Consume declares queue (idempotently) and runs handler for every
// delivery until ctx is cancelled. It blocks.
func (c *Conn) Consume(ctx context.Context, queue string, handler Handler) error {
	log := mlog.FromContext(ctx)

	if _, err := c.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqpbus: declaring queue %s: %w", queue, err)
	}

	deliveries, err := c.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqpbus: registering consumer on %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqpbus: delivery channel for %s closed", queue)
			}

			if err := handler(ctx, d.Body); err != nil {
				log.Errorf("amqpbus: handler failed for queue %s: %v", queue, err)
				_ = d.Nack(false, true)
				continue
			}

			_ = d.Ack(false)
		}
	}
}
