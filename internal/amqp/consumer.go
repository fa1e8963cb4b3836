package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// ErrDeliveriesClosed is returned when the broker closes the delivery channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// IngestedHandler processes one decoded event. A returned error requeues
// the delivery.
type IngestedHandler func(ctx context.Context, msg *StatementIngestedMessage) error

// ConsumeStatementIngested declares a durable queue bound to the client's
// routing key and feeds every delivery to handler until ctx ends.
// Malformed bodies are dropped without requeue.
func (c *Client) ConsumeStatementIngested(ctx context.Context, queue string, handler IngestedHandler) error {
	c.mu.Lock()
	if c.channel == nil || c.channel.IsClosed() {
		if err := c.reconnect(ctx); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("reconnect: %w", err)
		}
	}
	msgs, err := c.bindAndConsume(queue)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Started consuming statement events",
		"queue", queue,
		"exchange", c.exchangeName,
		"routing_key", c.routingKey)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			handleDelivery(ctx, delivery, handler)
		}
	}
}

func (c *Client) bindAndConsume(queue string) (<-chan amqp091.Delivery, error) {
	q, err := c.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := c.channel.QueueBind(q.Name, c.routingKey, c.exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if err := c.channel.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	return msgs, nil
}

// acknowledger is the part of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type delivery interface {
	acknowledger
	body() []byte
}

type amqpDelivery struct{ amqp091.Delivery }

func (d amqpDelivery) body() []byte { return d.Body }

func handleDelivery(ctx context.Context, d amqp091.Delivery, handler IngestedHandler) {
	settle(ctx, amqpDelivery{d}, handler, requeueDelay)
}

// settle acks a handled delivery, drops a malformed one and requeues one
// whose handler failed after waiting delay or until ctx ends.
func settle(ctx context.Context, d delivery, handler IngestedHandler, delay time.Duration) {
	msg, err := StatementIngestedMessageFromJSON(d.body())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"entry", msg.Entry,
			"version", msg.Version,
			"requeue_in", delay)
		wait := time.NewTimer(delay)
		select {
		case <-wait.C:
		case <-ctx.Done():
			wait.Stop()
		}
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
	slog.DebugContext(ctx, "Processed statement event",
		"entry", msg.Entry,
		"version", msg.Version)
}
