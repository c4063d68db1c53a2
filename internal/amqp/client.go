package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"entrate/internal/core"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Client publishes and consumes record messages over AMQP. A small circuit
// breaker keeps a dead broker from slowing down every request: after
// maxFailures consecutive failures publishing stops until openTimeout passes.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64 // atomic
	state        int32 // atomic
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.ensureConnection(); err != nil {
		return nil, err
	}
	return client, nil
}

// deleteQueue is the companion queue carrying record deletions.
func (c *Client) deleteQueue() string {
	return c.queueName + ".delete"
}

// ensureConnection dials and declares the topology when no healthy
// connection exists yet.
func (c *Client) ensureConnection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() && c.channel != nil {
		return nil
	}

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queues: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func (c *Client) setup(channel *amqp091.Channel) error {
	// Declare exchange
	err := channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// One durable queue per message kind, bound with its name as routing key
	for _, queue := range []string{c.queueName, c.deleteQueue()} {
		_, err = channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		err = channel.QueueBind(
			queue,          // queue name
			queue,          // routing key
			c.exchangeName, // exchange
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) currentChannel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// PublishRecordSync publishes a record sync message for the mirror worker.
func (c *Client) PublishRecordSync(ctx context.Context, r core.IncomeRecord) error {
	msg := NewRecordSyncMessage(r)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.queueName, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published record sync message",
		"id", r.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishRecordDelete publishes a record delete message.
func (c *Client) PublishRecordDelete(ctx context.Context, id int64) error {
	msg := NewRecordDeleteMessage(id)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.deleteQueue(), body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published record delete message",
		"id", id,
		"exchange", c.exchangeName,
		"queue", c.deleteQueue())
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, not publishing to %s", routingKey)
	}
	if err := c.ensureConnection(); err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.currentChannel().PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.closeConnection()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// ConsumeRecordSync delivers sync messages to handler until ctx ends. Lost
// connections are retried with exponential backoff; a failed handler nacks
// the delivery back onto the queue.
func (c *Client) ConsumeRecordSync(ctx context.Context, handler func(*RecordSyncMessage) error) error {
	return c.runConsumer(ctx, c.queueName, func(ctx context.Context, delivery amqp091.Delivery) {
		msg, err := RecordSyncMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal sync message", "error", err)
			delivery.Nack(false, false) // reject and don't requeue
			return
		}

		if err := handler(msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle sync message",
				"error", err,
				"id", msg.ID)
			delivery.Nack(false, true) // reject and requeue
			return
		}

		delivery.Ack(false)
	})
}

// ConsumeRecordDelete delivers delete messages to handler until ctx ends.
func (c *Client) ConsumeRecordDelete(ctx context.Context, handler func(*RecordDeleteMessage) error) error {
	return c.runConsumer(ctx, c.deleteQueue(), func(ctx context.Context, delivery amqp091.Delivery) {
		msg, err := RecordDeleteMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal delete message", "error", err)
			delivery.Nack(false, false)
			return
		}

		if err := handler(msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle delete message",
				"error", err,
				"id", msg.ID)
			delivery.Nack(false, true)
			return
		}

		delivery.Ack(false)
	})
}

func (c *Client) runConsumer(ctx context.Context, queue string, process func(context.Context, amqp091.Delivery)) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.ensureConnection(); err != nil {
			wait := exponentialBackoff(attempt)
			attempt++
			slog.WarnContext(ctx, "AMQP connection unavailable, backing off",
				"queue", queue,
				"wait", wait,
				"error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		msgs, err := c.currentChannel().Consume(
			queue, // queue
			"",    // consumer
			false, // auto-ack (we want manual ack)
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,   // args
		)
		if err != nil {
			c.closeConnection()
			wait := exponentialBackoff(attempt)
			attempt++
			slog.WarnContext(ctx, "Failed to start consuming, backing off",
				"queue", queue,
				"wait", wait,
				"error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		slog.InfoContext(ctx, "Started consuming messages", "queue", queue)
		attempt = 0

	deliveries:
		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
				return ctx.Err()
			case delivery, ok := <-msgs:
				if !ok {
					slog.WarnContext(ctx, "Delivery channel closed, reconnecting", "queue", queue)
					c.closeConnection()
					break deliveries
				}
				process(ctx, delivery)
			}
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	if time.Since(c.lastFailure) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	failures := atomic.AddInt64(&c.failureCount, 1)
	c.lastFailure = time.Now()
	if failures >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns the wait before reconnect attempt n: 1s, 2s,
// 4s... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return 30 * time.Second
	}
	return time.Duration(1<<attempt) * time.Second
}

// isConnectionError reports whether err looks like a broken transport rather
// than a protocol-level failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
