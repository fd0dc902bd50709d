package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the queue notifications are published to.
const DefaultQueue = "circles.notifications"

// dialTimeout caps connection setup when the caller sets no deadline.
const dialTimeout = 5 * time.Second

// AMQPSender publishes notifications as persistent JSON messages to a
// durable RabbitMQ queue through the default exchange.
type AMQPSender struct {
	url   string
	queue string

	// sem guards conn and ch. It is a channel rather than a mutex so that
	// waiting for it honours the caller's context.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPSender dials the broker and declares the queue.
func NewAMQPSender(url, queue string) (*AMQPSender, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	s := &AMQPSender{url: url, queue: queue, sem: make(chan struct{}, 1)}
	if err := s.connectLocked(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AMQPSender) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rabbitmq: waiting for connection: %w", ctx.Err())
	}
}

func (s *AMQPSender) unlock() { <-s.sem }

func (s *AMQPSender) connectLocked(ctx context.Context) error {
	timeout := dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return fmt.Errorf("rabbitmq: dial skipped: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(s.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		s.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	s.conn, s.ch = conn, ch
	return nil
}

// Send publishes the notification. A closed connection is redialled once.
func (s *AMQPSender) Send(ctx context.Context, kind Kind, recipient string, data map[string]string) error {
	body, err := json.Marshal(Message{
		Kind:      kind,
		Recipient: recipient,
		Data:      data,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal notification failed: %w", err)
	}

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if s.conn == nil || s.conn.IsClosed() || s.ch == nil || s.ch.IsClosed() {
		slog.WarnContext(ctx, "rabbitmq: reconnecting", "queue", s.queue)
		if err := s.connectLocked(ctx); err != nil {
			return err
		}
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(kind),
		Body:         body,
	}
	if err := s.ch.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (s *AMQPSender) Close() error {
	s.sem <- struct{}{}
	defer s.unlock()
	if s.ch != nil {
		s.ch.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
