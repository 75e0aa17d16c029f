// Package events publishes domain events to RabbitMQ. Publishing happens after
// the database commit and is best effort: failures are logged and counted but
// never undo the change that produced the event.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"tokenbook/internal/logger"
	"tokenbook/internal/metrics"
)

const Exchange = "tokenbook.events"

const (
	BookingStatusChanged = "booking.status_changed"
	MessageFlagged       = "chat.message_flagged"
	DisputeFiled         = "dispute.filed"
	DisputeResolved      = "dispute.resolved"
)

type Envelope struct {
	ID         string          `json:"id"`
	RoutingKey string          `json:"routingKey"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher emits domain events. Publishing is best effort: implementations
// log and count their own failures, and callers never roll back or fail a
// request because an event could not be delivered. The returned error is
// informational.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// ErrDisconnected is returned while the broker link is down and a reconnect
// is pending.
var ErrDisconnected = errors.New("rabbitmq disconnected")

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Close() error
}

type dialFunc func() (*amqp.Connection, Channel, error)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// AMQPPublisher publishes over a single channel. When the broker closes the
// channel or its connection, a background loop redials with exponential
// backoff; publishes in the meantime fail with ErrDisconnected.
type AMQPPublisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     Channel
	redial dialFunc
	done   chan struct{}
	closed bool
	delay  time.Duration
	now    func() time.Time
}

// Dial connects to the broker and declares the durable topic exchange.
func Dial(url string) (*AMQPPublisher, error) {
	dial := func() (*amqp.Connection, Channel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
		}
		return conn, ch, nil
	}

	conn, ch, err := dial()
	if err != nil {
		return nil, err
	}
	p, err := newPublisher(conn, ch, dial)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

// NewPublisher wraps an already open channel. Without a dialer the publisher
// cannot reconnect; once the channel closes every publish fails.
func NewPublisher(ch Channel) (*AMQPPublisher, error) {
	return newPublisher(nil, ch, nil)
}

func newPublisher(conn *amqp.Connection, ch Channel, redial dialFunc) (*AMQPPublisher, error) {
	if err := declare(ch); err != nil {
		return nil, err
	}
	p := &AMQPPublisher{
		conn:   conn,
		ch:     ch,
		redial: redial,
		done:   make(chan struct{}),
		delay:  minReconnectDelay,
		now:    time.Now,
	}
	p.watch(ch)
	return p, nil
}

func declare(ch Channel) error {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}

// watch drops ch once the broker closes it and starts reconnecting. A close
// issued by Close ends the watcher without redialing.
func (p *AMQPPublisher) watch(ch Channel) {
	notify := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		var reason *amqp.Error
		select {
		case reason = <-notify:
		case <-p.done:
			return
		}

		p.mu.Lock()
		if p.closed || p.ch != ch {
			p.mu.Unlock()
			return
		}
		p.ch = nil
		if p.conn != nil && !p.conn.IsClosed() {
			_ = p.conn.Close()
		}
		p.conn = nil
		p.mu.Unlock()

		if reason != nil {
			logger.Warn("rabbitmq channel closed", "code", reason.Code, "reason", reason.Reason)
		} else {
			logger.Warn("rabbitmq channel closed")
		}
		p.reconnect()
	}()
}

func (p *AMQPPublisher) reconnect() {
	if p.redial == nil {
		return
	}
	delay := p.delay
	for {
		select {
		case <-p.done:
			return
		case <-time.After(delay):
		}

		conn, ch, err := p.redial()
		if err == nil {
			if err = declare(ch); err != nil {
				_ = ch.Close()
				if conn != nil {
					_ = conn.Close()
				}
			}
		}
		if err != nil {
			logger.WithError(err).Warn("rabbitmq reconnect failed", "retry_in", delay*2)
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = ch.Close()
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		p.conn, p.ch = conn, ch
		p.mu.Unlock()

		logger.Info("rabbitmq reconnected")
		p.watch(ch)
		return
	}
}

// Check reports whether the broker link is up. It backs the /health check.
func (p *AMQPPublisher) Check(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrDisconnected
	}
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	err := p.publish(ctx, routingKey, payload)
	status := "ok"
	if err != nil {
		status = "error"
		logger.WithError(err).Warn("event publish failed", "routing_key", routingKey)
	}
	metrics.RecordEvent(routingKey, status)
	return err
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := Envelope{
		ID:         uuid.NewString(),
		RoutingKey: routingKey,
		OccurredAt: p.now().UTC(),
		Payload:    raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return ErrDisconnected
	}

	return p.ch.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Timestamp:    env.OccurredAt,
		Type:         routingKey,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Nop discards events; used when EVENTS_ENABLED is false.
type Nop struct{}

func (Nop) Publish(ctx context.Context, routingKey string, payload any) error {
	logger.Debug("event dropped", "routing_key", routingKey)
	return nil
}
