// Package service publishes todo change events to RabbitMQ.  Publishing is
// best effort: callers log failures and carry on with the request.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/todo-api/internal/queue"
)

var (
	// ErrBufferFull is returned by Publish when the outbox is full.
	ErrBufferFull = errors.New("rabbitmq: event buffer full")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("rabbitmq: publisher closed")
)

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.TodoEvent) error { return nil }

// PublisherOptions tunes an EventPublisher.  Zero values pick the defaults.
type PublisherOptions struct {
	Buffer      int           // outbox size, default 256
	DialTimeout time.Duration // per dial attempt, default 2s
	Backoff     time.Duration // events are dropped this long after a failed dial, default 5s
	Logger      *slog.Logger
}

// EventPublisher queues events in a bounded outbox that a single goroutine
// drains to the broker.  Publish never dials, so a slow or unreachable
// broker does not hold up the request path.
type EventPublisher struct {
	queue   string
	logger  *slog.Logger
	dialTTL time.Duration
	backoff time.Duration

	mu      sync.RWMutex // guards closed against sends on pending
	closed  bool
	pending chan amqp.Publishing
	done    chan struct{}

	// owned by the drain goroutine
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
	dial    func() (*amqp.Connection, error)
}

// NewEventPublisher returns a publisher for the given broker URL and queue
// and starts its drain goroutine.  No connection is made until the first
// event is drained.
func NewEventPublisher(url, queueName string, opts PublisherOptions) *EventPublisher {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	dial := func() (*amqp.Connection, error) {
		return amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(opts.DialTimeout)})
	}
	return newEventPublisher(queueName, opts, dial)
}

func newEventPublisher(queueName string, opts PublisherOptions, dial func() (*amqp.Connection, error)) *EventPublisher {
	p := &EventPublisher{
		queue:   queueName,
		logger:  opts.Logger,
		dialTTL: opts.DialTimeout,
		backoff: opts.Backoff,
		pending: make(chan amqp.Publishing, opts.Buffer),
		done:    make(chan struct{}),
		dial:    dial,
	}
	go p.run()
	return p
}

// Publish marshals ev and places it in the outbox.  It does not block: when
// the outbox is full the event is dropped and ErrBufferFull returned.
func (p *EventPublisher) Publish(_ context.Context, ev queue.TodoEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.pending <- pub:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *EventPublisher) run() {
	defer close(p.done)
	defer p.reset()
	for pub := range p.pending {
		if err := p.send(pub); err != nil {
			p.logger.Warn("rabbitmq: event dropped", "type", pub.Type, "err", err)
		}
	}
}

func (p *EventPublisher) send(pub amqp.Publishing) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.dialTTL)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialing and declaring the queue first
// if needed.  After a failed dial it refuses to redial until the backoff
// window has passed.
func (p *EventPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if now := time.Now(); now.Before(p.retryAt) {
		return nil, fmt.Errorf("rabbitmq: broker unavailable, retry in %s", p.retryAt.Sub(now).Round(time.Millisecond))
	}

	conn, err := p.dial()
	if err != nil {
		p.retryAt = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.retryAt = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		p.retryAt = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *EventPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close stops accepting events, waits for the outbox to drain and releases
// the broker connection.  It is safe to call more than once.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.pending)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}
