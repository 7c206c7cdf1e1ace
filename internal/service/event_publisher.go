// Package service holds background services fed by the ledger.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-reservation/internal/ledger"
	"github.com/iliyamo/parking-reservation/internal/queue"
)

// publishBuffer bounds events waiting for the broker.
const publishBuffer = 256

// EventPublisher forwards committed ledger events to RabbitMQ.  Notify
// never blocks a request: events are queued in memory and published by
// a single worker that keeps one connection open and redials on
// failure.  When the buffer is full the event is dropped and logged.
type EventPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	events chan queue.ParkingEvent
	// send publishes one message body; replaced in tests.
	send func(ctx context.Context, body []byte) error

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewEventPublisher returns a publisher for queueName.  Call Run to start
// delivering.
func NewEventPublisher(url, queueName string, log *zap.Logger) *EventPublisher {
	if queueName == "" {
		queueName = queue.DefaultQueue
	}
	p := &EventPublisher{
		url:    url,
		queue:  queueName,
		log:    log,
		events: make(chan queue.ParkingEvent, publishBuffer),
	}
	p.send = p.publish
	return p
}

// Notify implements ledger.Notifier.
func (p *EventPublisher) Notify(_ context.Context, ev ledger.Event) {
	select {
	case p.events <- queue.FromLedgerEvent(ev):
	default:
		p.log.Warn("event publisher: buffer full, dropping event",
			zap.String("kind", string(ev.Kind)), zap.Uint64("building_id", ev.BuildingID))
	}
}

// Run publishes queued events until ctx is cancelled, then drains what
// is left with a short deadline and closes the connection.
func (p *EventPublisher) Run(ctx context.Context) {
	defer p.close()
	for {
		select {
		case ev := <-p.events:
			p.deliver(ctx, ev)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			for {
				select {
				case ev := <-p.events:
					p.deliver(drainCtx, ev)
				default:
					return
				}
			}
		}
	}
}

func (p *EventPublisher) deliver(ctx context.Context, ev queue.ParkingEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("event publisher: marshal failed", zap.Error(err))
		return
	}
	// One retry on a fresh connection.
	for attempt := 0; attempt < 2; attempt++ {
		if err = p.send(ctx, body); err == nil {
			return
		}
		p.close()
	}
	p.log.Warn("event publisher: publish failed", zap.String("kind", ev.Kind), zap.Error(err))
}

func (p *EventPublisher) publish(ctx context.Context, body []byte) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}

func (p *EventPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.url == "" {
		return nil, errors.New("amqp url not configured")
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *EventPublisher) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

var _ ledger.Notifier = (*EventPublisher)(nil)
