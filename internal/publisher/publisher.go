// Package publisher hands stored reservation events to downstream consumers.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/repo"
)

// Message header names set on every published event.
const (
	HeaderEventType     = "event-type"
	HeaderEventVersion  = "event-version"
	HeaderReservationID = "reservation-id"
)

// Publisher delivers a batch of events. Publish either delivers the whole
// batch or returns an error; callers mark events published only on success.
type Publisher interface {
	Publish(ctx context.Context, events []repo.OutboxEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by reservation ID so a
// reservation's events stay in order on a single partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher constructs a KafkaPublisher for brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("publisher.NewKafkaPublisher: at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("publisher.NewKafkaPublisher: topic cannot be empty")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error("kafka writer", "detail", fmt.Sprintf(msg, args...))
		}),
	}
	return newKafkaPublisher(w, topic, log), nil
}

func newKafkaPublisher(w messageWriter, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, log: log}
}

// Publish writes events as one synchronous batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events []repo.OutboxEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		msgs[i] = toMessage(e)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publisher.KafkaPublisher.Publish: topic %s: %w", p.topic, err)
	}
	p.log.DebugContext(ctx, "events published", "topic", p.topic, "count", len(events))
	return nil
}

// Close flushes and closes the writer. Safe to call more than once.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func toMessage(e repo.OutboxEvent) kafka.Message {
	id := e.ReservationID.String()
	return kafka.Message{
		Key:   []byte(id),
		Value: e.Payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(e.Version))},
			{Key: HeaderReservationID, Value: []byte(id)},
		},
	}
}

// LogPublisher writes events to the log. It is used when no brokers are
// configured so the relay still drains the outbox in development.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, events []repo.OutboxEvent) error {
	for _, e := range events {
		p.log.InfoContext(ctx, "reservation event",
			"event_type", e.EventType,
			"reservation_id", e.ReservationID,
			"version", e.Version,
			"occurred_at", e.OccurredAt,
		)
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
