package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joy095/servicehub/logger"
	"github.com/segmentio/kafka-go"
)

const (
	EventJobCompleted        = "job.completed"
	EventCashMarkedReceived  = "cash.marked_received"
	EventCashVerified        = "cash.verified"
	EventCashDisputed        = "cash.disputed"
	EventOnlinePaymentPaid   = "payment.paid"
	EventOnlinePaymentFailed = "payment.failed"
	EventPayoutRequested     = "payout.requested"
	EventPayoutStatusChanged = "payout.status_changed"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// EventPublisher emits domain events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, data any)
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.ErrorLogger.Errorf("[KAFKA] "+msg, args...)
		}),
	}}
}

// Publish keys messages by key so events for one job or payout stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, data any) {
	msg, err := encodeEvent(eventType, key, data)
	if err != nil {
		logger.ErrorLogger.Errorf("[KAFKA ERROR] encode %s for %s: %v", eventType, key, err)
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.ErrorLogger.Errorf("[KAFKA ERROR] Failed to publish %s for %s: %v", eventType, key, err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encodeEvent(eventType, key string, data any) (kafka.Message, error) {
	now := time.Now().UTC()
	value, err := json.Marshal(Event{Type: eventType, Key: key, OccurredAt: now, Data: data})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}, nil
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, any) {}

func (NoopPublisher) Close() error { return nil }
