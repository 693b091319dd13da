// Package kafka publishes recorded ledger entries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"posledger/internal/domain/ledger"
	"posledger/internal/infrastructure/storage/postgres"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards ledger.entry.recorded outbox messages to Kafka. Messages
// are keyed by device id so each device's entries stay in order.
type Publisher struct {
	writer messageWriter
}

var _ postgres.OutboxHandler = (*Publisher)(nil)

// NewPublisher creates a publisher writing to topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Handle implements postgres.OutboxHandler.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	var entry ledger.Entry
	if err := json.Unmarshal(msg.Payload, &entry); err != nil {
		return fmt.Errorf("decode ledger entry: %w", err)
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.DeviceID),
		Value: msg.Payload,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "message_id", Value: []byte(msg.ID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("publish ledger entry %s: %w", entry.ID, err)
	}
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
