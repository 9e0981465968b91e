// Package kafka provides a Kafka-backed eventstream publisher using
// segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/eventstream"
)

// DefaultTopic is the default Kafka topic for transcript lifecycle events.
const DefaultTopic = "recap.transcripts"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string

	// Topic defaults to DefaultTopic if empty.
	Topic string
}

// Publisher publishes transcript events to a Kafka topic. Events are keyed
// by transcript ID so all events for one transcript land on one partition
// in order.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher. The writer is lazy; no connection
// is made until the first publish.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	logger.Info("kafka publisher configured",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishIngested writes a transcript-ingested event.
func (p *Publisher) PublishIngested(ctx context.Context, event *eventstream.TranscriptIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return p.publish(ctx, event.TranscriptID, event)
}

// PublishDeleted writes a transcript-deleted event.
func (p *Publisher) PublishDeleted(ctx context.Context, event *eventstream.TranscriptDeletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return p.publish(ctx, event.TranscriptID, event)
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("writing event to kafka: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
