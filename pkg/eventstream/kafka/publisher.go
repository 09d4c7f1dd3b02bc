// Package kafka publishes ingestion events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/eventstream"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "driftlens.records"

// MessageWriter is the subset of *kafka.Writer used by Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	Brokers []string

	// Topic defaults to DefaultTopic if empty.
	Topic string

	// Writer overrides the kafka.Writer, mainly for tests.
	Writer MessageWriter
}

// Publisher writes one message per event, keyed by record ID so events for
// the same record land on the same partition.
type Publisher struct {
	writer MessageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	w := c.Writer
	if w == nil {
		if len(c.Brokers) == 0 {
			return nil, fmt.Errorf("kafka brokers are required")
		}
		w = &kafka.Writer{
			Addr:                   kafka.TCP(c.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		}
	}

	logger.Info("publishing ingestion events to kafka",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{writer: w, topic: topic, logger: logger}, nil
}

// PublishIngested writes event to the topic.
func (p *Publisher) PublishIngested(ctx context.Context, event *eventstream.RecordIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", event.EventID, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RecordID),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing event %s to %s: %w", event.EventID, p.topic, err)
	}

	p.logger.Debug("published ingestion event",
		zap.String("event_id", event.EventID),
		zap.String("record_id", event.RecordID),
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
