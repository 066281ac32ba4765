// Package kafka publishes lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/eventstream"
)

// DefaultTopic is the topic events are published to.
const DefaultTopic = "folio.sessions"

// Publisher writes events to Kafka keyed by session id, so all events for
// one session land on the same partition in order.
type Publisher struct {
	writer *segmentio.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers are the bootstrap broker addresses (host:port).
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic.
	Topic string
}

// NewPublisher creates a Kafka-backed publisher.
func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &segmentio.Writer{
			Addr:     segmentio.TCP(cfg.Brokers...),
			Topic:    topic,
			Balancer: &segmentio.LeastBytes{},
		},
		logger: logger,
	}, nil
}

// Publish delivers one event.
func (p *Publisher) Publish(ctx context.Context, ev eventstream.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, segmentio.Message{
		Key:   []byte(ev.SessionID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing event to kafka: %w", err)
	}

	p.logger.Debug("event published",
		zap.String("type", ev.Type),
		zap.String("session_id", ev.SessionID),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
