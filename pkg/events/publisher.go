// Package events publishes JSON events to a Kafka topic.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// ErrPublish wraps failures to hand an event to the broker.
var ErrPublish = errors.New("publish event")

// Writer is the subset of *kafka.Writer used by Publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher encodes values as JSON and writes them synchronously so delivery
// failures reach the caller.
type Publisher struct {
	writer Writer
	topic  string
	logger *slog.Logger
}

// New creates a Publisher writing to the configured brokers and topic.
func New(cfg *Config, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled() || cfg.Topic == "" {
		return nil, errors.New("kafka publisher requires brokers and topic")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: requiredAcks(cfg.RequiredAcks),
		BatchTimeout: cfg.BatchTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error(fmt.Sprintf(msg, args...), "component", "kafka")
		}),
	}

	logger.Info("kafka publisher created", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return NewWithWriter(w, cfg.Topic, logger), nil
}

// NewWithWriter creates a Publisher over an existing writer.
func NewWithWriter(w Writer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger.With("topic", topic),
	}
}

// Publish writes v under key. Messages sharing a key land on the same
// partition.
func (p *Publisher) Publish(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPublish, err)
	}

	msg := kafka.Message{Value: value}
	if key != "" {
		msg.Key = []byte(key)
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "event publish failed", "key", key, "error", err)
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	p.logger.DebugContext(ctx, "event published", "key", key, "bytes", len(value))
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func requiredAcks(s string) kafka.RequiredAcks {
	switch s {
	case "none":
		return kafka.RequireNone
	case "all":
		return kafka.RequireAll
	default:
		return kafka.RequireOne
	}
}
