// Package kafka carries index maintenance tasks over a Kafka topic. The
// Producer implements tasks.Deferrer; the Consumer reads tasks back and
// hands them to a Handler.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/metrics"
	"github.com/kailas-cloud/docsearch/tasks"
)

// messageWriter is the part of *kafka.Writer the Producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ tasks.Deferrer = (*Producer)(nil)

// Producer publishes tasks to a topic. Tasks are keyed by model so pages of
// one model stay on one partition and run in order.
type Producer struct {
	writer messageWriter
	logger *zap.Logger
}

// NewProducer creates a Producer writing to topic on brokers.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return newProducer(w, logger.With(zap.String("topic", topic)))
}

func newProducer(w messageWriter, logger *zap.Logger) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Producer{writer: w, logger: logger}
}

// Defer publishes t synchronously.
func (p *Producer) Defer(ctx context.Context, t tasks.Task) error {
	value, err := t.Encode()
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	msg := kafka.Message{Key: []byte(t.Model), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish task",
			zap.String("kind", string(t.Kind)),
			zap.String("model", t.Model),
			zap.Error(err),
		)
		return fmt.Errorf("publish task: %w", err)
	}
	metrics.TasksEnqueuedTotal.WithLabelValues(string(t.Kind)).Inc()
	p.logger.Debug("Task published",
		zap.String("kind", string(t.Kind)),
		zap.String("model", t.Model),
		zap.String("start_id", t.StartID),
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
