package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/metrics"
	"github.com/kailas-cloud/docsearch/tasks"
)

// Handler runs one task.
type Handler interface {
	Dispatch(ctx context.Context, t tasks.Task) error
}

// messageReader is the part of *kafka.Reader the Consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads tasks from a topic as part of a consumer group.
type Consumer struct {
	reader  messageReader
	handler Handler
	logger  *zap.Logger
}

// NewConsumer creates a Consumer for topic in group.
func NewConsumer(brokers []string, topic, group string, h Handler, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        group,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	if logger == nil {
		logger = zap.NewNop()
	}
	return newConsumer(r, h, logger.With(zap.String("topic", topic), zap.String("group", group)))
}

func newConsumer(r messageReader, h Handler, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: r, handler: h, logger: logger}
}

// Run consumes tasks until ctx is cancelled. A message is committed once its
// task ran, or when it cannot be decoded. Failed tasks are logged and
// committed; the failing page is not retried.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Task consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Task consumer stopping")
				return nil
			}
			c.logger.Error("Failed to fetch message", zap.Error(err))
			continue
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to commit message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	t, err := tasks.Decode(msg.Value)
	if err != nil {
		c.logger.Error("Dropping malformed task",
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}
	start := time.Now()
	err = c.handler.Dispatch(ctx, t)
	metrics.ObserveTask(string(t.Kind), start, err)
	if err != nil {
		c.logger.Error("Task failed",
			zap.String("kind", string(t.Kind)),
			zap.String("model", t.Model),
			zap.String("start_id", t.StartID),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("Task done",
		zap.String("kind", string(t.Kind)),
		zap.String("model", t.Model),
		zap.Duration("duration", time.Since(start)),
	)
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
