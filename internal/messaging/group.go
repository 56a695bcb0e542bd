package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

type topicer interface {
	Topic() string
}

// ConsumerGroup manages multiple consumers with unified lifecycle.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates a new consumer group.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer to the group.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts all consumers in the group.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	topics := make([]string, 0, len(g.consumers))

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			// Shutdown already started consumers on failure
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		if t, ok := consumer.(topicer); ok {
			topics = append(topics, t.Topic())
		}
	}

	g.logger.Info("consumer group started",
		zap.Int("count", len(g.consumers)),
		zap.Strings("topics", topics),
	)

	return nil
}

// Shutdown stops all consumers gracefully and closes the shared subscriber.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var errs []error

	for _, consumer := range g.consumers {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
