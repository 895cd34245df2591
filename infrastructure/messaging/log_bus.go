// Package messaging holds event bus adapters that do not need AWS.
package messaging

import (
	"context"

	"wayfinder-backend/application/ports"
	"wayfinder-backend/domain/events"

	"go.uber.org/zap"
)

// LogBus implements the EventBus port by logging events. Used in local
// development and tests where no EventBridge bus exists.
type LogBus struct {
	logger *zap.Logger
}

// NewLogBus creates a logging event bus.
func NewLogBus(logger *zap.Logger) ports.EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogBus{logger: logger}
}

// Publish logs the event and succeeds.
func (b *LogBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.logger.Info("event published",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
	)
	return nil
}
