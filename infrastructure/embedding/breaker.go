package embedding

import (
	"context"
	"errors"
	"time"

	"wayfinder-backend/application/ports"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerIndex wraps an EmbeddingIndex with a circuit breaker. While the
// breaker is open the index answers nil, which the compass layer reads as
// "no index available, use the in-process scan". Similarity search
// degrades instead of failing the whole routing call.
type BreakerIndex struct {
	inner   ports.EmbeddingIndex
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerIndex wraps the given index.
func NewBreakerIndex(inner ports.EmbeddingIndex, logger *zap.Logger) *BreakerIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        "embedding-index",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("embedding index breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerIndex{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Nearest delegates to the wrapped index through the breaker.
func (b *BreakerIndex) Nearest(ctx context.Context, vector []float32, k int, scope string) ([]ports.ScoredNode, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Nearest(ctx, vector, k, scope)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Debug("embedding index unavailable, signaling scan fallback",
				zap.String("scope", scope))
			return nil, nil
		}
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.([]ports.ScoredNode), nil
}
