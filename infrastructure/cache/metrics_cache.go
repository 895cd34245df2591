package cache

import (
	"context"
	"time"

	"wayfinder-backend/application/ports"
)

// CacheObserver receives cache lookup outcomes; the observability
// collector implements it.
type CacheObserver interface {
	ObserveCache(hit bool)
}

// MetricsCache decorates a Cache with hit/miss accounting.
type MetricsCache struct {
	inner    ports.Cache
	observer CacheObserver
}

// NewMetricsCache wraps the given cache. A nil observer returns the inner
// cache unchanged.
func NewMetricsCache(inner ports.Cache, observer CacheObserver) ports.Cache {
	if observer == nil {
		return inner
	}
	return &MetricsCache{inner: inner, observer: observer}
}

// Get implements ports.Cache.
func (c *MetricsCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := c.inner.Get(ctx, key)
	if err == nil {
		c.observer.ObserveCache(ok)
	}
	return value, ok, err
}

// Set implements ports.Cache.
func (c *MetricsCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}

// Delete implements ports.Cache.
func (c *MetricsCache) Delete(ctx context.Context, keys ...string) error {
	return c.inner.Delete(ctx, keys...)
}

// Scan implements ports.Cache.
func (c *MetricsCache) Scan(ctx context.Context, pattern string) ([]string, error) {
	return c.inner.Scan(ctx, pattern)
}
