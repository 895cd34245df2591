// Package cache provides the in-memory adapter of the key-value cache
// port, with LRU eviction and per-item TTL. Suitable for single-instance
// deployments; a distributed cache can be substituted without touching the
// navigation logic.
package cache

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryCache is a thread-safe in-memory cache with LRU eviction, per-item
// TTL, glob-style key scanning and hit statistics.
type MemoryCache struct {
	mu          sync.RWMutex
	items       map[string]*cacheItem
	lruList     *list.List
	maxItems    int
	maxMemory   int64
	currentSize int64

	// Statistics
	hits      int64
	misses    int64
	evictions int64

	logger *zap.Logger
}

type cacheItem struct {
	key        string
	value      string
	size       int64
	expiry     time.Time
	lruElement *list.Element
}

// NewMemoryCache creates a cache bounded by item count and total bytes.
func NewMemoryCache(maxItems int, maxMemory int64, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		items:     make(map[string]*cacheItem),
		lruList:   list.New(),
		maxItems:  maxItems,
		maxMemory: maxMemory,
		logger:    logger,
	}
}

// Get retrieves a value, reporting whether the key was present and live.
func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.misses++
		return "", false, nil
	}
	if time.Now().After(item.expiry) {
		c.removeItem(item)
		c.misses++
		return "", false, nil
	}

	c.lruList.MoveToFront(item.lruElement)
	c.hits++
	return item.value, true, nil
}

// Set stores a value with the given TTL, evicting LRU items to make room.
func (c *MemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemSize := int64(len(key) + len(value))
	if c.maxMemory > 0 && itemSize > c.maxMemory {
		c.logger.Warn("item too large for cache",
			zap.String("key", key),
			zap.Int64("size", itemSize),
			zap.Int64("maxMemory", c.maxMemory),
		)
		return nil // silently skip caching
	}

	if existing, exists := c.items[key]; exists {
		c.removeItem(existing)
	}

	for c.lruList.Len() > 0 &&
		((c.maxMemory > 0 && c.currentSize+itemSize > c.maxMemory) ||
			(c.maxItems > 0 && len(c.items) >= c.maxItems)) {
		oldest := c.lruList.Back()
		if oldest == nil {
			break
		}
		c.removeItem(oldest.Value.(*cacheItem))
		c.evictions++
	}

	item := &cacheItem{
		key:    key,
		value:  value,
		size:   itemSize,
		expiry: time.Now().Add(ttl),
	}
	item.lruElement = c.lruList.PushFront(item)
	c.items[key] = item
	c.currentSize += itemSize
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (c *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if item, exists := c.items[key]; exists {
			c.removeItem(item)
		}
	}
	return nil
}

// Scan returns the live keys matching a glob-style pattern.
func (c *MemoryCache) Scan(ctx context.Context, pattern string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	var keys []string
	for key, item := range c.items {
		if now.After(item.expiry) {
			continue
		}
		matched, err := path.Match(pattern, key)
		if err != nil {
			return nil, err
		}
		if matched {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Stats returns hit/miss/eviction counters since creation.
func (c *MemoryCache) Stats() (hits, misses, evictions int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.evictions
}

// removeItem must be called with the write lock held.
func (c *MemoryCache) removeItem(item *cacheItem) {
	delete(c.items, item.key)
	c.lruList.Remove(item.lruElement)
	c.currentSize -= item.size
}
