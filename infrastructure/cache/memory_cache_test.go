package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(10, 1<<20, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	_, ok, err = c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	hits, misses, _ := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestMemoryCache_ExpiredEntryIsAMiss(t *testing.T) {
	c := NewMemoryCache(10, 1<<20, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", -time.Second))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_DeleteVariadic(t *testing.T) {
	c := NewMemoryCache(10, 1<<20, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", time.Minute))

	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestMemoryCache_ScanGlob(t *testing.T) {
	c := NewMemoryCache(10, 1<<20, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "nav:u1:home:manual", "x", time.Minute))
	require.NoError(t, c.Set(ctx, "nav:u1:about:echo", "y", time.Minute))
	require.NoError(t, c.Set(ctx, "nav:u2:home:manual", "z", time.Minute))
	require.NoError(t, c.Set(ctx, "nav:u1:stale:echo", "w", -time.Second))

	keys, err := c.Scan(ctx, "nav:u1:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"nav:u1:home:manual", "nav:u1:about:echo"}, keys)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := NewMemoryCache(2, 1<<20, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", time.Minute))

	// Touch "a" so "b" becomes the least recently used entry.
	_, ok, _ := c.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, c.Set(ctx, "c", "3", time.Minute))

	_, ok, _ = c.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)

	_, _, evictions := c.Stats()
	assert.Equal(t, int64(1), evictions)
}

func TestMemoryCache_OversizedItemSkipped(t *testing.T) {
	c := NewMemoryCache(10, 8, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "a value larger than the budget", time.Minute))

	_, ok, _ := c.Get(ctx, "key")
	assert.False(t, ok)
}
