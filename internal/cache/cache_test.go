package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[string]()

	t.Run("miss on unknown key", func(t *testing.T) {
		_, err := c.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
		got, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "short", "v", -time.Second))
		_, err := c.Get(ctx, "short")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("delete removes key", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "gone", "v", time.Minute))
		require.NoError(t, c.Delete(ctx, "gone"))
		_, err := c.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("health always ok", func(t *testing.T) {
		assert.NoError(t, c.Health(ctx))
	})
}

func TestGetWithFetch(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int]()

	calls := 0
	fetch := func(ctx context.Context, key string) (int, error) {
		calls++
		return 42, nil
	}

	t.Run("fetches on miss and caches", func(t *testing.T) {
		got, err := GetWithFetch(ctx, c, "answer", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 1, calls)

		got, err = GetWithFetch(ctx, c, "answer", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 1, calls, "second read should hit the cache")
	})

	t.Run("propagates fetch errors", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := GetWithFetch(ctx, c, "other", time.Minute,
			func(ctx context.Context, key string) (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	})
}
