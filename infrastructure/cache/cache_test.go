package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"papergraph/application/ports"
)

var (
	_ ports.Cache = (*InMemoryCache)(nil)
	_ ports.Cache = (*RedisCache)(nil)
)

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), RedisConfig{Addr: mr.Addr(), KeyPrefix: "test:"}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})
	return c, mr
}

func TestCaches(t *testing.T) {
	redisCache, _ := setupRedisCache(t)
	memory := NewInMemoryCache()
	t.Cleanup(func() { _ = memory.Close() })

	caches := map[string]ports.Cache{
		"memory": memory,
		"redis":  redisCache,
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok := c.Get(ctx, "missing")
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0))
			require.NoError(t, c.Set(ctx, "k1", []byte("v1"), 0), "writes are idempotent")
			require.NoError(t, c.Set(ctx, "k2", []byte("v2"), time.Hour))

			v, ok := c.Get(ctx, "k1")
			require.True(t, ok)
			assert.Equal(t, []byte("v1"), v)

			require.NoError(t, c.Delete(ctx, "k1"))
			_, ok = c.Get(ctx, "k1")
			assert.False(t, ok)

			require.NoError(t, c.Clear(ctx))
			_, ok = c.Get(ctx, "k2")
			assert.False(t, ok)
		})
	}
}

func TestInMemoryCacheExpiry(t *testing.T) {
	c := NewInMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestInMemoryCacheCopiesValues(t *testing.T) {
	c := NewInMemoryCache()
	defer c.Close()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'z'

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestRedisCacheExpiryAndPrefix(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	// Keys outside the prefix survive Clear
	require.NoError(t, mr.Set("other:k", "keep"))
	require.NoError(t, c.Clear(ctx))
	assert.True(t, mr.Exists("other:k"))

	require.NoError(t, c.Set(ctx, "ttl", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, "ttl")
	assert.False(t, ok)
}

func TestNewRedisCacheConnectionFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), RedisConfig{Addr: addr}, nil)
	assert.Error(t, err)
}
