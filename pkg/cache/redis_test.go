package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())}, "pb:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("pb:k"), "key should be stored under the prefix")

	data, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, c.Delete(ctx, "k"))
	_, hit, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("pb:k"))

	mr.FastForward(2 * time.Minute)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCacheClosed(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisCache(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, _, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrClosed)
	assert.ErrorIs(t, c.Delete(ctx, "k"), ErrClosed)
}

func TestDialRedisErrors(t *testing.T) {
	_, err := DialRedis(RedisOptions{URL: "invalid://url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")

	_, err = DialRedis(RedisOptions{URL: "redis://localhost:1", ConnectTimeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestRedisCacheClear(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	for _, k := range []string{"validation:a", "validation:b", "artifact:c"} {
		require.NoError(t, c.Set(ctx, k, []byte("x"), 0))
	}
	require.NoError(t, mr.Set("other:key", "keep"))

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, mr.Exists("pb:artifact:c"))
	assert.True(t, mr.Exists("other:key"), "keys outside the prefix survive")

	n, err = c.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.Close())
	_, err = c.Clear(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
