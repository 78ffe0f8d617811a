//go:build integration

package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blocks/pkg/cache"
	"github.com/dmitrymomot/blocks/pkg/redis"
)

func newTestRedisClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	cfg := redis.DefaultConfig()
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.URL = url
	}

	ctx := context.Background()
	client, err := redis.Open(ctx, cfg)
	require.NoError(t, err, "failed to connect to Redis")

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestRedis(t *testing.T) {
	t.Parallel()

	client := newTestRedisClient(t)
	ctx := context.Background()

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		c := cache.NewRedis[string](client, nil, cache.RedisConfig{Prefix: "test-miss"})

		_, err := c.Get(ctx, "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("round trips values with prefix", func(t *testing.T) {
		c := cache.NewRedis[string](client, nil, cache.RedisConfig{Prefix: "test-rt"})
		t.Cleanup(func() { _ = c.Delete(ctx, "urlFormat") })

		require.NoError(t, c.Set(ctx, "urlFormat", "pathinfo", time.Minute))

		v, err := c.Get(ctx, "urlFormat")
		require.NoError(t, err)
		require.Equal(t, "pathinfo", v)

		raw, err := client.Get(ctx, "test-rt:urlFormat").Result()
		require.NoError(t, err)
		require.Equal(t, `"pathinfo"`, raw)
	})

	t.Run("negative TTL stores without expiry", func(t *testing.T) {
		c := cache.NewRedis[int](client, nil, cache.RedisConfig{Prefix: "test-ttl"})
		t.Cleanup(func() { _ = c.Delete(ctx, "k") })

		require.NoError(t, c.Set(ctx, "k", 1, -1))

		ttl, err := client.TTL(ctx, "test-ttl:k").Result()
		require.NoError(t, err)
		require.Equal(t, time.Duration(-1), ttl)
	})

	t.Run("has and delete", func(t *testing.T) {
		c := cache.NewRedis[int](client, nil, cache.RedisConfig{Prefix: "test-del"})

		require.NoError(t, c.Set(ctx, "k", 1, time.Minute))

		has, err := c.Has(ctx, "k")
		require.NoError(t, err)
		require.True(t, has)

		require.NoError(t, c.Delete(ctx, "k"))

		has, err = c.Has(ctx, "k")
		require.NoError(t, err)
		require.False(t, has)
	})
}
