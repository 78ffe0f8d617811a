package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/blocks/pkg/cache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMemory[V any](t *testing.T, cfg cache.MemoryConfig) *cache.Memory[V] {
	t.Helper()
	c := cache.NewMemory[V](cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.DefaultMemoryConfig())

		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		c := newMemory[int](t, cache.DefaultMemoryConfig())
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))

		v, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 42, v)
	})

	t.Run("overwrites existing key", func(t *testing.T) {
		t.Parallel()

		c := newMemory[int](t, cache.DefaultMemoryConfig())
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "key", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "key", 2, time.Minute))

		v, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 2, v)
	})

	t.Run("expired key returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.MemoryConfig{})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "key", "value", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("zero TTL uses default", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.MemoryConfig{DefaultTTL: 20 * time.Millisecond})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "key", "value", 0))

		v, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", v)

		time.Sleep(40 * time.Millisecond)

		_, err = c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative TTL never expires", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.MemoryConfig{DefaultTTL: time.Millisecond})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "key", "forever", -1))
		time.Sleep(10 * time.Millisecond)

		v, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "forever", v)
	})
}

func TestMemory_DeleteHas(t *testing.T) {
	t.Parallel()

	c := newMemory[string](t, cache.DefaultMemoryConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

	has, err := c.Has(ctx, "key")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, c.Delete(ctx, "key"))
	require.NoError(t, c.Delete(ctx, "key"), "deleting a missing key is not an error")

	has, err = c.Has(ctx, "key")
	require.NoError(t, err)
	require.False(t, has)
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string](cache.DefaultMemoryConfig())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	ctx := context.Background()
	require.ErrorIs(t, c.Set(ctx, "key", "value", time.Minute), cache.ErrClosed)
	require.ErrorIs(t, c.Delete(ctx, "key"), cache.ErrClosed)

	_, err := c.Get(ctx, "key")
	require.ErrorIs(t, err, cache.ErrClosed)

	_, err = c.Has(ctx, "key")
	require.ErrorIs(t, err, cache.ErrClosed)
}

func TestMemory_Janitor(t *testing.T) {
	t.Parallel()

	c := newMemory[string](t, cache.MemoryConfig{CleanupInterval: 5 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "v", time.Millisecond))
	require.NoError(t, c.Set(ctx, "long", "v", time.Minute))

	require.Eventually(t, func() bool {
		return c.Len() == 1
	}, time.Second, 5*time.Millisecond)

	has, err := c.Has(ctx, "long")
	require.NoError(t, err)
	require.True(t, has)
}

type traceKey struct{}

func TestLoader_GetOrSet(t *testing.T) {
	t.Parallel()

	t.Run("loads and caches on miss", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.DefaultMemoryConfig())
		ctx := context.Background()
		l := cache.NewLoader[string](c)

		var calls atomic.Int32
		load := func(context.Context) (string, time.Duration, error) {
			calls.Add(1)
			return "loaded", time.Minute, nil
		}

		v, err := l.GetOrSet(ctx, "miss-then-hit", load)
		require.NoError(t, err)
		require.Equal(t, "loaded", v)

		v, err = l.GetOrSet(ctx, "miss-then-hit", load)
		require.NoError(t, err)
		require.Equal(t, "loaded", v)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("hit skips load", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.DefaultMemoryConfig())
		ctx := context.Background()
		l := cache.NewLoader[string](c)
		require.NoError(t, c.Set(ctx, "hit", "cached", time.Minute))

		v, err := l.GetOrSet(ctx, "hit", func(context.Context) (string, time.Duration, error) {
			t.Fatal("load must not run on a hit")
			return "", 0, nil
		})
		require.NoError(t, err)
		require.Equal(t, "cached", v)
	})

	t.Run("load error is returned and not cached", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.DefaultMemoryConfig())
		ctx := context.Background()
		l := cache.NewLoader[string](c)
		loadErr := errors.New("boom")

		_, err := l.GetOrSet(ctx, "failing", func(context.Context) (string, time.Duration, error) {
			return "", 0, loadErr
		})
		require.ErrorIs(t, err, loadErr)

		has, err := c.Has(ctx, "failing")
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("cancelled caller does not cancel load", func(t *testing.T) {
		t.Parallel()

		c := newMemory[string](t, cache.DefaultMemoryConfig())
		l := cache.NewLoader[string](c)

		ctx, cancel := context.WithCancel(context.WithValue(context.Background(), traceKey{}, "trace-1"))
		cancel()

		v, err := l.GetOrSet(ctx, "detached", func(ctx context.Context) (string, time.Duration, error) {
			if err := ctx.Err(); err != nil {
				return "", 0, err
			}
			return ctx.Value(traceKey{}).(string), time.Minute, nil
		})
		require.NoError(t, err)
		require.Equal(t, "trace-1", v)

		cached, err := c.Get(context.Background(), "detached")
		require.NoError(t, err)
		require.Equal(t, "trace-1", cached)
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		t.Parallel()

		c := newMemory[int](t, cache.DefaultMemoryConfig())
		ctx := context.Background()
		l := cache.NewLoader[int](c)

		var calls atomic.Int32
		release := make(chan struct{})
		load := func(context.Context) (int, time.Duration, error) {
			calls.Add(1)
			<-release
			return 7, time.Minute, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 10)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				v, err := l.GetOrSet(ctx, "stampede", load)
				if err == nil {
					results[i] = v
				}
			}(i)
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, v := range results {
			require.Equal(t, 7, v)
		}
		require.LessOrEqual(t, calls.Load(), int32(2), "singleflight should collapse concurrent loads")
	})
}
