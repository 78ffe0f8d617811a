package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a key-value store with per-entry TTL.
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: use the cache's default TTL
//   - Negative: entry never expires
type Cache[V any] interface {
	// Get returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// Codec converts values to and from bytes for byte-oriented backends.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

type jsonCodec[V any] struct{}

func (jsonCodec[V]) Encode(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonCodec[V]) Decode(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

type loaded[V any] struct {
	val V
	ttl time.Duration
}

// Loader reads through a cache, collapsing concurrent misses for the same key
// into a single load.
type Loader[V any] struct {
	cache  Cache[V]
	flight singleflight.Group
}

// NewLoader wraps c. Loads are only shared between callers of the same Loader.
func NewLoader[V any](c Cache[V]) *Loader[V] {
	return &Loader[V]{cache: c}
}

// Cache returns the wrapped cache.
func (l *Loader[V]) Cache() Cache[V] {
	return l.cache
}

// GetOrSet returns the cached value for key, or calls load on a miss and
// caches its result.
//
// Any Get error is treated as a miss. A failed Set is ignored: the loaded
// value is still returned. If load fails nothing is cached.
//
// The load and the Set run detached from ctx cancellation: the result is
// shared with every waiting caller and cached for later ones, so it must not
// depend on whether the first caller is still around. Values such as trace
// IDs are kept. Bound the load itself if it can block.
func (l *Loader[V]) GetOrSet(ctx context.Context, key string, load func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	res, err, _ := l.flight.Do(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		val, ttl, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(loadCtx, key, val, ttl)
		return loaded[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return res.(loaded[V]).val, nil
}
