package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures NewRedis.
type RedisConfig struct {
	// Prefix namespaces keys as "{prefix}:{key}". Empty means no prefix.
	Prefix string `env:"CACHE_PREFIX" envDefault:"blocks" yaml:"prefix"`
	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"1h" yaml:"default_ttl"`
}

// Redis is a Cache backed by Redis. Values are stored through a Codec (JSON by default).
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Codec[V]
	cfg    RedisConfig
}

// NewRedis creates a Redis-backed cache. The client lifecycle stays with
// the caller; Close does not close it. A nil codec selects JSON.
//
// Example:
//
//	client := redis.MustOpen(ctx, cfg.Redis)
//	c := cache.NewRedis[request.URLFormat](client, nil, cfg.Cache)
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], cfg RedisConfig) *Redis[V] {
	if codec == nil {
		codec = jsonCodec[V]{}
	}
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = time.Hour
	}
	return &Redis[V]{client: client, codec: codec, cfg: cfg}
}

// Get implements Cache.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}

	return r.codec.Decode(data)
}

// Set implements Cache. A negative TTL stores the key without expiry.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = r.cfg.DefaultTTL
	}

	// Redis treats a zero expiration as "keep forever".
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Delete implements Cache.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Has implements Cache.
func (r *Redis[V]) Has(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close is a no-op; close the client with pkg/redis.Shutdown.
func (r *Redis[V]) Close() error {
	return nil
}

func (r *Redis[V]) key(key string) string {
	if r.cfg.Prefix == "" {
		return key
	}
	return r.cfg.Prefix + ":" + key
}

var _ Cache[any] = (*Redis[any])(nil)
