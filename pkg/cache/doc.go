// Package cache provides a small generic TTL cache with in-memory and Redis backends.
//
// Both backends implement [Cache]. The URL format detected by the request
// classifier is stored through it, so a single-process deployment can use
// [NewMemory] and a multi-instance deployment [NewRedis] to share detection
// results.
//
//	c := cache.NewMemory[string](cache.DefaultMemoryConfig())
//	defer c.Close()
//
//	_ = c.Set(ctx, "greeting", "hello", 0) // default TTL
//	v, err := c.Get(ctx, "greeting")
//
// A [Loader] reads through the cache and collapses concurrent misses for the
// same key into a single load:
//
//	l := cache.NewLoader[string](c)
//	format, err := l.GetOrSet(ctx, "urlFormat", func(ctx context.Context) (string, time.Duration, error) {
//	    return detect(ctx), 24 * time.Hour, nil
//	})
//
// Lookups of missing or expired keys return [ErrNotFound]; operations on a
// closed in-memory cache return [ErrClosed].
package cache
