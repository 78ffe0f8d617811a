package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	expiresAt time.Time // zero means no expiry
	value     V
}

func (e memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process cache with TTL expiry.
// Expired entries are hidden from readers and removed by a background janitor.
type Memory[V any] struct {
	items           map[string]memoryEntry[V]
	done            chan struct{}
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	mu              sync.RWMutex
	closed          bool
}

// MemoryConfig configures NewMemory.
type MemoryConfig struct {
	// DefaultTTL applies when Set is called with a zero TTL. Default: 1 hour.
	DefaultTTL time.Duration
	// CleanupInterval is how often the janitor runs. Zero or negative disables it.
	CleanupInterval time.Duration
}

// DefaultMemoryConfig returns a 1 hour default TTL and a 1 minute janitor.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute,
	}
}

// NewMemory creates an in-memory cache. Call Close to stop the janitor.
//
// Example:
//
//	c := cache.NewMemory[string](cache.DefaultMemoryConfig())
//	defer c.Close()
func NewMemory[V any](cfg MemoryConfig) *Memory[V] {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = time.Hour
	}

	m := &Memory[V]{
		items:           make(map[string]memoryEntry[V]),
		done:            make(chan struct{}),
		defaultTTL:      cfg.DefaultTTL,
		cleanupInterval: cfg.CleanupInterval,
	}

	if m.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get implements Cache.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	var zero V

	m.mu.RLock()
	e, ok := m.items[key]
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return zero, ErrClosed
	}
	if !ok || e.expired(time.Now()) {
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set implements Cache.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.items[key] = memoryEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

// Delete implements Cache. Deleting a missing key is not an error.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Has implements Cache.
func (m *Memory[V]) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Len returns the number of stored entries, including expired ones not yet cleaned up.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the janitor. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory[V]) janitor() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory[V]) deleteExpired() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
