package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a get/setex-style TTL cache. Expiry is checked lazily on read;
// there is no eviction thread, so expired entries linger until read or
// overwritten.
type Cache interface {
	// Get returns the stored value and true on a live hit. An absent or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type entry struct {
	value  []byte
	expiry time.Time
}

// Memory is the in-process Cache implementation
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiry) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiry: m.now().Add(ttl)}
	return nil
}
