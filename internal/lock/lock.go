package lock

import (
	"context"
	"sync"
)

// Manager provides non-blocking mutual exclusion per event. TryAcquire
// never waits: a held lock is reported immediately so the caller can
// surface a retry signal instead of queuing.
type Manager interface {
	TryAcquire(ctx context.Context, eventID int64) (bool, error)
	Release(ctx context.Context, eventID int64) error
}

// With runs fn while holding the event lock, releasing it on every exit
// path including panics. It returns false without running fn when the
// lock is already held.
func With(ctx context.Context, m Manager, eventID int64, fn func() error) (bool, error) {
	acquired, err := m.TryAcquire(ctx, eventID)
	if err != nil || !acquired {
		return false, err
	}
	defer func() {
		_ = m.Release(ctx, eventID)
	}()
	return true, fn()
}

// MemoryManager tracks held locks in process memory. Distinct events
// never contend with each other beyond the short map access.
type MemoryManager struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

// NewMemoryManager creates an in-process lock manager
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{held: make(map[int64]struct{})}
}

func (m *MemoryManager) TryAcquire(ctx context.Context, eventID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[eventID]; ok {
		return false, nil
	}
	m.held[eventID] = struct{}{}
	return true, nil
}

func (m *MemoryManager) Release(ctx context.Context, eventID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, eventID)
	return nil
}
