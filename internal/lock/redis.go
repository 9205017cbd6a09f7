package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisManager implements the event lock as a SETNX lease, for running
// multiple booking-service replicas against one Redis. The TTL bounds
// how long a crashed holder can leak the lock.
type RedisManager struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisManager creates a Redis-backed lock manager
func NewRedisManager(rdb *redis.Client, ttl time.Duration) *RedisManager {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisManager{rdb: rdb, ttl: ttl}
}

func (m *RedisManager) key(eventID int64) string {
	return fmt.Sprintf("lock:event:%d", eventID)
}

func (m *RedisManager) TryAcquire(ctx context.Context, eventID int64) (bool, error) {
	acquired, err := m.rdb.SetNX(ctx, m.key(eventID), "1", m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire event lock: %w", err)
	}
	return acquired, nil
}

func (m *RedisManager) Release(ctx context.Context, eventID int64) error {
	if err := m.rdb.Del(ctx, m.key(eventID)).Err(); err != nil {
		return fmt.Errorf("release event lock: %w", err)
	}
	return nil
}
