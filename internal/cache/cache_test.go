package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMissOnAbsentKey(t *testing.T) {
	c := NewMemory()

	_, hit, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryHitWithinTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	require.NoError(t, c.SetEx(ctx, "k", []byte("payload"), time.Minute))

	val, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("payload"), val)
}

func TestMemoryLazyExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetEx(ctx, "k", []byte("payload"), 60*time.Second))

	now = now.Add(59 * time.Second)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)

	// exactly at expiry the entry is dead
	now = now.Add(time.Second)
	_, hit, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryOverwriteRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetEx(ctx, "k", []byte("old"), 10*time.Second))
	now = now.Add(9 * time.Second)
	require.NoError(t, c.SetEx(ctx, "k", []byte("new"), 10*time.Second))

	now = now.Add(5 * time.Second)
	val, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, []byte("new"), val)
}
