package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"concert-booking/internal/cache"
	"concert-booking/internal/models"
	"concert-booking/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankedConcerts returns n concerts whose popularity strictly decreases
// with the ID, so concert 1 ranks first.
func rankedConcerts(n int) []models.Concert {
	concerts := make([]models.Concert, n)
	for i := 0; i < n; i++ {
		concerts[i] = models.Concert{
			ID:         int64(i + 1),
			Name:       fmt.Sprintf("Concert Event #%d - Jakarta", i+1),
			Price:      100000,
			Seats:      100,
			Popularity: n - i,
		}
	}
	return concerts
}

func newCatalogFixture(t *testing.T, n int, ttl time.Duration) (*CatalogService, *cache.Memory) {
	t.Helper()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.SeedConcerts(context.Background(), rankedConcerts(n)))
	c := cache.NewMemory()
	return NewCatalogService(mem, c, ttl), c
}

func TestPopularConcertsPagination(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t, 60, time.Minute)

	page1, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, CacheStatusMiss, page1.Meta.CacheStatus)
	assert.Equal(t, 50, page1.Meta.Total)
	assert.Equal(t, 5, page1.Meta.TotalPages)
	require.Len(t, page1.Data, 10)
	assert.Equal(t, int64(1), page1.Data[0].ID)

	page2, err := svc.PopularConcerts(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, page2.Data, 10)
	assert.Equal(t, int64(11), page2.Data[0].ID)

	// pages are disjoint slices of the same ranked window
	seen := make(map[int64]bool)
	for _, c := range page1.Data {
		seen[c.ID] = true
	}
	for _, c := range page2.Data {
		assert.False(t, seen[c.ID], "concert %d appears on both pages", c.ID)
	}
}

func TestPopularConcertsBeyondWindow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t, 60, time.Minute)

	page6, err := svc.PopularConcerts(ctx, 6, 10)
	require.NoError(t, err)
	assert.Empty(t, page6.Data)
	assert.Equal(t, 50, page6.Meta.Total)
	assert.Equal(t, 5, page6.Meta.TotalPages)
	assert.Equal(t, 6, page6.Meta.Page)
}

func TestPopularConcertsWindowSmallerThanCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t, 8, time.Minute)

	listing, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 8, listing.Meta.Total)
	assert.Equal(t, 1, listing.Meta.TotalPages)
	assert.Len(t, listing.Data, 8)
}

func TestPopularConcertsCacheHit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t, 60, time.Minute)

	first, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, CacheStatusMiss, first.Meta.CacheStatus)

	second, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, CacheStatusHit, second.Meta.CacheStatus)
	assert.Equal(t, first.Data, second.Data)
}

func TestPopularConcertsCacheKeyPerPage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t, 60, time.Minute)

	_, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)

	// a different (page, limit) pair is its own key, so still a miss
	other, err := svc.PopularConcerts(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, CacheStatusMiss, other.Meta.CacheStatus)
}

func TestPopularConcertsStaleAfterMutation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.SeedConcerts(ctx, rankedConcerts(10)))
	svc := NewCatalogService(mem, cache.NewMemory(), time.Minute)

	first, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	seatsBefore := first.Data[0].Seats

	_, err = mem.DecrementSeats(ctx, first.Data[0].ID, 5)
	require.NoError(t, err)

	// within the TTL the cached page still shows the old count
	cachedRead, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, CacheStatusHit, cachedRead.Meta.CacheStatus)
	assert.Equal(t, seatsBefore, cachedRead.Data[0].Seats)
}

func TestPopularConcertsRecomputesAfterExpiry(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	require.NoError(t, mem.SeedConcerts(ctx, rankedConcerts(10)))
	svc := NewCatalogService(mem, cache.NewMemory(), 10*time.Millisecond)

	first, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, CacheStatusMiss, first.Meta.CacheStatus)

	_, err = mem.DecrementSeats(ctx, first.Data[0].ID, 5)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	refreshed, err := svc.PopularConcerts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, CacheStatusMiss, refreshed.Meta.CacheStatus)
	assert.Equal(t, first.Data[0].Seats-5, refreshed.Data[0].Seats)
}

func TestPopularConcertsNormalizesPaging(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCatalogFixture(t, 60, time.Minute)

	listing, err := svc.PopularConcerts(ctx, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Meta.Page)
	assert.Equal(t, 10, listing.Meta.Limit)
}
