package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"concert-booking/internal/cache"
	"concert-booking/internal/models"
	"concert-booking/internal/store"
	"concert-booking/internal/util"

	"go.uber.org/zap"
)

// Cache status markers
const (
	CacheStatusHit  = "HIT"
	CacheStatusMiss = "MISS"
)

// popularWindow is the size of the ranked set the listing paginates over.
const popularWindow = 50

// ListingMeta describes one page of the popular listing
type ListingMeta struct {
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	Total       int    `json:"total"`
	TotalPages  int    `json:"totalPages"`
	CacheStatus string `json:"cacheStatus,omitempty"`
}

// PopularListing is the cached payload of the popular-products endpoint
type PopularListing struct {
	Data []models.Concert `json:"data"`
	Meta ListingMeta      `json:"meta"`
}

// CatalogService serves the read side of the catalog. It never touches
// the write path: seat mutations go through BookingService only.
type CatalogService struct {
	concerts store.ConcertStore
	cache    cache.Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(concerts store.ConcertStore, c cache.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{
		concerts: concerts,
		cache:    c,
		ttl:      ttl,
		logger:   util.GetLogger(),
	}
}

// PopularConcerts returns one page of the top-50 concerts ranked by
// popularity. Pages are cached per (page, limit) key; the ranked set is
// recomputed from scratch on every miss, so staleness is bounded by the
// TTL. Concurrent misses for one key may duplicate the ranking work.
func (s *CatalogService) PopularConcerts(ctx context.Context, page, limit int) (*PopularListing, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.PopularConcerts")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	key := fmt.Sprintf("popular_concerts_p%d_l%d", page, limit)

	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed, recomputing listing", zap.String("key", key), zap.Error(err))
	}
	if hit {
		var listing PopularListing
		if err := json.Unmarshal(cached, &listing); err == nil {
			util.PopularCacheHitsTotal.Inc()
			listing.Meta.CacheStatus = CacheStatusHit
			return &listing, nil
		}
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}

	util.PopularCacheMissesTotal.Inc()

	concerts, err := s.concerts.ListConcerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list concerts: %w", err)
	}

	sort.Slice(concerts, func(i, j int) bool {
		if concerts[i].Popularity != concerts[j].Popularity {
			return concerts[i].Popularity > concerts[j].Popularity
		}
		return concerts[i].ID < concerts[j].ID
	})
	if len(concerts) > popularWindow {
		concerts = concerts[:popularWindow]
	}

	start := (page - 1) * limit
	end := page * limit
	if start > len(concerts) {
		start = len(concerts)
	}
	if end > len(concerts) {
		end = len(concerts)
	}

	listing := &PopularListing{
		Data: concerts[start:end],
		Meta: ListingMeta{
			Page:       page,
			Limit:      limit,
			Total:      len(concerts),
			TotalPages: (len(concerts) + limit - 1) / limit,
		},
	}

	payload, err := json.Marshal(listing)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}
	if err := s.cache.SetEx(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}

	listing.Meta.CacheStatus = CacheStatusMiss
	return listing, nil
}
