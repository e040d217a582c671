package domain

import (
	"context"
	"time"
)

type BookingAPI interface {
	ListPlaces(ctx context.Context) ([]Place, error)
	BookedDates(ctx context.Context, placeID int64, day time.Time) (map[string]struct{}, error)
	RawBookings(ctx context.Context, placeID int64, day time.Time) (map[string]any, error)
	ResolvePlaceID(ctx context.Context, pageURL string) (int64, error)
}

// CatalogStore persists the place catalog between runs.
// Load returns ErrCacheMiss when nothing is stored and ErrCacheCorrupt when
// the stored data cannot be decoded.
type CatalogStore interface {
	Load(ctx context.Context) (CacheEntry, error)
	Save(ctx context.Context, e CacheEntry) error
	Close() error
}

type AvailabilityChecker interface {
	Check(ctx context.Context, places []Place, req SearchRequest) ([]AvailabilityResult, error)
}
