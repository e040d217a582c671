package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"shelterfinder/internal/domain"
)

type CatalogService struct {
	api   domain.BookingAPI
	store domain.CatalogStore // nil disables caching
	now   func() time.Time

	// BeforeFetch, when set, runs once before the first network request of a
	// Load. Cache hits with every id resolved never call it.
	BeforeFetch func(ctx context.Context)
}

func NewCatalogService(api domain.BookingAPI, store domain.CatalogStore) *CatalogService {
	return &CatalogService{api: api, store: store, now: time.Now}
}

// Load returns the full catalog. The cache is used unless refresh is set;
// otherwise the place list is fetched, missing ids are resolved and regions
// backfilled before the result is written back to the cache.
func (s *CatalogService) Load(ctx context.Context, refresh bool) ([]domain.Place, error) {
	var cached []domain.Place
	if s.store != nil {
		e, err := s.store.Load(ctx)
		switch {
		case err == nil:
			cached = e.Places
			if !refresh {
				log.Info().Int("places", len(e.Places)).Time("saved_at", e.SavedAt).Msg("catalog loaded from cache")
				return s.retryUnresolved(ctx, e.Places), nil
			}
		case errors.Is(err, domain.ErrCacheMiss):
			log.Info().Msg("catalog cache empty; fetching from network")
		case errors.Is(err, domain.ErrCacheCorrupt):
			log.Warn().Err(err).Msg("catalog cache unreadable; falling back to network")
		default:
			log.Warn().Err(err).Msg("catalog cache failed; falling back to network")
		}
	}

	if s.BeforeFetch != nil {
		s.BeforeFetch(ctx)
	}
	places, err := s.fetch(ctx, cached)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if len(cached) > 0 {
			log.Warn().Err(err).Msg("refresh failed; using cached catalog")
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	if s.store != nil {
		if err := s.store.Save(ctx, domain.CacheEntry{SavedAt: s.now().UTC(), Places: places}); err != nil {
			log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return places, nil
}

// fetch lists places from the API. Ids already known for a URL in cached are
// reused so a refresh does not scrape every shelter page again.
func (s *CatalogService) fetch(ctx context.Context, cached []domain.Place) ([]domain.Place, error) {
	log.Info().Msg("collecting places from API")
	places, err := s.api.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Int("places", len(places)).Msg("places fetched")

	known := make(map[string]int64, len(cached))
	for _, p := range cached {
		if p.Resolved() {
			known[p.URL] = p.ID
		}
	}
	if _, err := s.resolve(ctx, places, known); err != nil {
		return nil, err
	}

	for i := range places {
		if places[i].Region == "" && places[i].HasCoords() {
			places[i].Region = PresetFor(places[i].Lat, places[i].Lon)
		}
	}
	return places, nil
}

// retryUnresolved looks up ids the last run could not find. The cache is only
// rewritten when at least one id was found; lookup failures keep the cached
// catalog as it is.
func (s *CatalogService) retryUnresolved(ctx context.Context, places []domain.Place) []domain.Place {
	missing := 0
	for _, p := range places {
		if !p.Resolved() {
			missing++
		}
	}
	if missing == 0 {
		return places
	}
	if s.BeforeFetch != nil {
		s.BeforeFetch(ctx)
	}
	out := make([]domain.Place, len(places))
	copy(out, places)
	fixed, err := s.resolve(ctx, out, nil)
	if err != nil {
		log.Warn().Err(err).Msg("retrying unresolved place ids failed; using cached catalog")
		return places
	}
	if fixed > 0 {
		if err := s.store.Save(ctx, domain.CacheEntry{SavedAt: s.now().UTC(), Places: out}); err != nil {
			log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return out
}

// resolve fills in missing ids, first from known (url -> id), then by
// scraping the shelter page. It stops early only when the network is down.
func (s *CatalogService) resolve(ctx context.Context, places []domain.Place, known map[string]int64) (int, error) {
	var targets []int
	for i, p := range places {
		if !p.Resolved() {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}
	log.Info().Int("to_resolve", len(targets)).Msg("resolving place ids")
	fixed := 0
	for n, i := range targets {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		p := &places[i]
		if id, ok := known[p.URL]; ok {
			p.ID = id
			fixed++
		} else {
			id, err := s.api.ResolvePlaceID(ctx, p.URL)
			switch {
			case errors.Is(err, domain.ErrNetworkUnavailable):
				return fixed, err
			case err != nil:
				log.Warn().Err(err).Str("url", p.URL).Msg("place id lookup failed")
			case id == 0:
				log.Warn().Str("url", p.URL).Msg("no place id on shelter page")
			default:
				p.ID = id
				fixed++
			}
		}
		if (n+1)%20 == 0 {
			log.Info().Int("resolved", fixed).Int("done", n+1).Int("of", len(targets)).Msg("resolving place ids")
		}
	}
	log.Info().Int("resolved", fixed).Int("of", len(targets)).Msg("place ids resolved")
	return fixed, nil
}
