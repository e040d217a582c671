package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"shelterfinder/internal/domain"
)

// ---- fakes ----

type fakeAPI struct {
	mu sync.Mutex

	places    []domain.Place
	listErr   error
	pageIDs   map[string]int64         // url -> id found on the shelter page
	booked    map[int64][]string       // place id -> booked dates
	failFor   map[int64]error          // place id -> error from BookedDates
	raw       map[int64]map[string]any // place id -> raw bookings
	delay     time.Duration
	listCalls int
	resolved  []string
	queried   []int64
	inFlight  int
	maxFlight int
}

func (f *fakeAPI) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Place, len(f.places))
	copy(out, f.places)
	return out, nil
}

func (f *fakeAPI) BookedDates(ctx context.Context, id int64, day time.Time) (map[string]struct{}, error) {
	f.mu.Lock()
	f.queried = append(f.queried, id)
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if err := f.failFor[id]; err != nil {
		return nil, err
	}
	out := map[string]struct{}{}
	for _, d := range f.booked[id] {
		out[d] = struct{}{}
	}
	return out, nil
}

func (f *fakeAPI) RawBookings(ctx context.Context, id int64, day time.Time) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, id)
	if r, ok := f.raw[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAPI) ResolvePlaceID(ctx context.Context, pageURL string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, pageURL)
	if id, ok := f.pageIDs[pageURL]; ok {
		return id, nil
	}
	return 0, nil
}

type fakeStore struct {
	entry   domain.CacheEntry
	loadErr error
	saved   []domain.CacheEntry
}

func (s *fakeStore) Load(ctx context.Context) (domain.CacheEntry, error) {
	if s.loadErr != nil {
		return domain.CacheEntry{}, s.loadErr
	}
	if len(s.entry.Places) == 0 {
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	return s.entry, nil
}

func (s *fakeStore) Save(ctx context.Context, e domain.CacheEntry) error {
	s.saved = append(s.saved, e)
	s.entry = e
	s.loadErr = nil
	return nil
}

func (s *fakeStore) Close() error { return nil }

var errBoom = errors.New("boom")

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
