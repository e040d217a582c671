package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"shelterfinder/internal/adapters/observability"
	"shelterfinder/internal/domain"
)

// AvailabilityService checks places one request each. With workers <= 1 the
// places are queried in a plain loop; otherwise at most workers requests are
// in flight. Results always come back in input order.
type AvailabilityService struct {
	api      domain.BookingAPI
	workers  int
	onResult func(domain.AvailabilityResult)
}

func NewAvailabilityService(api domain.BookingAPI, workers int) *AvailabilityService {
	return &AvailabilityService{api: api, workers: workers}
}

// OnResult registers a callback invoked after every finished place check.
// It may be called from several goroutines when workers > 1.
func (s *AvailabilityService) OnResult(fn func(domain.AvailabilityResult)) {
	s.onResult = fn
}

func (s *AvailabilityService) Check(ctx context.Context, places []domain.Place, req domain.SearchRequest) ([]domain.AvailabilityResult, error) {
	out := make([]domain.AvailabilityResult, len(places))
	log.Info().
		Int("places", len(places)).
		Str("start", req.Start.Format(domain.DateLayout)).
		Int("nights", req.Nights).
		Int("workers", max(s.workers, 1)).
		Msg("checking availability")

	if s.workers <= 1 {
		for i, p := range places {
			r, err := s.checkOne(ctx, i, len(places), p, req)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(s.workers))
	for i, p := range places {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			r, err := s.checkOne(gctx, i, len(places), p, req)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// checkOne only returns an error when the whole batch must stop: the booking
// host is unreachable or the context is done. Anything else lands in Note.
func (s *AvailabilityService) checkOne(ctx context.Context, idx, total int, p domain.Place, req domain.SearchRequest) (domain.AvailabilityResult, error) {
	r := domain.AvailabilityResult{Place: p, Start: req.Start, Nights: req.Nights}
	l := log.With().Int("n", idx+1).Int("of", total).Str("place", p.Name).Int64("id", p.ID).Logger()

	defer func() {
		if s.onResult != nil {
			s.onResult(r)
		}
	}()

	if !p.Resolved() {
		r.Note = "missing place id"
		observability.ObserveAvailability("skipped")
		l.Warn().Str("url", p.URL).Msg("skipping place without id")
		return r, nil
	}

	booked, err := s.api.BookedDates(ctx, p.ID, req.Start)
	if err != nil {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		if errors.Is(err, domain.ErrNetworkUnavailable) {
			return r, fmt.Errorf("availability for %q: %w", p.Name, err)
		}
		r.Note = err.Error()
		observability.ObserveAvailability("error")
		l.Warn().Err(err).Msg("availability query failed")
		return r, nil
	}

	for _, d := range req.NeededDates() {
		if _, ok := booked[d]; ok {
			r.BookedHits = append(r.BookedHits, d)
		}
	}
	r.Available = len(r.BookedHits) == 0

	if r.Available {
		observability.ObserveAvailability("available")
		l.Info().Msg("available")
	} else {
		observability.ObserveAvailability("booked")
		l.Debug().Strs("booked_hits", r.BookedHits).Int("booked_count", len(booked)).Msg("not available for range")
	}
	return r, nil
}
