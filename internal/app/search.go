package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"shelterfinder/internal/csvout"
	"shelterfinder/internal/domain"
)

type Summary struct {
	Candidates int
	Available  int
	Failed     int
	Out        string
}

// Runner ties the search pipeline together:
// catalog → title/region filters → limit → availability → CSV.
type Runner struct {
	catalog *CatalogService
	checker domain.AvailabilityChecker
	now     func() time.Time

	// OnCandidates, when set, receives the number of places about to be checked.
	OnCandidates func(n int)
}

func NewRunner(c *CatalogService, checker domain.AvailabilityChecker) *Runner {
	return &Runner{catalog: c, checker: checker, now: time.Now}
}

// Candidates loads the catalog and applies the request's filters.
func (r *Runner) Candidates(ctx context.Context, req domain.SearchRequest, refresh bool) ([]domain.Place, error) {
	places, err := r.catalog.Load(ctx, refresh)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		before := len(places)
		places = FilterTitle(places, req.Title)
		log.Info().Str("filter", req.Title).Int("remain", len(places)).Int("of", before).Msg("title filter applied")
	}
	if len(req.Regions) > 0 {
		for _, reg := range req.Regions {
			if len(FilterRegion(places, reg)) == 0 && !IsPreset(reg) {
				log.Warn().Str("region", reg).Msg("unknown region; run --list-regions to see options")
			}
		}
		before := len(places)
		places = FilterRegions(places, req.Regions)
		log.Info().Strs("regions", req.Regions).Int("remain", len(places)).Int("of", before).Msg("region filter applied")
	}
	if req.MaxPlaces > 0 && len(places) > req.MaxPlaces {
		places = Limit(places, req.MaxPlaces)
		log.Info().Int("limit", req.MaxPlaces).Msg("limiting places for test run")
	}
	return places, nil
}

func (r *Runner) Search(ctx context.Context, req domain.SearchRequest, out string, refresh bool) (Summary, error) {
	if err := req.Validate(r.now()); err != nil {
		return Summary{}, err
	}

	places, err := r.Candidates(ctx, req, refresh)
	if err != nil {
		return Summary{}, err
	}
	if r.OnCandidates != nil {
		r.OnCandidates(len(places))
	}

	results, err := r.checker.Check(ctx, places, req)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Candidates: len(places), Out: out}
	for _, res := range results {
		if res.Note != "" {
			sum.Failed++
		}
	}
	n, err := csvout.WriteFile(out, results)
	if err != nil {
		return sum, err
	}
	sum.Available = n

	log.Info().
		Int("candidates", sum.Candidates).
		Int("available", sum.Available).
		Int("failed", sum.Failed).
		Str("start", req.Start.Format(domain.DateLayout)).
		Int("nights", req.Nights).
		Str("out", out).
		Msg("search done")
	return sum, nil
}
