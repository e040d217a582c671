package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"shelterfinder/internal/domain"
)

var ErrNoProbeTarget = errors.New("no place to probe")

type ProbeService struct{ api domain.BookingAPI }

func NewProbeService(api domain.BookingAPI) *ProbeService { return &ProbeService{api: api} }

// Probe issues one bookings request and prints the raw payload to w.
// placeID > 0 selects that place from the catalog; otherwise the first place
// with a resolved id is used.
func (s *ProbeService) Probe(ctx context.Context, w io.Writer, places []domain.Place, req domain.SearchRequest, placeID int64) error {
	target, ok := pickProbeTarget(places, placeID)
	if !ok {
		if placeID > 0 {
			return fmt.Errorf("%w: place %d is not in the catalog", ErrNoProbeTarget, placeID)
		}
		return fmt.Errorf("%w: no place with a resolved id", ErrNoProbeTarget)
	}

	raw, err := s.api.RawBookings(ctx, target.ID, req.Start)
	if err != nil {
		return fmt.Errorf("probe %q: %w", target.Name, err)
	}

	body, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	needed := req.NeededDates()
	booked := bookedFromRaw(raw)
	var hits []string
	for _, d := range needed {
		if _, ok := booked[d]; ok {
			hits = append(hits, d)
		}
	}

	fmt.Fprintf(w, "Probe %s (id %d) region=%q on %s\n", target.Name, target.ID, target.Region, req.Start.Format(domain.DateLayout))
	fmt.Fprintf(w, "%s\n", body)
	fmt.Fprintf(w, "needs=%v booked_hits=%v booked_count=%d available=%t\n", needed, hits, len(booked), len(hits) == 0)
	return nil
}

func pickProbeTarget(places []domain.Place, placeID int64) (domain.Place, bool) {
	for _, p := range places {
		if placeID > 0 {
			if p.ID == placeID {
				return p, true
			}
			continue
		}
		if p.Resolved() {
			return p, true
		}
	}
	return domain.Place{}, false
}

func bookedFromRaw(raw map[string]any) map[string]struct{} {
	out := map[string]struct{}{}
	list, _ := raw["BookingDates"].([]any)
	for _, v := range list {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			s = s[:10]
		}
		if s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}
