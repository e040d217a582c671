package naturstyrelsen

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shelterfinder/internal/domain"
)

const (
	pageSize = 200
	maxPages = 500
)

var placeAliases = map[string][]string{
	"title":  {"Title", "Name"},
	"uri":    {"Uri", "URI", "Url"},
	"id":     {"PlaceID", "PlaceId"},
	"lat":    {"DoubleLat", "Lat", "Latitude"},
	"lng":    {"DoubleLng", "Lng", "Lon", "Longitude"},
	"region": {"RegionName", "Region", "Area"},
}

type placesPage struct {
	BookingPlacesList []map[string]any `json:"BookingPlacesList"`
}

// ListPlaces pulls every shelter from the paged list endpoint.
func (c *Client) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	var out []domain.Place
	for p := 1; p <= maxPages; p++ {
		q := url.Values{}
		q.Set("pid", "0")
		q.Set("p", strconv.Itoa(p))
		q.Set("r", "50000")
		q.Set("ps", strconv.Itoa(pageSize))
		q.Set("t", "1")

		b, err := c.fetch(ctx, "places", c.base+placesPath+"?"+q.Encode(), true)
		if err != nil {
			return nil, fmt.Errorf("list places page %d: %w", p, err)
		}
		var page placesPage
		if len(b) > 0 {
			if err := json.Unmarshal(jsonBody(b), &page); err != nil {
				return nil, fmt.Errorf("decode places page %d: %w", p, err)
			}
		}
		rows := page.BookingPlacesList
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if pl, ok := c.mapPlace(row); ok {
				out = append(out, pl)
			}
		}
		log.Debug().Int("page", p).Int("rows", len(rows)).Msg("places page fetched")
		if len(rows) < pageSize {
			break
		}
	}
	return out, nil
}

// mapPlace converts one list row. Rows without a Uri are not bookable shelters.
func (c *Client) mapPlace(row map[string]any) (domain.Place, bool) {
	uri := strings.Trim(strings.TrimSpace(firstString(row, placeAliases["uri"]...)), "/")
	if uri == "" {
		return domain.Place{}, false
	}
	pl := domain.Place{
		Name:   strings.TrimSpace(firstString(row, placeAliases["title"]...)),
		Region: strings.TrimSpace(firstString(row, placeAliases["region"]...)),
		URL:    fmt.Sprintf("%s/sted/%s/", c.base, uri),
	}
	if pl.Name == "" {
		pl.Name = cases.Title(language.Danish).String(strings.ReplaceAll(uri, "-", " "))
	}
	if id := firstInt64Flexible(row, placeAliases["id"]...); id != nil && !domain.IsTypeID(*id) && *id > 0 {
		pl.ID = *id
	}
	lat := getFloatFlexible(row, placeAliases["lat"]...)
	lng := getFloatFlexible(row, placeAliases["lng"]...)
	if lat != nil && lng != nil {
		pl.Lat, pl.Lon = *lat, *lng
	}
	return pl, true
}

type bookingsPayload struct {
	BookingDates []any `json:"BookingDates"`
}

// BookedDates returns the set of YYYY-MM-DD dates already booked for a place,
// as reported for the window starting at day.
func (c *Client) BookedDates(ctx context.Context, placeID int64, day time.Time) (map[string]struct{}, error) {
	b, err := c.fetch(ctx, "bookings", c.bookingsURL(placeID, day), true)
	if err != nil {
		return nil, err
	}
	var payload bookingsPayload
	if len(b) > 0 {
		if err := json.Unmarshal(jsonBody(b), &payload); err != nil {
			return nil, fmt.Errorf("decode bookings for %d: %w", placeID, err)
		}
	}
	out := make(map[string]struct{}, len(payload.BookingDates))
	for _, v := range payload.BookingDates {
		if s := normalizeDate(v); s != "" {
			out[s] = struct{}{}
		}
	}
	return out, nil
}

// RawBookings returns the undecoded bookings object for manual inspection.
func (c *Client) RawBookings(ctx context.Context, placeID int64, day time.Time) (map[string]any, error) {
	b, err := c.fetch(ctx, "bookings", c.bookingsURL(placeID, day), true)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(jsonBody(b), &out); err != nil {
		return nil, fmt.Errorf("decode bookings for %d: %w", placeID, err)
	}
	return out, nil
}

func (c *Client) bookingsURL(placeID int64, day time.Time) string {
	q := url.Values{}
	q.Set("i", strconv.FormatInt(placeID, 10))
	q.Set("d", day.Format("20060102"))
	return c.base + bookingsPath + "?" + q.Encode()
}

// normalizeDate keeps the calendar part of "2025-09-07" or "2025-09-07T00:00:00".
func normalizeDate(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case nil:
		return ""
	default:
		s = strings.TrimSpace(fmt.Sprint(t))
	}
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}
	return s
}

/********** tiny helpers **********/

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// getFloatFlexible: number from several keys (float64/int/string like "55,7").
func getFloatFlexible(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several keys (float64/int/string).
func firstInt64Flexible(m map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}
