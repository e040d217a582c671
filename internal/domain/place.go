package domain

import "time"

// TypeIDs are category ids the place list sometimes reports in PlaceID.
// They are never real per-shelter ids.
var TypeIDs = map[int64]struct{}{3012: {}, 3031: {}, 3091: {}}

func IsTypeID(id int64) bool {
	_, ok := TypeIDs[id]
	return ok
}

type Place struct {
	ID     int64   `json:"id"` // 0 until resolved
	Name   string  `json:"name"`
	Region string  `json:"region"`
	URL    string  `json:"url"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

func (p Place) Resolved() bool { return p.ID > 0 && !IsTypeID(p.ID) }

func (p Place) HasCoords() bool { return p.Lat != 0 || p.Lon != 0 }

type CacheEntry struct {
	SavedAt time.Time `json:"saved_at"`
	Places  []Place   `json:"places"`
}

type AvailabilityResult struct {
	Place      Place
	Start      time.Time
	Nights     int
	Available  bool
	BookedHits []string
	Note       string // per-item failure, empty on success
}

type SearchRequest struct {
	Start     time.Time `validate:"required,notpast"`
	Nights    int       `validate:"min=1"`
	Regions   []string
	Title     string
	MaxPlaces int `validate:"min=0"`
}

// NeededDates returns the YYYY-MM-DD dates of [Start, Start+Nights).
func (r SearchRequest) NeededDates() []string {
	out := make([]string, 0, r.Nights)
	for i := 0; i < r.Nights; i++ {
		out = append(out, r.Start.AddDate(0, 0, i).Format(DateLayout))
	}
	return out
}

const DateLayout = "2006-01-02"
