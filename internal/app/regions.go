package app

import (
	"iter"
	"strings"

	"shelterfinder/internal/domain"
)

// Preset is a named bounding box used to label places the API leaves without a region.
type Preset struct {
	Name                           string
	LatMin, LatMax, LonMin, LonMax float64
}

func (p Preset) Contains(lat, lon float64) bool {
	return lat >= p.LatMin && lat <= p.LatMax && lon >= p.LonMin && lon <= p.LonMax
}

// presets are ordered most specific first; the boxes overlap.
var presets = []Preset{
	{"Amager", 55.55, 55.75, 12.45, 12.75},
	{"Møn", 54.85, 55.08, 12.15, 12.60},
	{"Lolland-Falster", 54.50, 54.95, 11.05, 12.30},
	{"Bornholm", 55.00, 55.40, 14.60, 15.30},
	{"Fyn", 55.00, 55.60, 9.60, 10.80},
	{"Sjælland", 54.60, 56.15, 11.00, 12.80},
	{"Jylland", 54.55, 57.80, 8.00, 10.60},
}

// regionAliases maps folded user spellings to the folded canonical key.
var regionAliases = map[string]string{
	"zealand":  "sjaelland",
	"sjalland": "sjaelland",
	"funen":    "fyn",
	"jutland":  "jylland",
	"jyland":   "jylland",
	"lolland":  "lollandfalster",
	"falster":  "lollandfalster",
	"mon":      "moen",
}

var foldReplacer = strings.NewReplacer(
	"æ", "ae", "ø", "oe", "å", "aa",
	" ", "", "_", "", "-", "",
)

// RegionKey folds a region name for comparison: case, Danish letters,
// separators and known aliases are normalised away.
func RegionKey(s string) string {
	k := foldReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	if canon, ok := regionAliases[k]; ok {
		return canon
	}
	return k
}

func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetFor returns the first preset containing the coordinates, or "".
func PresetFor(lat, lon float64) string {
	for _, p := range presets {
		if p.Contains(lat, lon) {
			return p.Name
		}
	}
	return ""
}

func IsPreset(region string) bool {
	_, ok := presetByKey(RegionKey(region))
	return ok
}

func presetByKey(k string) (Preset, bool) {
	for _, p := range presets {
		if RegionKey(p.Name) == k {
			return p, true
		}
	}
	return Preset{}, false
}

// FilterRegion keeps places whose region equals region after folding.
// An empty region returns the input unchanged.
func FilterRegion(places []domain.Place, region string) []domain.Place {
	if strings.TrimSpace(region) == "" {
		return places
	}
	return FilterRegions(places, []string{region})
}

// FilterRegions keeps places matching any of regions. A place matches a
// region when its own region name folds to the same key. When the region
// names a preset, a place whose coordinates fall inside the preset's box
// matches as well.
func FilterRegions(places []domain.Place, regions []string) []domain.Place {
	want := make(map[string]struct{}, len(regions))
	var boxes []Preset
	for _, r := range regions {
		k := RegionKey(r)
		if k == "" {
			continue
		}
		if _, dup := want[k]; dup {
			continue
		}
		want[k] = struct{}{}
		if p, ok := presetByKey(k); ok {
			boxes = append(boxes, p)
		}
	}
	if len(want) == 0 {
		return places
	}
	out := make([]domain.Place, 0, len(places))
	for _, p := range places {
		if matchesRegion(p, want, boxes) {
			out = append(out, p)
		}
	}
	return out
}

func matchesRegion(p domain.Place, want map[string]struct{}, boxes []Preset) bool {
	if _, ok := want[RegionKey(p.Region)]; ok {
		return true
	}
	if !p.HasCoords() {
		return false
	}
	for _, b := range boxes {
		if b.Contains(p.Lat, p.Lon) {
			return true
		}
	}
	return false
}

// ListRegions yields each distinct region once, in catalog order, first
// spelling wins. The sequence makes a single pass: ranging over it a second
// time yields nothing.
func ListRegions(places []domain.Place) iter.Seq[string] {
	consumed := false
	return func(yield func(string) bool) {
		if consumed {
			return
		}
		consumed = true
		seen := make(map[string]struct{})
		for _, p := range places {
			k := RegionKey(p.Region)
			if k == "" {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if !yield(strings.TrimSpace(p.Region)) {
				return
			}
		}
	}
}

// FilterTitle keeps places whose name contains sub, case-insensitively.
func FilterTitle(places []domain.Place, sub string) []domain.Place {
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return places
	}
	out := make([]domain.Place, 0, len(places))
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Name), sub) {
			out = append(out, p)
		}
	}
	return out
}

// Limit returns the first n places; n <= 0 means no limit.
func Limit(places []domain.Place, n int) []domain.Place {
	if n <= 0 || n >= len(places) {
		return places
	}
	return places[:n]
}
