// Package csvout writes available shelters as CSV.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"shelterfinder/internal/domain"
)

var Header = []string{"name", "region", "latitude", "longitude", "start_date", "nights"}

// WriteFile writes the available results to path and returns the number of
// data rows. The header is written even when nothing is available.
func WriteFile(path string, results []domain.AvailabilityResult) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", domain.ErrWrite, cerr)
		}
	}()
	return Write(f, results)
}

func Write(w io.Writer, results []domain.AvailabilityResult) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	n := 0
	for _, r := range results {
		if !r.Available {
			continue
		}
		rec := []string{
			r.Place.Name,
			r.Place.Region,
			strconv.FormatFloat(r.Place.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Place.Lon, 'f', -1, 64),
			r.Start.Format(domain.DateLayout),
			strconv.Itoa(r.Nights),
		}
		if err := cw.Write(rec); err != nil {
			return n, fmt.Errorf("%w: %v", domain.ErrWrite, err)
		}
		n++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("%w: %v", domain.ErrWrite, err)
	}
	return n, nil
}
