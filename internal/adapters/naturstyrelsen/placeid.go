package naturstyrelsen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"shelterfinder/internal/domain"
)

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)inc_ajaxgetbookingsforsingleplace\.asp\?i=(\d+)`),
	regexp.MustCompile(`(?i)data-place-id\s*=\s*"(\d+)"`),
	regexp.MustCompile(`(?i)place[_\s-]*id\s*[:=]\s*"?(\d+)"?`),
	regexp.MustCompile(`(?i)[?&]i=(\d+)`),
}

// ResolvePlaceID fetches a shelter page and extracts its booking place id.
// Returns 0 with a nil error when the page holds no usable id.
func (c *Client) ResolvePlaceID(ctx context.Context, pageURL string) (int64, error) {
	if strings.HasPrefix(pageURL, c.base+"/sted/") && !strings.HasSuffix(pageURL, "/") {
		pageURL += "/"
	}
	b, err := c.fetch(ctx, "place_page", pageURL, false)
	if errors.Is(err, domain.ErrNotFound) && !strings.HasSuffix(pageURL, "/") {
		b, err = c.fetch(ctx, "place_page", pageURL+"/", false)
	}
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return ExtractPlaceID(string(b)), nil
}

// ExtractPlaceID looks for the booking id in the DOM first (data attributes,
// links and scripts pointing at the bookings endpoint), then in the raw markup.
func ExtractPlaceID(html string) int64 {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if id := idFromDocument(doc); id > 0 {
			return id
		}
	}
	for _, rgx := range idPatterns {
		for _, m := range rgx.FindAllStringSubmatch(html, -1) {
			if id := parseID(m[1]); id > 0 {
				return id
			}
		}
	}
	return 0
}

func idFromDocument(doc *goquery.Document) int64 {
	var id int64
	doc.Find("[data-place-id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("data-place-id")
		id = parseID(v)
		return id == 0
	})
	if id > 0 {
		return id
	}

	bookings := idPatterns[0]
	doc.Find("a[href], iframe[src], script[src], form[action]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"href", "src", "action"} {
			v, ok := s.Attr(attr)
			if !ok {
				continue
			}
			if m := bookings.FindStringSubmatch(v); m != nil {
				id = parseID(m[1])
				if id > 0 {
					return false
				}
			}
		}
		return true
	})
	if id > 0 {
		return id
	}

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := bookings.FindStringSubmatch(s.Text()); m != nil {
			id = parseID(m[1])
		}
		return id == 0
	})
	return id
}

func parseID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 || domain.IsTypeID(n) {
		return 0
	}
	return n
}
