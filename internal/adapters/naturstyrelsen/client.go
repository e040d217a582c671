// internal/adapters/naturstyrelsen/client.go
package naturstyrelsen

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"shelterfinder/internal/adapters/observability"
	"shelterfinder/internal/domain"
)

const (
	DefaultBase = "https://book.naturstyrelsen.dk"

	placesPath   = "/includes/branding_files/shelterbooking/includes/inc_ajaxbookingplaces.asp"
	bookingsPath = "/includes/branding_files/shelterbooking/includes/inc_ajaxgetbookingsforsingleplace.asp"
	searchPath   = "/soeg/?s1=3012"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type Client struct {
	base     string
	hc       *http.Client
	rl       *rate.Limiter
	attempts int
}

type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

// WithAttempts caps how many times a request is tried on 429/5xx/transport errors.
func WithAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func New(base string, rps int, opts ...Option) (*Client, error) {
	if base == "" {
		base = DefaultBase
	}
	if rps <= 0 {
		rps = 4
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 30 * time.Second, Jar: jar},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: 4,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// WarmUp visits the landing and search pages so the session cookies exist.
// The site sometimes refuses AJAX calls without them. Failures are only logged.
func (c *Client) WarmUp(ctx context.Context) {
	for _, u := range []string{c.base + "/", c.base + searchPath} {
		if _, err := c.fetch(ctx, "warmup", u, false); err != nil {
			log.Debug().Err(err).Str("url", u).Msg("warm-up request failed")
		}
	}
}

// ---- Internals ----

// fetch performs a GET with client-side rate limiting and retries and returns the body.
// Retries on 429, transient 5xx and transport errors, honoring Retry-After when provided.
func (c *Client) fetch(ctx context.Context, endpoint, url string, ajax bool) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < c.attempts; i++ {
		last := i == c.attempts-1

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "da-DK,da;q=0.9,en-US;q=0.8,en;q=0.7")
		req.Header.Set("Referer", c.base+searchPath)
		if ajax {
			req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.1")
			req.Header.Set("X-Requested-With", "XMLHttpRequest")
		} else {
			req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("naturstyrelsen", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// the host cannot be resolved at all; retrying will not help
			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) && !dnsErr.IsTemporary {
				return nil, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
			}
			lastErr = err
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isDialError(lastErr) {
				return nil, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, lastErr)
			}
			return nil, lastErr
		}
		observability.ObserveExternal("naturstyrelsen", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return b, err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return nil, domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// jsonBody strips a UTF-8 BOM and surrounding whitespace. The ASP endpoints
// answer with JSON but frequently label it text/html, so the content type is ignored.
func jsonBody(b []byte) []byte {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	return bytes.TrimSpace(b)
}

func isDialError(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
