package domain

import "errors"

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrWrite              = errors.New("write error")

	ErrCacheMiss    = errors.New("cache miss")
	ErrCacheCorrupt = errors.New("cache corrupt")

	ErrNotFound       = errors.New("booking api: not found")
	ErrUnauthorized   = errors.New("booking api: unauthorized")
	ErrForbidden      = errors.New("booking api: forbidden")
	ErrInvalidRequest = errors.New("invalid search request")
)

// Exit codes returned by the CLI.
const (
	ExitOK                 = 0
	ExitUsage              = 1
	ExitCatalogUnavailable = 2
	ExitNetworkUnavailable = 3
	ExitWriteError         = 4
)

func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrCatalogUnavailable):
		return ExitCatalogUnavailable
	case errors.Is(err, ErrNetworkUnavailable):
		return ExitNetworkUnavailable
	case errors.Is(err, ErrWrite):
		return ExitWriteError
	default:
		return ExitUsage
	}
}
