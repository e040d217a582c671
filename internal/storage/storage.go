// Package storage picks the catalog store backend from a cache location.
package storage

import (
	"path/filepath"
	"strings"

	redisad "shelterfinder/internal/adapters/redis"
	"shelterfinder/internal/domain"
	"shelterfinder/internal/storage/filecache"
	"shelterfinder/internal/storage/sqlite"
)

// Open resolves location to a store:
//
//	redis://host:6379/0   redis key shelters:catalog
//	catalog.db|.sqlite    SQLite file
//	anything else         JSON file
func Open(location string) (domain.CatalogStore, error) {
	switch {
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		return redisad.NewFromURL(location)
	case isSQLitePath(location):
		return sqlite.Open(location)
	default:
		return filecache.New(location), nil
	}
}

// Backend names the store kind for logging.
func Backend(location string) string {
	switch {
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		return "redis"
	case isSQLitePath(location):
		return "sqlite"
	default:
		return "file"
	}
}

func isSQLitePath(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
