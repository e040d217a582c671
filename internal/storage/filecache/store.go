// Package filecache stores the place catalog as a JSON document on disk.
package filecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"shelterfinder/internal/adapters/observability"
	"shelterfinder/internal/domain"
)

type Store struct{ path string }

func New(path string) *Store { return &Store{path: path} }

func (s *Store) Load(ctx context.Context) (domain.CacheEntry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		observability.ObserveCache("file", "miss")
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	if err != nil {
		return domain.CacheEntry{}, err
	}
	defer f.Close()

	var e domain.CacheEntry
	if err := json.NewDecoder(f).Decode(&e); err != nil {
		observability.ObserveCache("file", "corrupt")
		return domain.CacheEntry{}, fmt.Errorf("%w: %s: %v", domain.ErrCacheCorrupt, s.path, err)
	}
	if len(e.Places) == 0 {
		observability.ObserveCache("file", "miss")
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	observability.ObserveCache("file", "hit")
	return e, nil
}

// Save writes to a sibling temp file and renames it over the cache.
func (s *Store) Save(ctx context.Context, e domain.CacheEntry) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	observability.ObserveCache("file", "set")
	return nil
}

func (s *Store) Close() error { return nil }
