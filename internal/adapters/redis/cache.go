package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"shelterfinder/internal/adapters/observability"
	"shelterfinder/internal/domain"
)

const DefaultKey = "shelters:catalog"

// Store keeps the catalog as one JSON value. The value never expires.
type Store struct {
	c   *redis.Client
	key string
}

func New(addr, pass string, db int) *Store {
	return &Store{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), key: DefaultKey}
}

// NewFromURL accepts redis://[:password@]host:port[/db].
func NewFromURL(rawURL string) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{c: redis.NewClient(opts), key: DefaultKey}, nil
}

func (r *Store) Load(ctx context.Context) (domain.CacheEntry, error) {
	v, err := r.c.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache("redis", "miss")
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	if err != nil {
		return domain.CacheEntry{}, err
	}
	var e domain.CacheEntry
	if err := json.Unmarshal(v, &e); err != nil {
		observability.ObserveCache("redis", "corrupt")
		return domain.CacheEntry{}, fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)
	}
	if len(e.Places) == 0 {
		observability.ObserveCache("redis", "miss")
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	observability.ObserveCache("redis", "hit")
	return e, nil
}

func (r *Store) Save(ctx context.Context, e domain.CacheEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, r.key, b, 0).Err()
}

func (r *Store) Close() error { return r.c.Close() }
