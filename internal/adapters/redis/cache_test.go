package redisad_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "shelterfinder/internal/adapters/redis"
	"shelterfinder/internal/domain"
)

func TestStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	s := redisad.New(mr.Addr(), "", 0)
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	in := domain.CacheEntry{
		SavedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Places: []domain.Place{
			{ID: 1, Name: "Skovly", Region: "Nordsjælland", URL: "https://x/sted/skovly/", Lat: 55.9, Lon: 12.3},
			{ID: 0, Name: "Uden id", URL: "https://x/sted/uden-id/"},
		},
	}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL(redisad.DefaultKey); ttl != 0 {
		t.Fatalf("catalog must not expire, ttl=%v", ttl)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(in.Places, out.Places) {
		t.Fatalf("places differ:\n in=%+v\nout=%+v", in.Places, out.Places)
	}
	if !in.SavedAt.Equal(out.SavedAt) {
		t.Fatalf("saved_at differs: %v vs %v", in.SavedAt, out.SavedAt)
	}
}

func TestStore_Corrupt(t *testing.T) {
	mr := miniredis.RunT(t)
	if err := mr.Set(redisad.DefaultKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, err := redisad.NewFromURL("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(context.Background()); !errors.Is(err, domain.ErrCacheCorrupt) {
		t.Fatalf("expected ErrCacheCorrupt, got %v", err)
	}
}
