package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelterfinder/internal/domain"
	"shelterfinder/internal/storage/sqlite"
)

func TestStore_RoundTripAndReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Load(ctx)
	require.True(t, errors.Is(err, domain.ErrCacheMiss), "got %v", err)

	first := domain.CacheEntry{
		SavedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Places: []domain.Place{
			{ID: 1, Name: "Skovly", Region: "Nordsjælland", URL: "https://x/sted/skovly/", Lat: 55.9, Lon: 12.3},
			{ID: 2, Name: "Strand", Region: "Sydsjælland", URL: "https://x/sted/strand/", Lat: 55.1, Lon: 11.9},
		},
	}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Close())

	// reopen to prove the data is on disk
	s, err = sqlite.Open(path)
	require.NoError(t, err)
	defer s.Close()

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, first.Places, out.Places)
	assert.True(t, first.SavedAt.Equal(out.SavedAt))

	second := domain.CacheEntry{
		SavedAt: first.SavedAt.Add(time.Hour),
		Places:  []domain.Place{{ID: 9, Name: "Mosen", URL: "https://x/sted/mosen/"}},
	}
	require.NoError(t, s.Save(ctx, second))
	out, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Places, out.Places)
}

func TestStore_KeepsRowsSharingURL(t *testing.T) {
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	in := domain.CacheEntry{
		SavedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Places: []domain.Place{
			{ID: 1, Name: "Skovly Nord", URL: "https://x/sted/skovly/"},
			{ID: 2, Name: "Skovly Syd", URL: "https://x/sted/skovly/"},
			{ID: 3, Name: "Strand", URL: "https://x/sted/strand/"},
		},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in.Places, out.Places, "rows keep catalog order and are not merged by url")
}
