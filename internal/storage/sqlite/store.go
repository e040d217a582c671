// Package sqlite stores the place catalog in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"shelterfinder/internal/adapters/observability"
	"shelterfinder/internal/domain"
)

type Store struct{ db *sql.DB }

// Open opens or creates the database file and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context) (domain.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectPlacesSQL)
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)
	}
	defer rows.Close()

	var e domain.CacheEntry
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.ID, &p.Name, &p.Region, &p.URL, &p.Lat, &p.Lon); err != nil {
			observability.ObserveCache("sqlite", "corrupt")
			return domain.CacheEntry{}, fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)
		}
		e.Places = append(e.Places, p)
	}
	if err := rows.Err(); err != nil {
		return domain.CacheEntry{}, fmt.Errorf("error iterating place rows: %w", err)
	}
	if len(e.Places) == 0 {
		observability.ObserveCache("sqlite", "miss")
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}

	var savedAt string
	err = s.db.QueryRowContext(ctx, selectMetaSQL).Scan(&savedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return domain.CacheEntry{}, err
	default:
		e.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	}
	observability.ObserveCache("sqlite", "hit")
	return e, nil
}

// Save replaces the stored catalog in a single transaction.
func (s *Store) Save(ctx context.Context, e domain.CacheEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deletePlacesSQL); err != nil {
		return fmt.Errorf("clear places: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertPlaceSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, p := range e.Places {
		if _, err := stmt.ExecContext(ctx, i, p.URL, p.ID, p.Name, p.Region, p.Lat, p.Lon); err != nil {
			return fmt.Errorf("insert place %q: %w", p.URL, err)
		}
	}
	if _, err := tx.ExecContext(ctx, upsertMetaSQL, e.SavedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	observability.ObserveCache("sqlite", "set")
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
