// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists successful citation lookups in a SQLite
// database so repeated runs over the same venue skip the network.
// Entries are keyed by DOI and recent-window cutoff year: changing
// the window invalidates the recent counts, so a different cutoff
// must miss. Each entry also records whether its recent count was
// actually measured, so runs that never queried the window cannot
// feed zeros into runs that need it.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached lookup result. Only successful resolutions are
// stored; failures always retry on the next run.
type Entry struct {
	Total  int
	Recent int

	// RecentMeasured is false when Recent was never queried (window
	// disabled, or the listing lookup failed). Unmeasured entries still
	// serve totals-only runs but must not serve a recent-window run.
	RecentMeasured bool
}

// Store manages the lookup cache SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the cache database at path, creating
// parent directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lookups (
		doi TEXT NOT NULL,
		cutoff_year INTEGER NOT NULL,
		citations_total INTEGER NOT NULL,
		citations_recent INTEGER NOT NULL,
		recent_measured INTEGER NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (doi, cutoff_year)
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Get looks up the cached counts for a DOI under the given cutoff
// year. The second return is false on a miss.
func (s *Store) Get(ctx context.Context, doi string, cutoffYear int) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT citations_total, citations_recent, recent_measured FROM lookups WHERE doi = ? AND cutoff_year = ?`,
		doi, cutoffYear,
	).Scan(&e.Total, &e.Recent, &e.RecentMeasured)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying cache: %w", err)
	}
	return e, true, nil
}

// Put stores or refreshes the counts for a DOI under the given cutoff
// year.
func (s *Store) Put(ctx context.Context, doi string, cutoffYear int, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lookups (doi, cutoff_year, citations_total, citations_recent, recent_measured, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doi, cutoff_year) DO UPDATE SET
			citations_total=excluded.citations_total,
			citations_recent=excluded.citations_recent,
			recent_measured=excluded.recent_measured,
			fetched_at=excluded.fetched_at`,
		doi, cutoffYear, e.Total, e.Recent, e.RecentMeasured, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting cache entry: %w", err)
	}
	return nil
}

// Count reports the number of cached lookups.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM lookups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}
