// Package store handles SQLite persistence of fetched contribution data.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verso-dev/folio/internal/gitmap"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the contribution cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contributions (
			user TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (user, date)
		);`,
		`CREATE TABLE IF NOT EXISTS fetches (
			user TEXT PRIMARY KEY,
			fetched_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertContributions replaces the cached days for a user and records the
// fetch time.
func (s *Store) UpsertContributions(ctx context.Context, user string, days []gitmap.ContributionDay) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if len(days) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO contributions (user, date, count, level)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(user, date) DO UPDATE SET count = excluded.count, level = excluded.level`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, d := range days {
			if _, err = stmt.ExecContext(ctx, user, d.Date, d.Count, d.Level); err != nil {
				return err
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO fetches (user, fetched_at) VALUES (?, ?)
		 ON CONFLICT(user) DO UPDATE SET fetched_at = excluded.fetched_at`,
		user, time.Now().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

// ListContributions returns cached days for a user within [from, to],
// ordered by date.
func (s *Store) ListContributions(ctx context.Context, user string, from, to time.Time) ([]gitmap.ContributionDay, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, count, level FROM contributions
		 WHERE user = ? AND date >= ? AND date <= ?
		 ORDER BY date ASC`,
		user, from.Format(gitmap.DateFormat), to.Format(gitmap.DateFormat))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var days []gitmap.ContributionDay
	for rows.Next() {
		var d gitmap.ContributionDay
		if err := rows.Scan(&d.Date, &d.Count, &d.Level); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

// LastFetchedAt returns when a user's contributions were last fetched, or the
// zero time when the user is not cached.
func (s *Store) LastFetchedAt(ctx context.Context, user string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM fetches WHERE user = ?`, user).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}
