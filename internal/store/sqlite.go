// Package store keeps a queryable copy of closed intervals in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chaz8081/timeflip-logger/internal/intervals"
)

// SQLiteStore records closed intervals. It implements intervals.Observer.
type SQLiteStore struct {
	db      *sql.DB
	address string
}

// OpenSQLite opens (or creates) the database at dbPath. address tags every
// row with the cube it came from.
func OpenSQLite(dbPath, address string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("store: create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	// Only the logger goroutine writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, address: address}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS intervals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  address TEXT NOT NULL,
  activity TEXT NOT NULL,
  start_ts INTEGER NOT NULL,
  end_ts INTEGER NOT NULL,
  duration INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS intervals_start ON intervals(start_ts);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: create intervals table: %w", err)
	}
	return nil
}

// IntervalStarted is a no-op: only closed intervals are stored.
func (s *SQLiteStore) IntervalStarted(string, time.Time, string) error {
	return nil
}

// IntervalClosed inserts iv.
func (s *SQLiteStore) IntervalClosed(iv intervals.Interval) error {
	const stmt = `
INSERT INTO intervals (session_id, address, activity, start_ts, end_ts, duration)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(context.Background(), stmt,
		iv.SessionID,
		s.address,
		iv.Activity,
		iv.Start.Unix(),
		iv.End.Unix(),
		iv.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("store: insert interval: %w", err)
	}
	return nil
}

// Totals returns the summed duration in seconds per activity for intervals
// starting in [from, to).
func (s *SQLiteStore) Totals(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	const q = `
SELECT activity, SUM(duration) FROM intervals
WHERE start_ts >= ? AND start_ts < ?
GROUP BY activity;
`
	rows, err := s.db.QueryContext(ctx, q, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("store: query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var activity string
		var sum int64
		if err := rows.Scan(&activity, &sum); err != nil {
			return nil, fmt.Errorf("store: scan totals: %w", err)
		}
		totals[activity] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate totals: %w", err)
	}
	return totals, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ intervals.Observer = (*SQLiteStore)(nil)
