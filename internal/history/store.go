// Package history records classification outcomes in a sqlite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"traffic-signal/internal/signal"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Source names the front end that produced an entry.
const (
	SourceAPI    = "api"
	SourceWebcam = "webcam"
	SourceGUI    = "gui"
	SourceCLI    = "cli"
)

// Entry is one recorded classification.
type Entry struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Signal    signal.Key    `json:"signal"`
	Counts    signal.Counts `json:"counts"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store is a sqlite-backed detection log. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure history database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores e, filling in ID and CreatedAt when unset, and returns the stored entry.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if !e.Signal.Valid() {
		return Entry{}, fmt.Errorf("invalid signal %q", e.Signal)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO detections (detection_id, source, signal, red_pixels, yellow_pixels, green_pixels, created_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Source, string(e.Signal), e.Counts.Red, e.Counts.Yellow, e.Counts.Green, e.CreatedAt.UnixMilli())
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record detection: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT detection_id, source, signal, red_pixels, yellow_pixels, green_pixels, created_unix_ms
		FROM detections
		ORDER BY created_unix_ms DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e      Entry
			key    string
			millis int64
		)
		if err := rows.Scan(&e.ID, &e.Source, &key, &e.Counts.Red, &e.Counts.Yellow, &e.Counts.Green, &millis); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		e.Signal = signal.Key(key)
		e.CreatedAt = time.UnixMilli(millis).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary returns the number of recorded entries per signal key.
// Every key is present, with zero when it was never recorded.
func (s *Store) Summary(ctx context.Context) (map[signal.Key]int, error) {
	summary := make(map[signal.Key]int, len(signal.Keys))
	for _, k := range signal.Keys {
		summary[k] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT signal, COUNT(*) FROM detections GROUP BY signal`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise detections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary[signal.Key(key)] = count
	}
	return summary, rows.Err()
}
