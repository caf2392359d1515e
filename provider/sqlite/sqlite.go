// Package sqlite stores the slot in a one-row SQLite table (modernc.org/sqlite,
// no cgo). A single UPSERT replaces the row, which SQLite applies atomically.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	pr "github.com/unkn0wn-root/feedcache/provider"
)

const timeFormat = time.RFC3339Nano

const schema = `CREATE TABLE IF NOT EXISTS feed_cache (
	slot       INTEGER PRIMARY KEY CHECK (slot = 1),
	payload    BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

type SQLite struct {
	db      *sql.DB
	ownsDB  bool
	nowFunc func() time.Time
}

var _ pr.Provider = (*SQLite)(nil)

// Open opens (creating if needed) a SQLite database at path and prepares the
// slot table.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite provider: path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s, err := NewWithDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewWithDB uses an existing handle. The caller keeps ownership of db.
func NewWithDB(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if db == nil {
		return nil, errors.New("sqlite provider: nil db")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create feed_cache table: %w", err)
	}
	return &SQLite{db: db, nowFunc: time.Now}, nil
}

func (s *SQLite) Get(ctx context.Context) ([]byte, bool, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM feed_cache WHERE slot = 1`).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *SQLite) Set(ctx context.Context, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feed_cache (slot, payload, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		value, s.nowFunc().UTC().Format(timeFormat))
	return err
}

func (s *SQLite) Del(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM feed_cache WHERE slot = 1`)
	return err
}

// Close closes the database only when Open created it.
func (s *SQLite) Close(context.Context) error {
	if s == nil || s.db == nil || !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
