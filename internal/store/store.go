// Package store persists events, tasks and campaign posts in SQLite. It is
// the load/save boundary around the scheduling engine: it hands out plain
// model records and stores what the engine produced.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 2

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownEvent is returned when a post links to an event that does
	// not exist.
	ErrUnknownEvent = errors.New("linked event does not exist")
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS events (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		performer     TEXT NOT NULL DEFAULT '',
		summary       TEXT NOT NULL DEFAULT '',
		image_formats TEXT NOT NULL DEFAULT '{}',
		created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS event_dates (
		event_id    TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		date        TEXT NOT NULL,
		start_time  TEXT NOT NULL DEFAULT '',
		end_time    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (event_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_event_dates_date ON event_dates(date);

	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		event_id    TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL DEFAULT 0,
		title       TEXT NOT NULL,
		channel     TEXT NOT NULL DEFAULT '',
		due_date    TEXT NOT NULL,
		due_time    TEXT NOT NULL DEFAULT '',
		completed   INTEGER NOT NULL DEFAULT 0,
		content     TEXT NOT NULL DEFAULT '',
		assignee    TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_event ON tasks(event_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_due   ON tasks(due_date);

	CREATE TABLE IF NOT EXISTS posts (
		id                  TEXT PRIMARY KEY,
		title               TEXT NOT NULL,
		date                TEXT NOT NULL,
		year                INTEGER NOT NULL,
		time                TEXT NOT NULL DEFAULT '',
		type                TEXT NOT NULL DEFAULT '',
		channels            TEXT NOT NULL DEFAULT '[]',
		assignee            TEXT NOT NULL DEFAULT '',
		event_id            TEXT REFERENCES events(id) ON DELETE SET NULL,
		status              TEXT NOT NULL DEFAULT 'planned',
		caption             TEXT NOT NULL DEFAULT '',
		notes               TEXT NOT NULL DEFAULT '',
		media_links         TEXT NOT NULL DEFAULT '[]',
		recurrence          TEXT NOT NULL DEFAULT 'none',
		recurrence_end_date TEXT NOT NULL DEFAULT '',
		parent_post_id      TEXT,
		created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_posts_date   ON posts(date);
	CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(parent_post_id);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// migrateV2 records the calendar UID of imported events so that a feed
// can be imported again without duplicating them.
func (s *Store) migrateV2() error {
	const ddl = `
	ALTER TABLE events ADD COLUMN source_uid TEXT NOT NULL DEFAULT '';

	CREATE UNIQUE INDEX IF NOT EXISTS idx_events_source_uid ON events(source_uid) WHERE source_uid != '';
	`
	_, err := s.db.Exec(ddl)
	return err
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// checkAffected maps a zero-row update or delete onto ErrNotFound.
func checkAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
