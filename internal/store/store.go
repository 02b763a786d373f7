// Package store keeps a history of board snapshots in SQLite so a board
// hosted by this process survives restarts.
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

	"github.com/kingrea/todoboard/internal/todo"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Store is a snapshot history backed by a single SQLite file.
type Store struct {
	db    *sql.DB
	path  string
	clock func() time.Time
}

// Entry is one saved snapshot.
type Entry struct {
	Revision int64
	SavedAt  time.Time
	Count    int
	State    todo.State
}

// Option customizes Open.
type Option func(*Store)

// WithClock controls SavedAt timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure dir: %w", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single connection keeps PRAGMAs in effect for every statement.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	s := &Store{db: db, path: path, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			revision INTEGER PRIMARY KEY AUTOINCREMENT,
			saved_at_unixms INTEGER NOT NULL,
			todo_count INTEGER NOT NULL,
			state_json TEXT NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(k, v) VALUES ('schema_version', '` + schemaVersion + `');`,
	}
	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save appends a snapshot and returns its revision.
func (s *Store) Save(ctx context.Context, state todo.State) (int64, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("store: encode snapshot: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(saved_at_unixms, todo_count, state_json) VALUES (?, ?, ?)`,
		s.clock().UnixMilli(), state.Len(), string(data))
	if err != nil {
		return 0, fmt.Errorf("store: save snapshot: %w", err)
	}
	rev, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: snapshot revision: %w", err)
	}
	return rev, nil
}

// Latest returns the newest snapshot. found is false on an empty history.
func (s *Store) Latest(ctx context.Context) (todo.State, int64, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT revision, saved_at_unixms, todo_count, state_json FROM snapshots ORDER BY revision DESC LIMIT 1`)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return todo.State{}, 0, false, nil
	}
	if err != nil {
		return todo.State{}, 0, false, err
	}
	return entry.State, entry.Revision, true, nil
}

// History returns up to limit snapshots, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT revision, saved_at_unixms, todo_count, state_json FROM snapshots ORDER BY revision DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: history: %w", err)
	}
	return out, nil
}

// Prune keeps the newest keep snapshots and returns how many were removed.
// keep <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE revision NOT IN (SELECT revision FROM snapshots ORDER BY revision DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry   Entry
		savedAt int64
		raw     string
	)
	if err := row.Scan(&entry.Revision, &savedAt, &entry.Count, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("store: scan snapshot: %w", err)
	}
	state, err := todo.Decode([]byte(raw))
	if err != nil {
		return Entry{}, fmt.Errorf("store: snapshot %d: %w", entry.Revision, err)
	}
	entry.SavedAt = time.UnixMilli(savedAt)
	entry.State = state
	return entry, nil
}
