// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for the catalog, practice history, and settings.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies pending migrations.
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

type migration struct {
	version     int
	description string
	stmts       []string
}

var migrations = []migration{
	{
		version:     1,
		description: "initial schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS scales (
				id INTEGER PRIMARY KEY,
				note TEXT NOT NULL,
				accidental TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL,
				octaves INTEGER NOT NULL,
				enabled INTEGER NOT NULL DEFAULT 0,
				weight REAL NOT NULL DEFAULT 1.0,
				target_bpm INTEGER,
				articulation_mode TEXT NOT NULL DEFAULT 'both',
				created_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS arpeggios (
				id INTEGER PRIMARY KEY,
				note TEXT NOT NULL,
				accidental TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL,
				octaves INTEGER NOT NULL,
				enabled INTEGER NOT NULL DEFAULT 0,
				weight REAL NOT NULL DEFAULT 1.0,
				target_bpm INTEGER,
				articulation_mode TEXT NOT NULL DEFAULT 'both',
				created_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS practice_sessions (
				id INTEGER PRIMARY KEY,
				created_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS practice_entries (
				id INTEGER PRIMARY KEY,
				session_id INTEGER NOT NULL REFERENCES practice_sessions(id),
				item_type TEXT NOT NULL,
				item_id INTEGER NOT NULL,
				articulation TEXT,
				was_practiced INTEGER NOT NULL DEFAULT 0,
				practiced_slurred INTEGER NOT NULL DEFAULT 0,
				practiced_separate INTEGER NOT NULL DEFAULT 0,
				practiced_bpm INTEGER,
				target_bpm INTEGER,
				matched_target_bpm INTEGER,
				created_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS settings (
				id INTEGER PRIMARY KEY,
				key TEXT NOT NULL UNIQUE,
				value TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_practice_entries_item ON practice_entries(item_type, item_id);`,
			`CREATE INDEX IF NOT EXISTS idx_practice_entries_session ON practice_entries(session_id);`,
		},
	},
	{
		version:     2,
		description: "selection sets",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS selection_sets (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				is_active INTEGER NOT NULL DEFAULT 0,
				scale_ids TEXT NOT NULL DEFAULT '[]',
				arpeggio_ids TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);`,
		},
	},
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL,
		description TEXT NOT NULL
	);`); err != nil {
		return err
	}

	var current sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_versions`).Scan(&current); err != nil {
		return err
	}

	for _, m := range migrations {
		if current.Valid && m.version <= int(current.Int64) {
			continue
		}
		if err := s.applyMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
		}
	}
	return nil
}

func (s *Store) applyMigration(m migration) error {
	tx, err := s.db.Begin()
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

	for _, stmt := range m.stmts {
		if _, err = tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err = tx.Exec(`INSERT INTO schema_versions (version, applied_at, description) VALUES (?, ?, ?)`,
		m.version, time.Now().UTC().Format(time.RFC3339Nano), m.description); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var current sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_versions`).Scan(&current); err != nil {
		return 0, err
	}
	return int(current.Int64), nil
}
