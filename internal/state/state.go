// Package state records which files have been extracted, and what they
// yielded, in a local SQLite database so batch runs can resume.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	size         INTEGER NOT NULL,
	policy       TEXT NOT NULL,
	run_id       TEXT NOT NULL,
	extracted_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS attributes (
	path  TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	tag   TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (path, tag)
);
`

type ProcessedFile struct {
	Path        string
	Size        int64
	Policy      string
	RunID       string
	ExtractedAt time.Time
}

type State struct {
	db *sql.DB
}

// Open opens or creates the state database at filePath.
func Open(filePath string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// SQLite single-writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state schema: %w", err)
	}

	return &State{db: db}, nil
}

func (s *State) Close() error {
	return s.db.Close()
}

// IsProcessed reports whether path was recorded with the same size under
// the same filter policy.
func (s *State) IsProcessed(path string, size int64, policy string) bool {
	var (
		recordedSize   int64
		recordedPolicy string
	)
	err := s.db.QueryRow(`SELECT size, policy FROM files WHERE path = ?`, path).
		Scan(&recordedSize, &recordedPolicy)
	if err != nil {
		return false
	}
	return recordedSize == size && recordedPolicy == policy
}

// Record replaces whatever was stored for entry with attrs, extracted
// under policy.
func (s *State) Record(runID, policy string, entry types.FileEntry, attrs types.Attributes) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM attributes WHERE path = ?`, entry.Path); err != nil {
		return fmt.Errorf("clear attributes: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO files (path, size, policy, run_id, extracted_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			policy = excluded.policy,
			run_id = excluded.run_id,
			extracted_at = excluded.extracted_at`,
		entry.Path, entry.Size, policy, runID, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO attributes (path, tag, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for tag, value := range attrs {
		if _, err := stmt.Exec(entry.Path, tag, value); err != nil {
			return fmt.Errorf("insert attribute %s: %w", tag, err)
		}
	}

	return tx.Commit()
}

// Attributes returns the stored attributes for path, or nil if the file
// was never recorded.
func (s *State) Attributes(path string) (types.Attributes, error) {
	if _, err := s.File(path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.Query(`SELECT tag, value FROM attributes WHERE path = ?`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attrs := make(types.Attributes)
	for rows.Next() {
		var tag, value string
		if err := rows.Scan(&tag, &value); err != nil {
			return nil, err
		}
		attrs[tag] = value
	}
	return attrs, rows.Err()
}

// File returns the recorded file row; sql.ErrNoRows if absent.
func (s *State) File(path string) (*ProcessedFile, error) {
	var (
		p  ProcessedFile
		at string
	)
	err := s.db.QueryRow(`SELECT path, size, policy, run_id, extracted_at FROM files WHERE path = ?`, path).
		Scan(&p.Path, &p.Size, &p.Policy, &p.RunID, &at)
	if err != nil {
		return nil, err
	}
	p.ExtractedAt, _ = time.Parse(time.RFC3339Nano, at)
	return &p, nil
}
