// Package index persists scanned labels in SQLite, keyed by file path
// and modification time, so batch listings skip unchanged files.
package index

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a file has no cache entry.
var ErrNotFound = errors.New("file not in index")

const schemaVersion = 1

// Label is one cached label occurrence.
type Label struct {
	Identifier string
	Line       uint32 // 1-based
	Column     uint32 // 1-based
}

// Store is a label index backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}

	if _, err := db.Exec(`
        PRAGMA foreign_keys = ON;
        PRAGMA journal_mode = WAL;
    `); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS files (
            path TEXT PRIMARY KEY,
            last_modified INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS labels (
            path TEXT NOT NULL,
            identifier TEXT NOT NULL,
            line INTEGER NOT NULL,
            col INTEGER NOT NULL,
            FOREIGN KEY (path) REFERENCES files(path) ON DELETE CASCADE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_labels_path ON labels(path)`,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}
	for _, q := range queries {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("execute %q: %w", q, err)
		}
	}
	return tx.Commit()
}

// Lookup returns the cached labels for a file if the entry matches the
// given modification time. A missing or stale entry returns ErrNotFound.
func (s *Store) Lookup(path string, lastModified int64) ([]Label, error) {
	var cached int64
	err := s.db.QueryRow(
		"SELECT last_modified FROM files WHERE path = ?", path,
	).Scan(&cached)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query file: %w", err)
	}
	if cached != lastModified {
		return nil, ErrNotFound
	}

	rows, err := s.db.Query(
		"SELECT identifier, line, col FROM labels WHERE path = ? ORDER BY line, col", path,
	)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.Identifier, &l.Line, &l.Column); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return labels, nil
}

// Put replaces the cache entry for a file.
func (s *Store) Put(path string, lastModified int64, labels []Label) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO files (path, last_modified) VALUES (?, ?)
         ON CONFLICT(path) DO UPDATE SET last_modified = excluded.last_modified`,
		path, lastModified,
	); err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM labels WHERE path = ?", path); err != nil {
		return fmt.Errorf("clear labels: %w", err)
	}

	for _, l := range labels {
		if _, err := tx.Exec(
			"INSERT INTO labels (path, identifier, line, col) VALUES (?, ?, ?, ?)",
			path, l.Identifier, l.Line, l.Column,
		); err != nil {
			return fmt.Errorf("insert label %q: %w", l.Identifier, err)
		}
	}
	return tx.Commit()
}

// Forget removes a file's cache entry. Unknown paths are a no-op.
func (s *Store) Forget(path string) error {
	_, err := s.db.Exec("DELETE FROM files WHERE path = ?", path)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
