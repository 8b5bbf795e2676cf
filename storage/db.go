package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

type DB struct {
	conn *sql.DB
}

// Open opens the history database in dir and initializes the schema
func Open(dir string) (*DB, error) {
	return OpenFile(filepath.Join(dir, "textrewriter.db"))
}

// OpenFile opens the database at path and initializes the schema
func OpenFile(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rewrites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invocation_id TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,

		-- Trigger
		select_all BOOLEAN NOT NULL,
		model TEXT NOT NULL,

		-- Timing metrics
		capture_latency_ms INTEGER NOT NULL,
		completion_latency_ms INTEGER NOT NULL,
		total_latency_ms INTEGER NOT NULL,

		-- Text
		original_text TEXT NOT NULL,
		result_text TEXT NOT NULL,
		original_chars INTEGER NOT NULL,
		result_chars INTEGER NOT NULL,

		-- Status
		success BOOLEAN NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rewrites_timestamp ON rewrites(timestamp);
	CREATE INDEX IF NOT EXISTS idx_rewrites_success ON rewrites(success);
	`

	_, err := db.conn.Exec(schema)
	return err
}
