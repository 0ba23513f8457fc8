package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB manages the SQLite database holding one row per completed deletion run.
type DB struct {
	db *sql.DB
}

// Run represents a single completed deletion run.
type Run struct {
	ID                int64     `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	Target            string    `json:"target"`
	FilesDeleted      int64     `json:"files_deleted"`
	DirsDeleted       int64     `json:"dirs_deleted"`
	ErrorsEncountered int64     `json:"errors_encountered"`
	BytesFreed        int64     `json:"bytes_freed"`
	ElapsedMS         int64     `json:"elapsed_ms"`
}

// Open creates the database connection and initializes the schema.
func Open(dbPath string) (*DB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// file: prefix with _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Exercise the connection so the file is created and permission errors
	// surface here rather than on first insert
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// WAL mode: the query CLI may read while a run is writing
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	d := &DB{db: db}
	if err = d.createSchema(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DB) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		target TEXT NOT NULL,
		files_deleted INTEGER NOT NULL,
		dirs_deleted INTEGER NOT NULL,
		errors_encountered INTEGER NOT NULL,
		bytes_freed INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_bytes_freed ON runs(bytes_freed);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordRun inserts one completed run.
func (d *DB) RecordRun(r Run) error {
	query := `
	INSERT INTO runs (started_at, target, files_deleted, dirs_deleted,
	                  errors_encountered, bytes_freed, elapsed_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query,
		r.StartedAt, r.Target,
		r.FilesDeleted, r.DirsDeleted, r.ErrorsEncountered,
		r.BytesFreed, r.ElapsedMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
