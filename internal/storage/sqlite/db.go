// Package sqlite keeps executed query history in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB is an open history database.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the history database at path, creating it and its directory
// when missing, and brings the schema up to date.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// Only the manager goroutine writes; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return db, nil
}

// dataSourceName enables WAL and lets go-sqlite3 parse DATETIME columns
// back into time.Time.
func dataSourceName(path string) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_loc", "auto")
	return path + "?" + params.Encode()
}

// Close closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }
