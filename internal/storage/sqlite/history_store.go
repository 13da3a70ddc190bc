package sqlite

import (
	"context"
	"strings"
	"time"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/willibrandon/sqlbook/internal/db/models"
)

// DefaultMaxEntries is the number of history rows kept when no limit is given.
const DefaultMaxEntries = 1000

// HistoryStore provides access to executed query history.
type HistoryStore struct {
	db         *DB
	maxEntries int
}

// NewHistoryStore creates a new history store that keeps at most maxEntries
// rows across all connections. A non-positive maxEntries disables trimming.
func NewHistoryStore(db *DB, maxEntries int) *HistoryStore {
	return &HistoryStore{db: db, maxEntries: maxEntries}
}

// fingerprint generates a fingerprint hash for a SQL query.
// Queries with the same structure but different literal values get the same fingerprint.
// MySQL-only syntax that does not parse as PostgreSQL is hashed verbatim.
// Returns int64 for SQLite compatibility (signed 64-bit integer).
func fingerprint(sqlText string) int64 {
	normalized, err := pg_query.Normalize(sqlText)
	if err != nil {
		normalized = sqlText
	}
	return int64(pg_query.HashXXH3_64([]byte(normalized), 0))
}

// Add records an executed query with shell-style deduplication per
// connection. If the connection already has an entry with the same
// fingerprint, that entry is refreshed and moves to the top.
func (s *HistoryStore) Add(ctx context.Context, entry models.HistoryEntry) error {
	sqlText := strings.TrimSpace(entry.SQL)
	if sqlText == "" {
		return nil
	}

	executedAt := entry.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}
	fp := fingerprint(sqlText)

	result, err := s.db.conn.ExecContext(ctx, `
		UPDATE query_history
		SET query = ?, executed_query = ?, executed_at = ?, duration_ms = ?, row_count = ?, error = ?
		WHERE connection = ? AND fingerprint = ?
	`, sqlText, entry.ExecutedSQL, executedAt, entry.DurationMs, entry.RowCount, entry.Error, entry.Connection, fp)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		_, err = s.db.conn.ExecContext(ctx, `
			INSERT INTO query_history (connection, fingerprint, query, executed_query, executed_at, duration_ms, row_count, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.Connection, fp, sqlText, entry.ExecutedSQL, executedAt, entry.DurationMs, entry.RowCount, entry.Error)
		if err != nil {
			return err
		}
	}

	if s.maxEntries > 0 {
		_, _ = s.db.conn.ExecContext(ctx, `
			DELETE FROM query_history
			WHERE id NOT IN (
				SELECT id FROM query_history
				ORDER BY executed_at DESC, id DESC
				LIMIT ?
			)
		`, s.maxEntries)
	}

	return nil
}

// GetRecent returns the most recent entries for a connection, newest first.
func (s *HistoryStore) GetRecent(ctx context.Context, connection string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, connection, query, executed_query, executed_at, duration_ms, row_count, error
		FROM query_history
		WHERE connection = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?
	`, connection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var entry models.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.Connection, &entry.SQL, &entry.ExecutedSQL,
			&entry.ExecutedAt, &entry.DurationMs, &entry.RowCount, &entry.Error); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the total number of stored entries.
func (s *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_history`).Scan(&n)
	return n, err
}
