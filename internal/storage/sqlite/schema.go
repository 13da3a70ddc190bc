package sqlite

import (
	"context"
	"fmt"
)

// schemaVersion is recorded in PRAGMA user_version.
const schemaVersion = 1

// migrations[i] upgrades a database from user_version i to i+1.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		connection TEXT NOT NULL,
		fingerprint INTEGER NOT NULL,
		query TEXT NOT NULL,
		executed_query TEXT NOT NULL,
		executed_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		UNIQUE (connection, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_query_history_connection ON query_history(connection, executed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_query_history_executed_at ON query_history(executed_at DESC);
	`,
}

func (db *DB) migrate(ctx context.Context) error {
	var version int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, schemaVersion)
	}

	for v := version; v < schemaVersion; v++ {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA does not accept bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
	}
	return nil
}
