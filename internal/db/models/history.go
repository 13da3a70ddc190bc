package models

import "time"

// HistoryEntry is a query previously executed against a connection.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Connection  string    `json:"connection"`
	SQL         string    `json:"sql"`
	ExecutedSQL string    `json:"executed_sql"`
	ExecutedAt  time.Time `json:"executed_at"`
	DurationMs  int64     `json:"duration_ms"`
	RowCount    int64     `json:"row_count"`
	Error       string    `json:"error,omitempty"`
}

// Succeeded reports whether the query completed without error.
func (e HistoryEntry) Succeeded() bool {
	return e.Error == ""
}
