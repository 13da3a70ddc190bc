package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/willibrandon/sqlbook/internal/db/models"
	"github.com/willibrandon/sqlbook/internal/ipc"
)

func TestFormatConnectionError(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"connection error: dial tcp 127.0.0.1:5432: connect: connection refused", "Connection refused"},
		{"connection error: FATAL: password authentication failed for user \"app\"", "Authentication failed"},
		{"connection error: Error 1045 (28000): Access denied for user 'root'@'172.17.0.1'", "Authentication failed"},
		{"connection error: FATAL: database \"nope\" does not exist", "Database does not exist"},
		{"connection error: Error 1049 (42000): Unknown database 'nope'", "Database does not exist"},
		{"connection error: dial tcp: lookup db.invalid: no such host", "Host not found"},
		{"connection error: dial tcp 10.0.0.1:3306: i/o timeout", "Connection timeout"},
	}

	for _, tt := range tests {
		got := FormatConnectionError(tt.msg)
		assert.True(t, strings.HasPrefix(got, tt.want), "FormatConnectionError(%q) = %q", tt.msg, got)
		assert.Contains(t, got, tt.msg)
	}

	assert.Equal(t, "something else", FormatConnectionError("something else"))
}

func TestFormatError(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, "boom", formatError(plain))

	refused := fmt.Errorf("call: %w", &ipc.Error{Code: ipc.ErrCodeConnectFailed, Message: "connection error: connection refused"})
	assert.True(t, strings.HasPrefix(formatError(refused), "Connection refused"))

	outOfRange := &ipc.Error{Code: ipc.ErrCodeIndexOutOfRange, Message: "connection index out of range: id 4, have 1 connections"}
	assert.Contains(t, formatError(outOfRange), "sqlbook conn list")

	query := &ipc.Error{Code: ipc.ErrCodeQueryFailed, Message: "query error: syntax error"}
	assert.Equal(t, "query error: syntax error", formatError(query))
}

func TestTableData(t *testing.T) {
	table := &models.Table{
		Columns: []models.Column{{Name: "id"}, {Name: "name"}},
		Rows: []models.Row{
			models.NewMessageRow("Queried 0 rows"),
			{Values: []string{"1", "alice"}},
		},
	}

	data := tableData(table)
	assert.Equal(t, []string{"id", "name"}, data[0])
	assert.Equal(t, []string{"Queried 0 rows", ""}, data[1])
	assert.Equal(t, []string{"1", "alice"}, data[2])
}

func TestTableData_MessagesOnly(t *testing.T) {
	table := &models.Table{Rows: []models.Row{models.NewMessageRow("Queried 3 rows")}}

	data := tableData(table)
	assert.Equal(t, []string{"result"}, data[0])
	assert.Equal(t, []string{"Queried 3 rows"}, data[1])

	assert.Empty(t, tableData(&models.Table{}))
}

func TestConnFlags(t *testing.T) {
	cfg, err := (&connFlags{name: "pg", uri: "postgresql://app@h/db"}).config()
	assert.NoError(t, err)
	assert.Equal(t, models.DriverPostgres, cfg.Driver)

	cfg, err = (&connFlags{name: "my", uri: "app:pw@tcp(h:3306)/db", driver: "mysql"}).config()
	assert.NoError(t, err)
	assert.Equal(t, models.DriverMySQL, cfg.Driver)

	_, err = (&connFlags{name: "x", uri: "app:pw@tcp(h:3306)/db"}).config()
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("3")
	assert.NoError(t, err)
	assert.Equal(t, 3, id)

	for _, bad := range []string{"-1", "x", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSummarizeSQL(t *testing.T) {
	assert.Equal(t, "SELECT * FROM t", summarizeSQL("SELECT *\n  FROM t", 60))
	assert.Equal(t, "SELECT…", summarizeSQL("SELECT 1234", 7))
}
