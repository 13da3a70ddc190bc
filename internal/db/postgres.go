package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/willibrandon/sqlbook/internal/db/models"
)

// PostgresDriver connects to PostgreSQL servers.
type PostgresDriver struct {
	// ConnectTimeout bounds dialing the server. Zero keeps the URI setting.
	ConnectTimeout time.Duration
}

// Kind implements Driver.
func (d *PostgresDriver) Kind() models.DriverKind {
	return models.DriverPostgres
}

// Connect opens a single (non-pooled) connection to the server.
func (d *PostgresDriver) Connect(ctx context.Context, uri string) (Conn, error) {
	cfg, err := pgx.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if d.ConnectTimeout > 0 {
		cfg.ConnectTimeout = d.ConnectTimeout
	}
	if _, ok := cfg.RuntimeParams["application_name"]; !ok {
		cfg.RuntimeParams["application_name"] = "sqlbook"
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &postgresConn{conn: conn}, nil
}

// postgresConn is a single PostgreSQL session.
type postgresConn struct {
	conn *pgx.Conn
}

// Query runs sql with the simple query protocol, which allows several
// statements in one call. Each statement produces one result batch.
func (c *postgresConn) Query(ctx context.Context, query string) (*models.Table, error) {
	results, err := c.conn.PgConn().Exec(ctx, query).ReadAll()
	if err != nil {
		return nil, queryError(err)
	}
	return buildPostgresTable(results), nil
}

// Close implements Conn.
func (c *postgresConn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.conn.Close(ctx)
}

// buildPostgresTable flattens simple-protocol result batches into a Table.
// Columns come from the first batch with a row description; batches without
// one are command acknowledgments and render as a single message row.
func buildPostgresTable(results []*pgconn.Result) *models.Table {
	table := &models.Table{
		Columns: []models.Column{},
		Rows:    []models.Row{},
	}
	haveColumns := false

	for _, res := range results {
		if len(res.FieldDescriptions) == 0 {
			table.Rows = append(table.Rows, models.NewMessageRow(
				fmt.Sprintf("Queried %d rows", res.CommandTag.RowsAffected())))
			continue
		}

		if !haveColumns {
			for _, fd := range res.FieldDescriptions {
				table.Columns = append(table.Columns, models.Column{Name: fd.Name})
			}
			haveColumns = true
		}

		// The simple protocol always returns text; the binary branch only
		// guards against a future switch to the extended protocol.
		textOnly := true
		for _, fd := range res.FieldDescriptions {
			if fd.Format != pgtype.TextFormatCode {
				textOnly = false
				break
			}
		}

		for _, raw := range res.Rows {
			if !textOnly {
				table.Rows = append(table.Rows, models.NewMessageRow(UnsupportedDisplayValue))
				continue
			}
			values := make([]string, len(raw))
			for i, v := range raw {
				if v == nil {
					values[i] = NullDisplayValue
				} else {
					values[i] = string(v)
				}
			}
			table.Rows = append(table.Rows, models.Row{Values: values})
		}
	}

	return table
}
