package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/willibrandon/sqlbook/internal/db/models"
)

const defaultMySQLPort = "3306"

// MySQLDriver connects to MySQL and MariaDB servers.
type MySQLDriver struct {
	// ConnectTimeout bounds dialing the server. Zero uses the driver default.
	ConnectTimeout time.Duration
}

// Kind implements Driver.
func (d *MySQLDriver) Kind() models.DriverKind {
	return models.DriverMySQL
}

// Connect opens exactly one connection to the server described by uri.
// Both mysql:// URLs and native DSNs (user:pass@tcp(host:port)/db) are accepted.
func (d *MySQLDriver) Connect(ctx context.Context, uri string) (Conn, error) {
	cfg, err := ParseMySQLURI(uri)
	if err != nil {
		return nil, err
	}
	if d.ConnectTimeout > 0 {
		cfg.Timeout = d.ConnectTimeout
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql configuration: %w", err)
	}

	pool := sql.OpenDB(connector)
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)

	conn, err := pool.Conn(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		pool.Close()
		return nil, err
	}

	return &mysqlConn{pool: pool, conn: conn}, nil
}

// ParseMySQLURI converts a mysql:// URL or a native DSN to a driver config.
// Temporal columns are always parsed so they can be rendered uniformly.
func ParseMySQLURI(uri string) (*mysql.Config, error) {
	if !strings.HasPrefix(uri, "mysql://") && !strings.HasPrefix(uri, "mariadb://") {
		cfg, err := mysql.ParseDSN(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		return cfg, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql URI: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = defaultMySQLPort
	}
	cfg.Addr = net.JoinHostPort(host, port)
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true

	if len(u.RawQuery) == 0 {
		return cfg, nil
	}

	// Let the driver interpret query parameters (tls, charset, ...) the same
	// way it would for a DSN.
	dsn := cfg.FormatDSN()
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	parsed, err := mysql.ParseDSN(dsn + sep + u.Query().Encode())
	if err != nil {
		return nil, fmt.Errorf("invalid mysql URI parameters: %w", err)
	}
	parsed.ParseTime = true
	return parsed, nil
}

// mysqlConn is a single MySQL session.
type mysqlConn struct {
	pool *sql.DB
	conn *sql.Conn
}

// Query executes the statement over the text protocol and renders every row.
func (c *mysqlConn) Query(ctx context.Context, query string) (*models.Table, error) {
	rows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, queryError(err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, queryError(err)
	}

	table := &models.Table{
		Columns: make([]models.Column, len(colTypes)),
		Rows:    []models.Row{},
	}
	typeNames := make([]string, len(colTypes))
	for i, ct := range colTypes {
		table.Columns[i] = models.Column{Name: ct.Name()}
		typeNames[i] = ct.DatabaseTypeName()
	}

	values := make([]any, len(colTypes))
	dest := make([]any, len(colTypes))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, queryError(err)
		}
		rendered := make([]string, len(values))
		for i, v := range values {
			rendered[i] = FormatMySQLValue(v, typeNames[i])
		}
		table.Rows = append(table.Rows, models.Row{Values: rendered})
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err)
	}

	return table, nil
}

// Close implements Conn.
func (c *mysqlConn) Close() error {
	connErr := c.conn.Close()
	poolErr := c.pool.Close()
	if connErr != nil {
		return connErr
	}
	return poolErr
}

// FormatMySQLValue renders a value scanned from a MySQL result.
// typeName is the column's database type name (e.g. "TIME", "BLOB").
func FormatMySQLValue(val any, typeName string) string {
	switch v := val.(type) {
	case nil:
		return NullDisplayValue
	case []byte:
		if typeName == "TIME" {
			if s, ok := FormatTimeInterval(string(v)); ok {
				return s
			}
		}
		return FormatBytes(v)
	case string:
		if typeName == "TIME" {
			if s, ok := FormatTimeInterval(v); ok {
				return s
			}
		}
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return FormatDateTime(v)
	default:
		return fmt.Sprint(v)
	}
}
