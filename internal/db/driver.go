// Package db adapts the supported database backends to the uniform
// tabular result model used by the connection manager.
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/willibrandon/sqlbook/internal/db/models"
	"github.com/willibrandon/sqlbook/internal/logger"
)

// Error kinds returned by drivers. Backend errors are wrapped so that both
// the kind and the underlying error can be matched with errors.Is/As.
var (
	ErrUnknownDriver = errors.New("unknown driver type")
	ErrConnectFailed = errors.New("connection error")
	ErrQueryFailed   = errors.New("query error")
)

// Conn is a single live connection to a database backend.
// A Conn is not safe for concurrent use.
type Conn interface {
	// Query executes sql and renders the whole result as a Table.
	Query(ctx context.Context, sql string) (*models.Table, error)
	// Close releases the underlying network connection.
	Close() error
}

// Driver opens connections for one backend kind.
type Driver interface {
	Kind() models.DriverKind
	Connect(ctx context.Context, uri string) (Conn, error)
}

// Registry dispatches connection requests to drivers by kind.
type Registry struct {
	drivers map[models.DriverKind]Driver
}

// NewRegistry creates a registry from the given drivers. A later driver
// replaces an earlier one of the same kind.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[models.DriverKind]Driver, len(drivers))}
	for _, d := range drivers {
		r.drivers[d.Kind()] = d
	}
	return r
}

// DefaultRegistry returns a registry with the MySQL and PostgreSQL drivers.
func DefaultRegistry(connectTimeout time.Duration) *Registry {
	return NewRegistry(
		&MySQLDriver{ConnectTimeout: connectTimeout},
		&PostgresDriver{ConnectTimeout: connectTimeout},
	)
}

// Lookup returns the driver for kind.
func (r *Registry) Lookup(kind models.DriverKind) (Driver, error) {
	d, ok := r.drivers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, string(kind))
	}
	return d, nil
}

// Kinds returns the registered driver kinds in sorted order.
func (r *Registry) Kinds() []models.DriverKind {
	out := make([]models.DriverKind, 0, len(r.drivers))
	for k := range r.drivers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Connect opens a connection for cfg. Unknown driver kinds fail before any
// network activity.
func (r *Registry) Connect(ctx context.Context, cfg models.ConnectionConfig) (Conn, error) {
	d, err := r.Lookup(cfg.Driver)
	if err != nil {
		return nil, err
	}

	logger.Debug("Opening database connection",
		"name", cfg.Name,
		"driver", cfg.Driver,
		"host", cfg.Host(),
	)

	conn, err := d.Connect(ctx, cfg.URI)
	if err != nil {
		logger.Warn("Database connection failed",
			"name", cfg.Name,
			"driver", cfg.Driver,
			"host", cfg.Host(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	logger.Info("Database connection established",
		"name", cfg.Name,
		"driver", cfg.Driver,
		"host", cfg.Host(),
	)
	return conn, nil
}

// queryError wraps a backend query error.
func queryError(err error) error {
	return fmt.Errorf("%w: %w", ErrQueryFailed, err)
}
