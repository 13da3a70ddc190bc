// Package manager owns every live database connection. A single goroutine
// processes commands in arrival order, so each connection runs at most one
// operation at a time and the connection list is never shared.
package manager

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/willibrandon/sqlbook/internal/db"
	"github.com/willibrandon/sqlbook/internal/db/models"
	"github.com/willibrandon/sqlbook/internal/logger"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultQueueSize = 8
	DefaultRowLimit  = 10
)

// Connector opens live connections. *db.Registry implements it.
type Connector interface {
	Connect(ctx context.Context, cfg models.ConnectionConfig) (db.Conn, error)
}

// Persister loads and saves the connection list.
type Persister interface {
	Load() []models.ConnectionConfig
	Save(configs []models.ConnectionConfig) error
}

// HistoryRecorder stores executed queries.
type HistoryRecorder interface {
	Add(ctx context.Context, entry models.HistoryEntry) error
	GetRecent(ctx context.Context, connection string, limit int) ([]models.HistoryEntry, error)
}

// QueryObserver is told about every executed query.
type QueryObserver interface {
	ObserveQuery(connection string, d time.Duration, failed bool)
}

// Options configures a Manager.
type Options struct {
	// Connector is required.
	Connector Connector
	// Persister restores connections at startup and saves them after every
	// add, edit and remove. Nil disables persistence.
	Persister Persister
	// History records every query. Nil disables history.
	History HistoryRecorder
	// Observer receives query latencies. Optional.
	Observer QueryObserver
	// QueueSize is the number of commands that may wait for the run loop.
	QueueSize int
	// RowLimit is the LIMIT added to unbounded SELECT statements.
	RowLimit int
}

// Manager serializes all access to the configured connections.
type Manager struct {
	connector Connector
	persister Persister
	history   HistoryRecorder
	observer  QueryObserver
	rowLimit  int

	// store is owned by the run goroutine.
	store *Store

	requests chan request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// ctx bounds driver calls made by the run loop. Cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

type request struct {
	name    string
	attrs   []any
	mutates bool
	exec    func() (any, error)
	reply   chan response
	// caller is the context of the goroutine waiting for the reply.
	caller context.Context
}

type response struct {
	value any
	err   error
}

// New restores persisted connections and starts the run loop. Restored
// connections are not dialed until first use.
func New(opts Options) (*Manager, error) {
	if opts.Connector == nil {
		return nil, errors.New("manager: connector is required")
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.RowLimit <= 0 {
		opts.RowLimit = DefaultRowLimit
	}

	var configs []models.ConnectionConfig
	if opts.Persister != nil {
		configs = opts.Persister.Load()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		connector: opts.Connector,
		persister: opts.Persister,
		history:   opts.History,
		observer:  opts.Observer,
		rowLimit:  opts.RowLimit,
		store:     NewStore(configs),
		requests:  make(chan request, opts.QueueSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	logger.Info("Connection manager started",
		"connections", len(configs),
		"queue_size", opts.QueueSize,
		"row_limit", opts.RowLimit,
	)

	go m.run()
	return m, nil
}

// Close stops the run loop and closes every live connection. Commands
// issued afterwards fail with ErrChannelFailure. Close is idempotent.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() {
		close(m.quit)
		m.cancel()
	})
	<-m.done
	return nil
}

// AddConnection connects to cfg and appends it on success, returning the
// new connection id. The store is unchanged when connecting fails.
func (m *Manager) AddConnection(ctx context.Context, cfg models.ConnectionConfig) (int, error) {
	return call(ctx, m, request{
		name:    "add",
		attrs:   []any{"name", cfg.Name, "driver", cfg.Driver},
		mutates: true,
	}, func() (int, error) {
		conn, err := m.connector.Connect(m.ctx, cfg)
		if err != nil {
			return 0, err
		}
		return m.store.Append(cfg, conn), nil
	})
}

// ListConnections returns the display view of every connection.
func (m *Manager) ListConnections(ctx context.Context) ([]models.ConnectionInfo, error) {
	return call(ctx, m, request{name: "list"}, func() ([]models.ConnectionInfo, error) {
		return m.store.Infos(), nil
	})
}

// EditConnection replaces the connection at id with cfg. The new
// configuration is connected first; only on success is the old handle
// closed and the entry replaced.
func (m *Manager) EditConnection(ctx context.Context, id int, cfg models.ConnectionConfig) (models.ConnectionInfo, error) {
	return call(ctx, m, request{
		name:    "edit",
		attrs:   []any{"id", id, "name", cfg.Name, "driver", cfg.Driver},
		mutates: true,
	}, func() (models.ConnectionInfo, error) {
		if _, err := m.store.Get(id); err != nil {
			return models.ConnectionInfo{}, err
		}

		conn, err := m.connector.Connect(m.ctx, cfg)
		if err != nil {
			return models.ConnectionInfo{}, err
		}

		old, err := m.store.Replace(id, cfg, conn)
		if err != nil {
			closeConn(conn, cfg.Name)
			return models.ConnectionInfo{}, err
		}
		if old != nil {
			closeConn(old, cfg.Name)
		}
		return cfg.Info(id), nil
	})
}

// RemoveConnection deletes the connection at id, closing its handle, and
// returns the refreshed list. Later connections move down by one id.
func (m *Manager) RemoveConnection(ctx context.Context, id int) ([]models.ConnectionInfo, error) {
	return call(ctx, m, request{
		name:    "remove",
		attrs:   []any{"id", id},
		mutates: true,
	}, func() ([]models.ConnectionInfo, error) {
		removed, err := m.store.Remove(id)
		if err != nil {
			return nil, err
		}
		if removed.Conn != nil {
			closeConn(removed.Conn, removed.Config.Name)
		}
		return m.store.Infos(), nil
	})
}

// Query runs sql on the connection at id, connecting first if needed.
// Unbounded SELECT statements are limited with ApplyRowLimit. A failed
// query leaves the connection open. A failed connect is recorded in history
// and reported to the observer like a failed query.
func (m *Manager) Query(ctx context.Context, id int, sql string) (*models.Table, error) {
	return call(ctx, m, request{
		name:  "query",
		attrs: []any{"id", id},
	}, func() (*models.Table, error) {
		return m.query(id, sql)
	})
}

// History returns up to limit recently executed queries for the connection
// at id, newest first.
func (m *Manager) History(ctx context.Context, id int, limit int) ([]models.HistoryEntry, error) {
	return call(ctx, m, request{
		name:  "history",
		attrs: []any{"id", id, "limit", limit},
	}, func() ([]models.HistoryEntry, error) {
		entry, err := m.store.Get(id)
		if err != nil {
			return nil, err
		}
		if m.history == nil {
			return []models.HistoryEntry{}, nil
		}
		return m.history.GetRecent(m.ctx, entry.Config.Name, limit)
	})
}

func (m *Manager) query(id int, sql string) (*models.Table, error) {
	entry, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}

	executed := ApplyRowLimit(sql, m.rowLimit)

	if entry.Conn == nil {
		start := time.Now()
		conn, err := m.connector.Connect(m.ctx, entry.Config)
		if err != nil {
			m.record(entry.Config.Name, sql, executed, start, 0, nil, err)
			if m.observer != nil {
				m.observer.ObserveQuery(entry.Config.Name, 0, true)
			}
			logger.Warn("Query failed", "connection", entry.Config.Name, "error", err)
			return nil, err
		}
		entry.Conn = conn
	}

	logger.Debug("Executing query", "connection", entry.Config.Name, "sql", executed)

	start := time.Now()
	table, err := entry.Conn.Query(m.ctx, executed)
	duration := time.Since(start)

	if err != nil && !errors.Is(err, db.ErrQueryFailed) {
		err = fmt.Errorf("%w: %w", db.ErrQueryFailed, err)
	}
	m.record(entry.Config.Name, sql, executed, start, duration, table, err)
	if m.observer != nil {
		m.observer.ObserveQuery(entry.Config.Name, duration, err != nil)
	}

	if err != nil {
		logger.Warn("Query failed",
			"connection", entry.Config.Name,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}
	return table, nil
}

// record adds a query to history. Failures are logged only.
func (m *Manager) record(conn, sql, executed string, at time.Time, d time.Duration, table *models.Table, queryErr error) {
	if m.history == nil {
		return
	}
	entry := models.HistoryEntry{
		Connection:  conn,
		SQL:         sql,
		ExecutedSQL: executed,
		ExecutedAt:  at,
		DurationMs:  d.Milliseconds(),
		RowCount:    int64(table.RowCount()),
	}
	if queryErr != nil {
		entry.Error = queryErr.Error()
	}
	if err := m.history.Add(m.ctx, entry); err != nil {
		logger.Error("Failed to record query history", "connection", conn, "error", err)
	}
}

func (m *Manager) run() {
	defer close(m.done)
	for {
		select {
		case req := <-m.requests:
			m.handle(req)
		case <-m.quit:
			m.shutdown()
			return
		}
	}
}

func (m *Manager) handle(req request) {
	start := time.Now()
	logger.Debug("Handling command", append([]any{"command", req.name}, req.attrs...)...)

	resp := m.execute(req)

	// Failed commands leave the store untouched and must not rewrite the
	// file. A successful one is on disk before the caller hears back.
	if req.mutates && resp.err == nil {
		m.persist()
	}

	// reply has capacity 1 and this is its only send.
	req.reply <- resp
	if req.caller.Err() != nil {
		logger.Error("Caller gone, reply discarded",
			"command", req.name,
			"error", req.caller.Err(),
		)
	}

	logger.Debug("Command finished",
		"command", req.name,
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", resp.err == nil,
	)
}

func (m *Manager) execute(req request) (resp response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Command panicked",
				"command", req.name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			resp = response{err: fmt.Errorf("%w: %s: %v", ErrCommandPanicked, req.name, r)}
		}
	}()

	v, err := req.exec()
	return response{value: v, err: err}
}

// persist saves the connection list. Failures are logged and do not affect
// the command result.
func (m *Manager) persist() {
	if m.persister == nil {
		return
	}
	if err := m.persister.Save(m.store.Configs()); err != nil {
		logger.Error("Failed to save connections", "error", err)
	}
}

func (m *Manager) shutdown() {
	for i := 0; i < m.store.Len(); i++ {
		entry, _ := m.store.Get(i)
		if entry.Conn != nil {
			closeConn(entry.Conn, entry.Config.Name)
			entry.Conn = nil
		}
	}
	logger.Info("Connection manager stopped")
}

func closeConn(conn db.Conn, name string) {
	if err := conn.Close(); err != nil {
		logger.Warn("Failed to close connection", "name", name, "error", err)
	}
}

// call sends a command to the run loop and waits for its reply. ctx bounds
// only the wait; a command that has been accepted runs to completion.
func call[T any](ctx context.Context, m *Manager, req request, fn func() (T, error)) (T, error) {
	var zero T

	req.exec = func() (any, error) { return fn() }
	req.reply = make(chan response, 1)
	req.caller = ctx

	select {
	case <-m.quit:
		return zero, fmt.Errorf("%w: manager is closed", ErrChannelFailure)
	default:
	}

	select {
	case m.requests <- req:
	case <-m.quit:
		return zero, fmt.Errorf("%w: manager is closed", ErrChannelFailure)
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return unwrap[T](resp)
	case <-m.done:
		select {
		case resp := <-req.reply:
			return unwrap[T](resp)
		default:
		}
		return zero, fmt.Errorf("%w: manager stopped before replying", ErrChannelFailure)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func unwrap[T any](resp response) (T, error) {
	var zero T
	if resp.err != nil {
		return zero, resp.err
	}
	v, ok := resp.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected reply type %T", ErrChannelFailure, resp.value)
	}
	return v, nil
}
