package ipc

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/willibrandon/sqlbook/internal/db"
	"github.com/willibrandon/sqlbook/internal/db/models"
	"github.com/willibrandon/sqlbook/internal/logger"
	"github.com/willibrandon/sqlbook/internal/manager"
	"github.com/willibrandon/sqlbook/internal/metrics"
)

// DefaultHistoryLimit is used by history.list when no limit is given.
const DefaultHistoryLimit = 50

// ConnectionManager is the command surface served over IPC.
// *manager.Manager implements it.
type ConnectionManager interface {
	AddConnection(ctx context.Context, cfg models.ConnectionConfig) (int, error)
	ListConnections(ctx context.Context) ([]models.ConnectionInfo, error)
	EditConnection(ctx context.Context, id int, cfg models.ConnectionConfig) (models.ConnectionInfo, error)
	RemoveConnection(ctx context.Context, id int) ([]models.ConnectionInfo, error)
	Query(ctx context.Context, id int, sql string) (*models.Table, error)
	History(ctx context.Context, id int, limit int) ([]models.HistoryEntry, error)
}

// StatsSource reports per-connection query statistics.
// *metrics.QueryStats implements it.
type StatsSource interface {
	Snapshot() []metrics.ConnectionStats
}

// Handlers serves the manager's operations over IPC, mapping manager and
// driver errors to IPC error codes.
type Handlers struct {
	mgr       ConnectionManager
	stats     StatsSource
	drivers   []string
	socket    string
	version   string
	startTime time.Time
}

// NewHandlers creates handlers serving mgr. stats may be nil. drivers and
// socket are reported by status.get.
func NewHandlers(mgr ConnectionManager, stats StatsSource, version, socket string, drivers []models.DriverKind) *Handlers {
	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = d.String()
	}
	return &Handlers{
		mgr:       mgr,
		stats:     stats,
		drivers:   names,
		socket:    socket,
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterAll registers every method with the server.
func (h *Handlers) RegisterAll(s *Server) {
	Register(s, MethodConnectionsAdd, h.ConnectionsAdd)
	Register(s, MethodConnectionsList, h.ConnectionsList)
	Register(s, MethodConnectionsEdit, h.ConnectionsEdit)
	Register(s, MethodConnectionsRemove, h.ConnectionsRemove)
	Register(s, MethodQueryRun, h.QueryRun)
	Register(s, MethodHistoryList, h.HistoryList)
	Register(s, MethodStatusGet, h.StatusGet)
}

// ConnectionsAdd handles connections.add.
func (h *Handlers) ConnectionsAdd(ctx context.Context, p ConnectionParams) (AddResult, error) {
	id, err := h.mgr.AddConnection(ctx, p.Config())
	if err != nil {
		return AddResult{}, handlerError(err)
	}
	return AddResult{ID: id}, nil
}

// ConnectionsList handles connections.list.
func (h *Handlers) ConnectionsList(ctx context.Context, _ NoParams) ([]models.ConnectionInfo, error) {
	infos, err := h.mgr.ListConnections(ctx)
	if err != nil {
		return nil, handlerError(err)
	}
	return infos, nil
}

// ConnectionsEdit handles connections.edit.
func (h *Handlers) ConnectionsEdit(ctx context.Context, p EditParams) (models.ConnectionInfo, error) {
	info, err := h.mgr.EditConnection(ctx, p.ID, p.Config())
	if err != nil {
		return models.ConnectionInfo{}, handlerError(err)
	}
	return info, nil
}

// ConnectionsRemove handles connections.remove.
func (h *Handlers) ConnectionsRemove(ctx context.Context, p RemoveParams) ([]models.ConnectionInfo, error) {
	infos, err := h.mgr.RemoveConnection(ctx, p.ID)
	if err != nil {
		return nil, handlerError(err)
	}
	return infos, nil
}

// QueryRun handles query.run.
func (h *Handlers) QueryRun(ctx context.Context, p QueryParams) (*models.Table, error) {
	table, err := h.mgr.Query(ctx, p.ID, p.SQL)
	if err != nil {
		return nil, handlerError(err)
	}
	return table, nil
}

// HistoryList handles history.list. A non-positive limit means
// DefaultHistoryLimit.
func (h *Handlers) HistoryList(ctx context.Context, p HistoryParams) ([]models.HistoryEntry, error) {
	if p.Limit <= 0 {
		p.Limit = DefaultHistoryLimit
	}
	entries, err := h.mgr.History(ctx, p.ID, p.Limit)
	if err != nil {
		return nil, handlerError(err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// StatusGet handles status.get.
func (h *Handlers) StatusGet(ctx context.Context, _ NoParams) (StatusResult, error) {
	infos, err := h.mgr.ListConnections(ctx)
	if err != nil {
		return StatusResult{}, handlerError(err)
	}

	warnings, errs := logger.GetCounts()
	recent := logger.RecentEntries()
	if recent == nil {
		recent = []logger.LogEntry{}
	}

	queries := []metrics.ConnectionStats{}
	if h.stats != nil {
		queries = h.stats.Snapshot()
	}

	return StatusResult{
		PID:           os.Getpid(),
		StartTime:     h.startTime,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Version:       h.version,
		Socket:        h.socket,
		Connections:   len(infos),
		Drivers:       h.drivers,
		Warnings:      warnings,
		Errors:        errs,
		Recent:        recent,
		Queries:       queries,
	}, nil
}

// handlerError maps manager and driver error kinds to IPC error codes.
func handlerError(err error) error {
	code := ErrCodeInternalError
	switch {
	case errors.Is(err, db.ErrUnknownDriver):
		code = ErrCodeUnknownDriver
	case errors.Is(err, db.ErrConnectFailed):
		code = ErrCodeConnectFailed
	case errors.Is(err, db.ErrQueryFailed):
		code = ErrCodeQueryFailed
	case errors.Is(err, manager.ErrIndexOutOfRange):
		code = ErrCodeIndexOutOfRange
	case errors.Is(err, manager.ErrChannelFailure):
		code = ErrCodeChannelFailure
	case errors.Is(err, manager.ErrCommandPanicked):
		code = ErrCodeCommandPanicked
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = ErrCodeDeadlineExceeded
	}
	return &Error{Code: code, Message: err.Error()}
}
