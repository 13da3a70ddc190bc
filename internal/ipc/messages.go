package ipc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/willibrandon/sqlbook/internal/db/models"
	"github.com/willibrandon/sqlbook/internal/logger"
	"github.com/willibrandon/sqlbook/internal/metrics"
)

// Request represents an IPC request from a client.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response represents an IPC response from the server.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error represents an IPC error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes.
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeMethodNotFound   = "METHOD_NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeUnknownDriver    = "UNKNOWN_DRIVER"
	ErrCodeConnectFailed    = "CONNECT_FAILED"
	ErrCodeQueryFailed      = "QUERY_FAILED"
	ErrCodeIndexOutOfRange  = "INDEX_OUT_OF_RANGE"
	ErrCodeChannelFailure   = "CHANNEL_FAILURE"
	ErrCodeCommandPanicked  = "COMMAND_PANICKED"
	ErrCodeDeadlineExceeded = "DEADLINE_EXCEEDED"
)

// Method names.
const (
	MethodConnectionsAdd    = "connections.add"
	MethodConnectionsList   = "connections.list"
	MethodConnectionsEdit   = "connections.edit"
	MethodConnectionsRemove = "connections.remove"
	MethodQueryRun          = "query.run"
	MethodHistoryList       = "history.list"
	MethodStatusGet         = "status.get"
)

// ConnectionParams are the parameters for connections.add.
type ConnectionParams struct {
	Name   string            `json:"name"`
	URI    string            `json:"uri"`
	Driver models.DriverKind `json:"driver"`
}

// Config returns the connection configuration carried by p.
func (p ConnectionParams) Config() models.ConnectionConfig {
	return models.ConnectionConfig{Name: p.Name, URI: p.URI, Driver: p.Driver}
}

// AddResult is the result of connections.add.
type AddResult struct {
	ID int `json:"id"`
}

// EditParams are the parameters for connections.edit.
type EditParams struct {
	ID int `json:"id"`
	ConnectionParams
}

// RemoveParams are the parameters for connections.remove.
type RemoveParams struct {
	ID int `json:"id"`
}

// QueryParams are the parameters for query.run.
type QueryParams struct {
	ID  int    `json:"id"`
	SQL string `json:"sql"`
}

// HistoryParams are the parameters for history.list.
type HistoryParams struct {
	ID    int `json:"id"`
	Limit int `json:"limit,omitempty"`
}

// StatusResult is the result of status.get.
type StatusResult struct {
	PID           int                       `json:"pid"`
	StartTime     time.Time                 `json:"start_time"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Version       string                    `json:"version"`
	Socket        string                    `json:"socket"`
	Connections   int                       `json:"connections"`
	Drivers       []string                  `json:"drivers"`
	Warnings      int                       `json:"warnings"`
	Errors        int                       `json:"errors"`
	Recent        []logger.LogEntry         `json:"recent"`
	Queries       []metrics.ConnectionStats `json:"queries"`
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code, message string) Response {
	return Response{
		ID: id,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
}

// NewSuccessResponse creates a success response.
func NewSuccessResponse(id string, result any) (Response, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return Response{
		ID:     id,
		Result: data,
	}, nil
}
