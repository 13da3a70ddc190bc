package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willibrandon/sqlbook/internal/db/models"
)

const (
	// DefaultTimeout bounds a call whose context has no deadline. Queries
	// run to completion on the server, so it is generous.
	DefaultTimeout = 5 * time.Minute

	// DialTimeout bounds connecting to the server.
	DialTimeout = 2 * time.Second
)

// Client talks to a running sqlbook server. Calls are serialized over one
// connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// NewClient connects to the server at path, or the default endpoint when
// path is empty.
func NewClient(path string) (*Client, error) {
	conn, err := Dial(path, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IPC socket: %w", err)
	}
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends one request and waits for its response. The context deadline,
// or DefaultTimeout when it has none, becomes the connection deadline;
// cancelling ctx aborts the wait. After a failed call the stream may be out
// of step with the server and the client should be closed.
func (c *Client) Call(ctx context.Context, method string, params any) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := Request{ID: uuid.NewString(), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := c.enc.Encode(req); err != nil {
		return nil, c.callError(ctx, "write request", err)
	}
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return nil, c.callError(ctx, "read response", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	}
	return &resp, nil
}

// callError prefers the context error when ctx caused the failure.
func (c *Client) callError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// invoke calls method and decodes a successful result into out. A server
// side failure is returned as *Error.
func invoke[T any](ctx context.Context, c *Client, method string, params any) (T, error) {
	var out T
	resp, err := c.Call(ctx, method, params)
	if err != nil {
		return out, err
	}
	if resp.Error != nil {
		return out, resp.Error
	}
	if err := json.Unmarshal(resp.Result, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return out, nil
}

// AddConnection calls connections.add and returns the new connection id.
func (c *Client) AddConnection(ctx context.Context, cfg models.ConnectionConfig) (int, error) {
	result, err := invoke[AddResult](ctx, c, MethodConnectionsAdd, paramsFor(cfg))
	return result.ID, err
}

// ListConnections calls connections.list.
func (c *Client) ListConnections(ctx context.Context) ([]models.ConnectionInfo, error) {
	return invoke[[]models.ConnectionInfo](ctx, c, MethodConnectionsList, nil)
}

// EditConnection calls connections.edit.
func (c *Client) EditConnection(ctx context.Context, id int, cfg models.ConnectionConfig) (models.ConnectionInfo, error) {
	return invoke[models.ConnectionInfo](ctx, c, MethodConnectionsEdit, EditParams{ID: id, ConnectionParams: paramsFor(cfg)})
}

// RemoveConnection calls connections.remove and returns the refreshed list.
func (c *Client) RemoveConnection(ctx context.Context, id int) ([]models.ConnectionInfo, error) {
	return invoke[[]models.ConnectionInfo](ctx, c, MethodConnectionsRemove, RemoveParams{ID: id})
}

// Query calls query.run.
func (c *Client) Query(ctx context.Context, id int, sql string) (*models.Table, error) {
	return invoke[*models.Table](ctx, c, MethodQueryRun, QueryParams{ID: id, SQL: sql})
}

// History calls history.list.
func (c *Client) History(ctx context.Context, id, limit int) ([]models.HistoryEntry, error) {
	return invoke[[]models.HistoryEntry](ctx, c, MethodHistoryList, HistoryParams{ID: id, Limit: limit})
}

// GetStatus calls status.get.
func (c *Client) GetStatus(ctx context.Context) (*StatusResult, error) {
	return invoke[*StatusResult](ctx, c, MethodStatusGet, nil)
}

func paramsFor(cfg models.ConnectionConfig) ConnectionParams {
	return ConnectionParams{Name: cfg.Name, URI: cfg.URI, Driver: cfg.Driver}
}
