// Package ipc exposes the connection manager over newline-delimited JSON on
// a Unix domain socket (a named pipe on Windows).
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/willibrandon/sqlbook/internal/logger"
)

// MaxRequestSize bounds one request line. Larger requests close the
// connection with INVALID_REQUEST.
const MaxRequestSize = 4 << 20

// Handler serves one method from its raw params.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// NoParams is the parameter type of methods that take none.
type NoParams struct{}

// Register adds a handler whose params are decoded into P. Decoding
// failures are answered with INVALID_REQUEST before fn runs.
func Register[P, R any](s *Server, method string, fn func(context.Context, P) (R, error)) {
	s.Handle(method, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p P
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	})
}

func decodeParams[P any](raw json.RawMessage, p *P) error {
	if len(raw) == 0 || string(raw) == "null" {
		if _, ok := any(*p).(NoParams); ok {
			return nil
		}
		return &Error{Code: ErrCodeInvalidRequest, Message: "missing params"}
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return &Error{Code: ErrCodeInvalidRequest, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

// Server accepts IPC clients and dispatches their requests. Each client is
// served on its own goroutine, one request at a time.
type Server struct {
	listener *Listener

	mu       sync.Mutex
	handlers map[string]Handler
	conns    map[net.Conn]struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer listens at path. An empty path uses the platform default.
func NewServer(path string) (*Server, error) {
	l, err := Listen(path)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: l,
		handlers: make(map[string]Handler),
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Handle registers h for method, replacing any previous handler.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Path returns the endpoint clients dial.
func (s *Server) Path() string {
	return s.listener.Path()
}

// Start accepts clients in the background until Stop. Requests in flight
// see ctx cancelled when Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("server already running")
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.accept(ctx)
	}()

	logger.Info("IPC server listening", "path", s.listener.Path())
	return nil
}

// Stop closes the listener and every client, then waits for the
// connection goroutines to exit.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.cancel = nil
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	err := s.listener.Close()
	s.wg.Wait()
	logger.Info("IPC server stopped")
	return err
}

func (s *Server) accept(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("IPC accept error", "error", err)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.serve(ctx, conn)
		}()
	}
}

// track records conn unless the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// serve answers requests from one client until it disconnects.
func (s *Server) serve(ctx context.Context, conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxRequestSize)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			if err := enc.Encode(NewErrorResponse("", ErrCodeInvalidRequest, fmt.Sprintf("invalid JSON: %v", err))); err != nil {
				return
			}
			continue
		}

		resp := s.dispatch(ctx, req)
		if err := enc.Encode(resp); err != nil {
			logger.Warn("IPC write error", "method", req.Method, "error", err)
			return
		}
	}

	switch err := scanner.Err(); {
	case errors.Is(err, bufio.ErrTooLong):
		enc.Encode(NewErrorResponse("", ErrCodeInvalidRequest, "request too large"))
	case err != nil && !errors.Is(err, net.ErrClosed):
		logger.Warn("IPC read error", "error", err)
	}
}

// dispatch runs the handler for req and converts its outcome to a response.
func (s *Server) dispatch(ctx context.Context, req Request) (resp Response) {
	s.mu.Lock()
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()
	if !ok {
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
	}

	logger.Debug("IPC request", "method", req.Method, "id", req.ID)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("IPC handler panicked", "method", req.Method, "panic", r)
			resp = NewErrorResponse(req.ID, ErrCodeInternalError, fmt.Sprintf("%s failed", req.Method))
		}
	}()

	result, err := h(ctx, req.Params)
	if err != nil {
		var ipcErr *Error
		if errors.As(err, &ipcErr) {
			return NewErrorResponse(req.ID, ipcErr.Code, ipcErr.Message)
		}
		return NewErrorResponse(req.ID, ErrCodeInternalError, err.Error())
	}

	resp, err = NewSuccessResponse(req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, fmt.Sprintf("failed to marshal response: %v", err))
	}
	return resp
}
