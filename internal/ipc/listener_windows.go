//go:build windows

package ipc

import (
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"

	"github.com/willibrandon/sqlbook/internal/config"
)

// Owner-only DACL: connection URIs carry credentials.
const pipeSecurityDescriptor = "D:P(A;;GA;;;OW)"

// listen creates a named pipe. A pipe disappears with its owner, so there is
// never a stale endpoint to clean up; a live one makes ListenPipe fail.
func listen(path string) (net.Listener, error) {
	l, err := winio.ListenPipe(path, &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
		InputBufferSize:    64 << 10,
		OutputBufferSize:   1 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create named pipe: %w", err)
	}
	return l, nil
}

// Dial connects to the endpoint at path, or the default one when empty.
func Dial(path string, timeout time.Duration) (net.Conn, error) {
	if path == "" {
		path = config.DefaultSocketPath()
	}
	return winio.DialPipe(path, &timeout)
}
