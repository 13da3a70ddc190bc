//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/willibrandon/sqlbook/internal/config"
)

// staleProbeTimeout bounds the dial used to tell a live socket from a stale one.
const staleProbeTimeout = 500 * time.Millisecond

func listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Unix socket: %w", err)
	}
	// Connection URIs carry credentials; only the owner may connect.
	if err := os.Chmod(path, 0600); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return l, nil
}

// removeStaleSocket deletes a socket file nobody is listening on.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}

	if conn, err := net.DialTimeout("unix", path, staleProbeTimeout); err == nil {
		conn.Close()
		return fmt.Errorf("IPC socket already in use by another process: %s", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	return nil
}

// Dial connects to the endpoint at path, or the default one when empty.
func Dial(path string, timeout time.Duration) (net.Conn, error) {
	if path == "" {
		path = config.DefaultSocketPath()
	}
	return net.DialTimeout("unix", path, timeout)
}
