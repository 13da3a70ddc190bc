package ipc

import (
	"net"

	"github.com/willibrandon/sqlbook/internal/config"
)

// Listener is the server end of the IPC endpoint.
type Listener struct {
	net.Listener
	path string
}

// Listen creates the endpoint at path, or at config.DefaultSocketPath when
// path is empty. A Unix socket left behind by a crashed server is replaced;
// one with a live server is an error.
func Listen(path string) (*Listener, error) {
	if path == "" {
		path = config.DefaultSocketPath()
	}
	l, err := listen(path)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: l, path: path}, nil
}

// Path returns the socket or pipe path.
func (l *Listener) Path() string {
	return l.path
}
