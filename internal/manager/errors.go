package manager

import "errors"

var (
	// ErrIndexOutOfRange is returned when a connection id does not name an
	// entry in the store.
	ErrIndexOutOfRange = errors.New("connection index out of range")

	// ErrChannelFailure is returned when the manager cannot accept a command
	// or stopped before replying.
	ErrChannelFailure = errors.New("failed to communicate with connection manager")

	// ErrCommandPanicked is returned when handling a command panicked.
	ErrCommandPanicked = errors.New("command panicked")
)
