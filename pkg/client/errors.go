package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when nothing listens on the daemon socket
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the socket is not accessible to the current user
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the daemon responds 404, e.g. for an unknown battery field
	// or when no battery is present
	ErrNotFound = errors.New("404 not found")
)
