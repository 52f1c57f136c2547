package pas

import "errors"

// Package errors.
var (
	// ErrNotInitialized is returned by Run when Initialize has not succeeded.
	ErrNotInitialized = errors.New("pas: renderer not initialized")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("pas: renderer already initialized")

	// ErrRunning is returned by Run while another Run is active.
	ErrRunning = errors.New("pas: renderer already running")

	// ErrDisposed is returned when a disposed renderer is used.
	ErrDisposed = errors.New("pas: renderer disposed")

	// ErrNoBackend is returned when no backend is registered under the
	// requested name, or none is registered at all.
	ErrNoBackend = errors.New("pas: no rendering backend available")

	// ErrNoWindow is returned when no window factory was configured.
	ErrNoWindow = errors.New("pas: no window factory configured")

	// ErrInvalidSize is returned for non-positive surface dimensions.
	ErrInvalidSize = errors.New("pas: invalid surface size")
)
