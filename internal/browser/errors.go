package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrLaunch is matched by every *LaunchError.
	ErrLaunch = errors.New("browser launch failed")
	// ErrNotFound means a selector matched nothing.
	ErrNotFound = errors.New("element not found")
	// ErrStaleReference means a live element handle no longer belongs to the current DOM.
	ErrStaleReference = errors.New("stale element reference")
	// ErrTimeout means a wait exceeded its bound.
	ErrTimeout = errors.New("wait timed out")
	// ErrInvalidTimeout is returned when a wait is asked to run without a positive timeout.
	ErrInvalidTimeout = errors.New("wait timeout must be positive")
	// ErrPageLimitExceeded is the deliberate stop condition of a RateLimiter.
	ErrPageLimitExceeded = errors.New("page limit exceeded")
	// ErrSessionClosed is returned by any call on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// LaunchError wraps the reason a browser process could not start.
type LaunchError struct {
	Browser string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Browser, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrLaunch) match any LaunchError.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }
