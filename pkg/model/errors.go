package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks missing or invalid user input. It never reaches the network.
	ErrValidation = errors.New("validation error")
	// ErrNetwork marks a transport failure talking to the remote API.
	ErrNetwork = errors.New("network error")
	// ErrServer marks a non-2xx or malformed response from the remote API.
	ErrServer = errors.New("server error")
	// ErrNotFound marks an update that referenced a stale id.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied marks a device that declined to schedule notifications.
	ErrPermissionDenied = errors.New("notification permission denied")
	// ErrUnknownWeekdays marks a recurring task whose weekdays are not recorded on this device.
	ErrUnknownWeekdays = errors.New("weekdays unknown on this device")
	// ErrNoSession is returned when session data is read while nobody is logged in.
	ErrNoSession = errors.New("no active session")
)

// ValidationError describes which input was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ServerError is returned for a non-2xx response. Message comes from the response body when
// the server provided one.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap allows errors.Is(err, ErrServer), and errors.Is(err, ErrNotFound) for a 404.
func (e *ServerError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{ErrServer, ErrNotFound}
	}

	return []error{ErrServer}
}
