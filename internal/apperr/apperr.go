// Package apperr defines the error taxonomy shared by the store, the sync
// engine, and the message router. The router maps these onto response
// envelopes; nothing else should leak across that boundary.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports user-correctable bad input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// StorageError wraps a backing-store I/O failure. The failed user action can
// simply be re-issued; no partial write was committed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigError reports missing sync configuration (server URL or API key).
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return "config: missing " + e.Missing
}

// NetworkError: the request never produced an HTTP response
// (connection refused, DNS failure, broken transport).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError: the bounded request deadline elapsed and the in-flight
// request was aborted.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPError: the server answered with a non-2xx status. Body carries the
// response payload when one was readable.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ErrUnknownMessage is returned by the router for message types outside the
// protocol table. Always a caller bug, never retried.
var ErrUnknownMessage = errors.New("unknown message type")

// IsRetryable reports whether a sync failure is worth retrying on a later
// cycle. Validation and protocol errors are not; transient transport and
// server-side failures are.
func IsRetryable(err error) bool {
	var ne *NetworkError
	var te *TimeoutError
	var he *HTTPError
	switch {
	case errors.As(err, &ne), errors.As(err, &te):
		return true
	case errors.As(err, &he):
		return he.Status >= 500
	default:
		return false
	}
}
