package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for session-manager flow control.
var (
	ErrNoSession        = errors.New("no active session")
	ErrRefreshInFlight  = errors.New("refresh already in flight")
	ErrStaleResponse    = errors.New("response arrived for a stale session")
	ErrSnapshotNotFound = errors.New("no account snapshot cached")
)

// InvalidRequestError means the request could not even be constructed,
// typically a PAN or email that does not survive URL encoding.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// NetworkError wraps a transport-level failure or timeout. Transient; the
// next scheduled reconciliation retries automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response from the banking API. The session is
// preserved; only the message is surfaced.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// DecodingError means the response body did not match the expected shape.
// The cached snapshot is preserved, never partially overwritten.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding error: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// PersistenceError is a local storage read/write failure. It is kept
// distinct from network errors: a failed durable write does not block
// in-memory state updates.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
