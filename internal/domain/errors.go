package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrServerOffline indicates the content server is unreachable
	ErrServerOffline = errors.New("content server is unreachable")

	// ErrTimeout indicates a request exceeded its deadline
	ErrTimeout = errors.New("request timed out")

	// ErrAuthFailed indicates the API token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrCacheExhausted indicates every cache tier was empty when a live
	// fetch failed
	ErrCacheExhausted = errors.New("no cached data available")
)

// TransportKind classifies a failed gateway call.
type TransportKind int

const (
	TransportNetwork TransportKind = iota
	TransportTimeout
	TransportServer
	TransportNotFound
)

func (k TransportKind) String() string {
	switch k {
	case TransportNetwork:
		return "network"
	case TransportTimeout:
		return "timeout"
	case TransportServer:
		return "server"
	case TransportNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// TransportError wraps a failed HTTP exchange with its classification.
// Status is the HTTP status code when one was received, 0 otherwise.
type TransportError struct {
	Kind   TransportKind
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is maps each transport kind onto its sentinel so callers can use
// errors.Is without inspecting the struct.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrServerOffline:
		return e.Kind == TransportNetwork
	case ErrTimeout:
		return e.Kind == TransportTimeout
	case ErrNotFound:
		return e.Kind == TransportNotFound
	}
	return false
}

// ValidationError reports a request rejected before any network call.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
