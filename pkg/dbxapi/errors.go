package dbxapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for Jobs API operations.
var (
	// ErrUnauthorized indicates the token was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested job or run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrThrottled indicates the request was rate limited by the backend.
	ErrThrottled = errors.New("request throttled")

	// ErrUnavailable indicates the backend service is unavailable.
	ErrUnavailable = errors.New("backend unavailable")
)

// APIError wraps a failed Jobs API call with request context.
type APIError struct {
	// Op is the logical operation that failed (e.g., "ListJobs").
	Op string

	// Endpoint is the API path that was called.
	Endpoint string

	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int

	// Message is the error message returned by the backend, if any.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Endpoint, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a missing job or run.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error indicates a rejected token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsThrottled returns true if the error indicates backend rate limiting.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrThrottled)
}

// sentinelForStatus maps an HTTP status code onto a sentinel error.
func sentinelForStatus(code int) error {
	switch {
	case code == 401 || code == 403:
		return ErrUnauthorized
	case code == 404:
		return ErrNotFound
	case code == 429:
		return ErrThrottled
	case code >= 500:
		return ErrUnavailable
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}
