package runner

import (
	"errors"
	"fmt"
)

// NotFoundError reports that no registered job matched a logical name
// under any naming scheme. It is a user-facing condition, not a backend
// failure - the presentation layer should render it as a message.
type NotFoundError struct {
	// JobName is the logical name that did not resolve.
	JobName string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %q not found in workspace", e.JobName)
}

// IsNotFound returns true if the error is a job-not-found condition.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// LaunchError wraps a backend failure while triggering a run.
type LaunchError struct {
	// JobID is the job that failed to start.
	JobID int64

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch job %d: %v", e.JobID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LaunchError) Unwrap() error {
	return e.Err
}
