// Package dbxapi abstracts the workspace Jobs API consumed by the
// resolver, launcher, and monitor.
//
// The interface is the service boundary: everything above it works in
// terms of job summaries, run states, and task states, never HTTP.
// Authentication is a bearer token provided by configuration - the
// package does not acquire credentials itself.
package dbxapi

import "context"

// Client is the surface of the remote Jobs API that the submission core
// consumes.
//
// Implementations should:
//   - Be safe for concurrent use
//   - Honor context cancellation on every call
//   - Map backend failures onto the sentinel errors in errors.go
type Client interface {
	// ListJobs returns all jobs registered in the workspace.
	// The listing order is backend-defined and not guaranteed stable.
	ListJobs(ctx context.Context) ([]JobSummary, error)

	// CurrentUser returns the user name of the authenticated principal.
	CurrentUser(ctx context.Context) (string, error)

	// RunNow starts a new run of the given job with string-valued
	// parameters. Every call starts a new run - the operation is not
	// idempotent.
	RunNow(ctx context.Context, jobID int64, params map[string]string) (*RunNowResponse, error)

	// GetRun returns the current state of a run, including per-task
	// states once the backend reports them.
	GetRun(ctx context.Context, runID int64) (*Run, error)
}

// JobSummary identifies one registered job.
type JobSummary struct {
	JobID int64  `json:"job_id"`
	Name  string `json:"name"`
}

// LifecycleState is the coarse run phase reported by the backend.
type LifecycleState string

const (
	LifecyclePending       LifecycleState = "PENDING"
	LifecycleRunning       LifecycleState = "RUNNING"
	LifecycleTerminating   LifecycleState = "TERMINATING"
	LifecycleTerminated    LifecycleState = "TERMINATED"
	LifecycleSkipped       LifecycleState = "SKIPPED"
	LifecycleInternalError LifecycleState = "INTERNAL_ERROR"
)

// Terminal reports whether the state is one the backend never leaves.
func (s LifecycleState) Terminal() bool {
	switch s {
	case LifecycleTerminated, LifecycleSkipped, LifecycleInternalError:
		return true
	}
	return false
}

// ResultState is the fine-grained outcome classification, populated only
// once a run reaches a terminal lifecycle state.
type ResultState string

const (
	ResultSuccess  ResultState = "SUCCESS"
	ResultFailed   ResultState = "FAILED"
	ResultTimedOut ResultState = "TIMEDOUT"
	ResultCanceled ResultState = "CANCELED"
)

// RunState is the state block attached to a run or to one of its tasks.
type RunState struct {
	LifecycleState LifecycleState `json:"life_cycle_state,omitempty"`
	ResultState    ResultState    `json:"result_state,omitempty"`
	StateMessage   string         `json:"state_message,omitempty"`
}

// TaskRun is a named subunit of a run. A task may fail independently of
// the run's aggregate result.
type TaskRun struct {
	TaskKey string    `json:"task_key"`
	State   *RunState `json:"state,omitempty"`
}

// Run is a point-in-time snapshot of one job run.
type Run struct {
	RunID       int64     `json:"run_id"`
	JobID       int64     `json:"job_id,omitempty"`
	NumberInJob int64     `json:"number_in_job,omitempty"`
	State       *RunState `json:"state,omitempty"`
	Tasks       []TaskRun `json:"tasks,omitempty"`
}

// RunNowResponse is the handle returned when a run is started.
// It is valid until the run reaches a terminal state.
type RunNowResponse struct {
	RunID       int64 `json:"run_id"`
	NumberInJob int64 `json:"number_in_job,omitempty"`
}
