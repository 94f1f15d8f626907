package runlog

import "time"

// Status is the recorded disposition of a submission.
//
// NOTE: These values are persisted in record.json and are part of the
// stable on-disk contract.
type Status string

const (
	// StatusSubmitted means the run was started and is (or was) being
	// watched; the final outcome has not been recorded yet.
	StatusSubmitted Status = "submitted"

	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
	StatusUnknown Status = "unknown"

	// StatusError means a stage failed before an outcome was observed
	// (monitoring aborted, for example).
	StatusError Status = "error"
)

// TaskFailure mirrors one failed subtask in the recorded outcome.
type TaskFailure struct {
	TaskKey      string `json:"task_key"`
	StateMessage string `json:"state_message,omitempty"`
	ResultState  string `json:"result_state,omitempty"`
}

// Record is the persistent record written to record.json, one per
// submission.
//
// The schema is designed for backward-compatible extension (additive
// fields).
type Record struct {
	ID         string            `json:"id"`
	JobName    string            `json:"job_name"`
	JobID      int64             `json:"job_id"`
	RunID      int64             `json:"run_id,omitempty"`
	RunURL     string            `json:"run_url,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`

	Status       Status        `json:"status"`
	StateMessage string        `json:"state_message,omitempty"`
	TaskFailures []TaskFailure `json:"task_failures,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
