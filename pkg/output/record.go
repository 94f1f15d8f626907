// Package output provides JSONL output for job submissions.
//
// Output is structured as typed record envelopes containing progress
// updates, final outcomes, and errors. Each line is a self-contained
// JSON object that can be parsed independently, which makes `wfrun run
// --output run.jsonl` consumable by scripts and schedulers.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: wfrun.<type>.v<version>
const (
	// TypeProgress identifies per-poll progress records.
	TypeProgress = "wfrun.progress.v1"

	// TypeOutcome identifies final outcome records.
	TypeOutcome = "wfrun.outcome.v1"

	// TypeError identifies stage failure records.
	TypeError = "wfrun.error.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line contains a Record with a type-specific payload in the Data
// field. The type field determines how to interpret the payload.
type Record struct {
	// Type identifies the record type (e.g., "wfrun.progress.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// SubmissionID is the local correlation ID for this submission.
	SubmissionID string `json:"submission_id"`

	// JobName is the logical job name being run.
	JobName string `json:"job_name"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ProgressRecord is the data payload for one poll of a watched run.
type ProgressRecord struct {
	// RunID is the backend run being watched.
	RunID int64 `json:"run_id"`

	// Message is the human-readable status line for this poll.
	Message string `json:"message"`
}

// OutcomeRecord is the data payload for the final disposition of a run.
type OutcomeRecord struct {
	RunID  int64  `json:"run_id"`
	JobID  int64  `json:"job_id"`
	RunURL string `json:"run_url,omitempty"`

	// Status is the normalized outcome: SUCCESS, FAILED, TIMEOUT, UNKNOWN.
	Status string `json:"status"`

	StateMessage   string `json:"state_message,omitempty"`
	LifecycleState string `json:"life_cycle_state,omitempty"`
	ResultState    string `json:"result_state,omitempty"`

	// TaskErrors lists the failing subtasks in backend order.
	TaskErrors []TaskErrorRecord `json:"task_errors,omitempty"`
}

// TaskErrorRecord is one failing subtask inside an OutcomeRecord.
type TaskErrorRecord struct {
	TaskKey      string `json:"task_key"`
	StateMessage string `json:"state_message,omitempty"`
	ResultState  string `json:"result_state,omitempty"`
}

// ErrorRecord is the data payload for a stage failure.
type ErrorRecord struct {
	// Stage is the pipeline stage that failed: resolve, launch, watch.
	Stage string `json:"stage"`

	// Message is the error text.
	Message string `json:"message"`
}

// Sentinel errors for writer operations.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps a failure while emitting a record.
type WriteError struct {
	// Op is the operation that failed (e.g., "marshal_data", "write").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return "output " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *WriteError) Unwrap() error {
	return e.Err
}
