// Package monitor polls a run until it reaches a terminal state.
//
// The backend exposes no event stream, so completion tracking is a
// fixed-interval poll loop: simple, correct, and at worst one poll
// interval late. The clock and sleep function are injectable so tests
// can drive the loop without real delays.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/parsecdata/wfrun/pkg/dbxapi"
)

// RunStatusAPI is the slice of the backend the monitor needs.
// dbxapi.Client satisfies it.
type RunStatusAPI interface {
	GetRun(ctx context.Context, runID int64) (*dbxapi.Run, error)
}

// Status is the normalized outcome classification of a watched run.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusTimeout Status = "TIMEOUT"

	// StatusUnknown is returned when a run is terminal but the backend
	// reported no result state at all.
	StatusUnknown Status = "UNKNOWN"
)

// TaskError describes one subtask that did not succeed.
type TaskError struct {
	TaskKey      string             `json:"task_key"`
	StateMessage string             `json:"state_message,omitempty"`
	ResultState  dbxapi.ResultState `json:"result_state"`
}

// Outcome is the normalized result of watching a run to completion.
//
// TaskErrors is non-empty only when Status is StatusFailed and the
// backend reported a per-task breakdown; ordering follows the backend's
// task listing.
type Outcome struct {
	Status         Status                `json:"status"`
	StateMessage   string                `json:"state_message,omitempty"`
	LifecycleState dbxapi.LifecycleState `json:"life_cycle_state,omitempty"`
	ResultState    dbxapi.ResultState    `json:"result_state,omitempty"`
	TaskErrors     []TaskError           `json:"task_errors,omitempty"`
}

// Succeeded reports whether the run completed successfully.
func (o *Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Options configures one Watch call.
type Options struct {
	// Timeout is the wall-clock ceiling for the whole watch. It is
	// checked once per poll cycle, not preemptively, so the loop can
	// overshoot by up to one poll interval. Zero uses DefaultTimeout.
	Timeout time.Duration

	// PollInterval is the sleep between polls.
	// Zero uses DefaultPollInterval.
	PollInterval time.Duration
}

// DefaultTimeout is the watch ceiling when none is configured.
const DefaultTimeout = time.Hour

// DefaultPollInterval is the sleep between polls when none is configured.
const DefaultPollInterval = 5 * time.Second

func (o *Options) applyDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
}

// ProgressFunc receives a human-readable status line once per poll, in
// poll order, synchronously on the watching goroutine.
type ProgressFunc func(message string)

// Monitor watches runs by polling the backend.
type Monitor struct {
	api   RunStatusAPI
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a monitor using the real clock.
func New(api RunStatusAPI) *Monitor {
	return &Monitor{
		api:   api,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Watch polls the run until a terminal state, the timeout, or a poll
// failure.
//
// Timeout is a defined outcome, not an error: the run keeps executing on
// the backend and the caller decides whether to keep watching externally.
// A backend failure during polling aborts the watch with a WatchError -
// it is never retried silently. onProgress, if non-nil, is invoked on
// every poll before the terminal check, even when the state has not
// changed.
func (m *Monitor) Watch(ctx context.Context, runID int64, opts Options, onProgress ProgressFunc) (*Outcome, error) {
	opts.applyDefaults()
	start := m.now()

	for {
		run, err := m.api.GetRun(ctx, runID)
		if err != nil {
			return nil, &WatchError{RunID: runID, Err: err}
		}

		var lifecycle dbxapi.LifecycleState
		if run.State != nil {
			lifecycle = run.State.LifecycleState
		}

		if onProgress != nil {
			onProgress("Job status: " + string(lifecycle))
		}

		if lifecycle.Terminal() {
			return classify(run, lifecycle), nil
		}

		if m.now().Sub(start) > opts.Timeout {
			return &Outcome{
				Status:         StatusTimeout,
				StateMessage:   fmt.Sprintf("run did not complete within %s", opts.Timeout),
				LifecycleState: lifecycle,
			}, nil
		}

		if err := m.sleep(ctx, opts.PollInterval); err != nil {
			return nil, &WatchError{RunID: runID, Err: err}
		}
	}
}

// classify turns a terminal run snapshot into a normalized outcome.
func classify(run *dbxapi.Run, lifecycle dbxapi.LifecycleState) *Outcome {
	out := &Outcome{LifecycleState: lifecycle}
	if run.State != nil {
		out.ResultState = run.State.ResultState
		out.StateMessage = run.State.StateMessage
	}

	switch {
	case out.ResultState == dbxapi.ResultSuccess:
		out.Status = StatusSuccess
		out.StateMessage = ""
	case out.ResultState == "":
		out.Status = StatusUnknown
	default:
		out.Status = StatusFailed
		out.TaskErrors = collectTaskErrors(run.Tasks)
	}
	return out
}

// collectTaskErrors gathers every subtask whose own result state is
// present and not SUCCESS, preserving the backend's task order.
func collectTaskErrors(tasks []dbxapi.TaskRun) []TaskError {
	var errs []TaskError
	for _, task := range tasks {
		if task.State == nil {
			continue
		}
		rs := task.State.ResultState
		if rs == "" || rs == dbxapi.ResultSuccess {
			continue
		}
		errs = append(errs, TaskError{
			TaskKey:      task.TaskKey,
			StateMessage: task.State.StateMessage,
			ResultState:  rs,
		})
	}
	return errs
}

// WatchError wraps a backend failure during run monitoring.
type WatchError struct {
	// RunID is the run being watched.
	RunID int64

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WatchError) Error() string {
	return fmt.Sprintf("watch run %d: %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *WatchError) Unwrap() error {
	return e.Err
}
