// Package runner composes name resolution, job launch, and run
// monitoring into one submit-and-wait sequence.
//
// Each stage's errors surface verbatim - no stage retries another. Every
// retry is a human resubmitting.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/parsecdata/wfrun/pkg/dbxapi"
	"github.com/parsecdata/wfrun/pkg/monitor"
	"github.com/parsecdata/wfrun/pkg/resolver"
)

// Config configures a Runner.
type Config struct {
	// Host is the workspace base URL, used to build viewer URLs.
	Host string

	// Target is the deployment target label for prefix resolution.
	// Empty falls back to resolver.DefaultTarget.
	Target string

	// Watch holds the monitoring ceiling and poll interval.
	Watch monitor.Options
}

// Runner orchestrates resolve, launch, and watch against one backend.
//
// A Runner holds one resolver, so the memoized identity prefix is shared
// across its submissions. Construct one Runner per session/identity.
type Runner struct {
	api      dbxapi.Client
	resolver *resolver.Resolver
	monitor  *monitor.Monitor
	host     string
	watch    monitor.Options
}

// New creates a runner over the given backend client.
func New(api dbxapi.Client, cfg Config) *Runner {
	return &Runner{
		api:      api,
		resolver: resolver.New(api, cfg.Target),
		monitor:  monitor.New(api),
		host:     strings.TrimRight(cfg.Host, "/"),
		watch:    cfg.Watch,
	}
}

// Resolver returns the underlying name resolver.
func (r *Runner) Resolver() *resolver.Resolver {
	return r.resolver
}

// Resolve maps a logical job name to a workspace job ID.
func (r *Runner) Resolve(ctx context.Context, jobName string) (int64, bool, error) {
	return r.resolver.Resolve(ctx, jobName)
}

// Handle identifies a started run.
type Handle struct {
	RunID       int64 `json:"run_id"`
	NumberInJob int64 `json:"number_in_job,omitempty"`
}

// Launch starts one new run of the job.
//
// Parameter values must already be stringified (dates as YYYY-MM-DD);
// no coercion happens here. Launch is not idempotent: calling it twice
// starts two runs.
func (r *Runner) Launch(ctx context.Context, jobID int64, params map[string]string) (*Handle, error) {
	resp, err := r.api.RunNow(ctx, jobID, params)
	if err != nil {
		return nil, &LaunchError{JobID: jobID, Err: err}
	}
	return &Handle{RunID: resp.RunID, NumberInJob: resp.NumberInJob}, nil
}

// Watch polls an already-started run to completion.
func (r *Runner) Watch(ctx context.Context, runID int64, onProgress monitor.ProgressFunc) (*monitor.Outcome, error) {
	return r.monitor.Watch(ctx, runID, r.watch, onProgress)
}

// RunURL builds the human follow-up URL for a run.
func (r *Runner) RunURL(jobID, runID int64) string {
	return fmt.Sprintf("%s/#job/%d/run/%d", r.host, jobID, runID)
}

// Result is the product of a submission.
type Result struct {
	JobName string          `json:"job_name"`
	JobID   int64           `json:"job_id"`
	Handle  Handle          `json:"handle"`
	RunURL  string          `json:"run_url"`
	Outcome *monitor.Outcome `json:"outcome,omitempty"`
}

// Submit resolves the job name and starts a run without waiting for it.
func (r *Runner) Submit(ctx context.Context, jobName string, params map[string]string) (*Result, error) {
	jobID, found, err := r.Resolve(ctx, jobName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &NotFoundError{JobName: jobName}
	}

	handle, err := r.Launch(ctx, jobID, params)
	if err != nil {
		return nil, err
	}

	return &Result{
		JobName: jobName,
		JobID:   jobID,
		Handle:  *handle,
		RunURL:  r.RunURL(jobID, handle.RunID),
	}, nil
}

// Run performs the full sequence: resolve, launch, watch to completion.
//
// On a monitoring failure the partially-populated result (with the run
// handle and URL) is returned alongside the error so the caller can
// still point the user at the run.
func (r *Runner) Run(ctx context.Context, jobName string, params map[string]string, onProgress monitor.ProgressFunc) (*Result, error) {
	result, err := r.Submit(ctx, jobName, params)
	if err != nil {
		return nil, err
	}

	outcome, err := r.Watch(ctx, result.Handle.RunID, onProgress)
	if err != nil {
		return result, err
	}
	result.Outcome = outcome
	return result, nil
}
