package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecdata/wfrun/pkg/dbxapi"
	"github.com/parsecdata/wfrun/pkg/monitor"
)

type fakeBackend struct {
	jobs []dbxapi.JobSummary
	user string

	runNowErr  error
	nextRunID  int64
	lastParams map[string]string
	launches   int

	runs map[int64][]*dbxapi.Run
	gets map[int64]int
}

func (f *fakeBackend) ListJobs(ctx context.Context) ([]dbxapi.JobSummary, error) {
	return f.jobs, nil
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (string, error) {
	if f.user == "" {
		return "", errors.New("no identity")
	}
	return f.user, nil
}

func (f *fakeBackend) RunNow(ctx context.Context, jobID int64, params map[string]string) (*dbxapi.RunNowResponse, error) {
	if f.runNowErr != nil {
		return nil, f.runNowErr
	}
	f.launches++
	f.nextRunID++
	f.lastParams = params
	return &dbxapi.RunNowResponse{RunID: f.nextRunID, NumberInJob: int64(f.launches)}, nil
}

func (f *fakeBackend) GetRun(ctx context.Context, runID int64) (*dbxapi.Run, error) {
	if f.gets == nil {
		f.gets = map[int64]int{}
	}
	script := f.runs[runID]
	if len(script) == 0 {
		return nil, errors.New("unknown run")
	}
	i := f.gets[runID]
	f.gets[runID]++
	if i >= len(script) {
		i = len(script) - 1
	}
	return script[i], nil
}

func terminated(result dbxapi.ResultState) *dbxapi.Run {
	return &dbxapi.Run{State: &dbxapi.RunState{
		LifecycleState: dbxapi.LifecycleTerminated,
		ResultState:    result,
	}}
}

func newTestRunner(backend *fakeBackend) *Runner {
	return New(backend, Config{
		Host:   "https://ws.example.com/",
		Target: "dev",
		Watch:  monitor.Options{Timeout: time.Hour, PollInterval: time.Nanosecond},
	})
}

func TestRunFullSequence(t *testing.T) {
	backend := &fakeBackend{
		jobs: []dbxapi.JobSummary{
			{JobID: 42, Name: "[dev alice] nightly-load"},
			{JobID: 43, Name: "nightly-load"},
		},
		user: "alice",
		runs: map[int64][]*dbxapi.Run{
			1: {
				{State: &dbxapi.RunState{LifecycleState: dbxapi.LifecycleRunning}},
				terminated(dbxapi.ResultSuccess),
			},
		},
	}
	r := newTestRunner(backend)

	var progress []string
	result, err := r.Run(context.Background(), "nightly-load",
		map[string]string{"run_date": "2026-01-15"},
		func(msg string) { progress = append(progress, msg) })
	require.NoError(t, err)

	// The deployment-prefixed registration wins over the plain name.
	assert.Equal(t, int64(42), result.JobID)
	assert.Equal(t, int64(1), result.Handle.RunID)
	assert.Equal(t, "https://ws.example.com/#job/42/run/1", result.RunURL)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, monitor.StatusSuccess, result.Outcome.Status)
	assert.Equal(t, map[string]string{"run_date": "2026-01-15"}, backend.lastParams)
	assert.NotEmpty(t, progress)
}

func TestRunJobNotFound(t *testing.T) {
	backend := &fakeBackend{user: "alice"}
	r := newTestRunner(backend)

	_, err := r.Run(context.Background(), "missing", nil, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.JobName)
	assert.Zero(t, backend.launches)
}

func TestLaunchErrorCarriesJobID(t *testing.T) {
	cause := errors.New("backend rejected request")
	backend := &fakeBackend{
		jobs:      []dbxapi.JobSummary{{JobID: 42, Name: "nightly-load"}},
		user:      "alice",
		runNowErr: cause,
	}
	r := newTestRunner(backend)

	_, err := r.Run(context.Background(), "nightly-load", nil, nil)
	require.Error(t, err)

	var launchErr *LaunchError
	require.ErrorAs(t, err, &launchErr)
	assert.Equal(t, int64(42), launchErr.JobID)
	assert.ErrorIs(t, err, cause)
}

func TestLaunchIsNotIdempotent(t *testing.T) {
	backend := &fakeBackend{user: "alice"}
	r := newTestRunner(backend)

	params := map[string]string{"run_date": "2026-01-15"}
	first, err := r.Launch(context.Background(), 42, params)
	require.NoError(t, err)
	second, err := r.Launch(context.Background(), 42, params)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 2, backend.launches)
}

func TestWatchFailureReturnsPartialResult(t *testing.T) {
	backend := &fakeBackend{
		jobs: []dbxapi.JobSummary{{JobID: 42, Name: "nightly-load"}},
		user: "alice",
		// No script for run 1: the first poll fails.
	}
	r := newTestRunner(backend)

	result, err := r.Run(context.Background(), "nightly-load", nil, nil)
	require.Error(t, err)

	var watchErr *monitor.WatchError
	require.ErrorAs(t, err, &watchErr)

	// The handle and URL are still usable for external follow-up.
	require.NotNil(t, result)
	assert.Equal(t, int64(1), result.Handle.RunID)
	assert.Equal(t, "https://ws.example.com/#job/42/run/1", result.RunURL)
	assert.Nil(t, result.Outcome)
}

func TestSubmitDoesNotWait(t *testing.T) {
	backend := &fakeBackend{
		jobs: []dbxapi.JobSummary{{JobID: 42, Name: "nightly-load"}},
		user: "alice",
	}
	r := newTestRunner(backend)

	result, err := r.Submit(context.Background(), "nightly-load", nil)
	require.NoError(t, err)
	assert.Nil(t, result.Outcome)
	assert.Zero(t, backend.gets[result.Handle.RunID])
}

func TestRunURL(t *testing.T) {
	r := newTestRunner(&fakeBackend{user: "alice"})
	assert.Equal(t, "https://ws.example.com/#job/7/run/19", r.RunURL(7, 19))
}
