package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parsecdata/wfrun/internal/observability"
	"github.com/parsecdata/wfrun/pkg/dbxapi"
	"github.com/parsecdata/wfrun/pkg/jobspec"
	"github.com/parsecdata/wfrun/pkg/runner"
)

// JobLauncher resolves a job name and starts one run of it.
type JobLauncher interface {
	Submit(ctx context.Context, jobName string, params map[string]string) (*runner.Result, error)
}

// RunGetter fetches the current snapshot of a run.
type RunGetter interface {
	GetRun(ctx context.Context, runID int64) (*dbxapi.Run, error)
}

// SubmitRequest is the POST /api/v1/runs body.
type SubmitRequest struct {
	JobName    string            `json:"job_name"`
	Parameters map[string]string `json:"parameters"`
}

// SubmitResponse acknowledges a started run.
type SubmitResponse struct {
	JobName     string `json:"job_name"`
	JobID       int64  `json:"job_id"`
	RunID       int64  `json:"run_id"`
	NumberInJob int64  `json:"number_in_job,omitempty"`
	RunURL      string `json:"run_url"`
}

// SubmitRun starts a run of a configured job. Each call launches a new
// run; there is no idempotency key.
func SubmitRun(launcher JobLauncher, specs map[string]*jobspec.Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
			return
		}
		if req.JobName == "" {
			WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "job_name is required")
			return
		}

		params := req.Parameters
		if spec, ok := specs[req.JobName]; ok {
			if fieldErrs := spec.ValidateValues(req.Parameters); len(fieldErrs) > 0 {
				fields := make(map[string]string, len(fieldErrs))
				for _, fe := range fieldErrs {
					fields[fe.Name] = fe.Message
				}
				WriteFieldError(w, r, http.StatusBadRequest, "VALIDATION_ERROR",
					"one or more parameters are invalid", fields)
				return
			}
			params = spec.LaunchParameters(req.Parameters)
		}

		result, err := launcher.Submit(r.Context(), req.JobName, params)
		if err != nil {
			writeSubmitError(w, r, req.JobName, err)
			return
		}

		observability.CLILogger.Info("run submitted",
			zap.String("job_name", result.JobName),
			zap.Int64("job_id", result.JobID),
			zap.Int64("run_id", result.Handle.RunID))

		WriteJSON(w, http.StatusAccepted, SubmitResponse{
			JobName:     result.JobName,
			JobID:       result.JobID,
			RunID:       result.Handle.RunID,
			NumberInJob: result.Handle.NumberInJob,
			RunURL:      result.RunURL,
		})
	}
}

func writeSubmitError(w http.ResponseWriter, r *http.Request, jobName string, err error) {
	switch {
	case runner.IsNotFound(err):
		WriteError(w, r, http.StatusNotFound, "JOB_NOT_FOUND", err.Error())
	case dbxapi.IsUnauthorized(err):
		WriteError(w, r, http.StatusBadGateway, "BACKEND_UNAUTHORIZED", "workspace rejected our credentials")
	default:
		observability.CLILogger.Error("submit failed",
			zap.String("job_name", jobName), zap.Error(err))
		WriteError(w, r, http.StatusBadGateway, "BACKEND_ERROR", err.Error())
	}
}

// RunStatusResponse is the GET /api/v1/runs/{runID} payload.
type RunStatusResponse struct {
	RunID          int64       `json:"run_id"`
	JobID          int64       `json:"job_id"`
	LifecycleState string      `json:"lifecycle_state"`
	ResultState    string      `json:"result_state,omitempty"`
	StateMessage   string      `json:"state_message,omitempty"`
	Terminal       bool        `json:"terminal"`
	Tasks          []TaskState `json:"tasks,omitempty"`
}

// TaskState is the per-task slice of a run status response.
type TaskState struct {
	TaskKey        string `json:"task_key"`
	LifecycleState string `json:"lifecycle_state,omitempty"`
	ResultState    string `json:"result_state,omitempty"`
	StateMessage   string `json:"state_message,omitempty"`
}

// GetRunStatus reports the current state of one run.
func GetRunStatus(runs RunGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, err := strconv.ParseInt(chi.URLParam(r, "runID"), 10, 64)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "run ID must be an integer")
			return
		}

		run, err := runs.GetRun(r.Context(), runID)
		if err != nil {
			if dbxapi.IsNotFound(err) {
				WriteError(w, r, http.StatusNotFound, "RUN_NOT_FOUND", "no such run")
				return
			}
			var apiErr *dbxapi.APIError
			if errors.As(err, &apiErr) {
				WriteError(w, r, http.StatusBadGateway, "BACKEND_ERROR", apiErr.Message)
				return
			}
			WriteError(w, r, http.StatusBadGateway, "BACKEND_ERROR", err.Error())
			return
		}

		resp := RunStatusResponse{RunID: run.RunID, JobID: run.JobID}
		if run.State != nil {
			resp.LifecycleState = string(run.State.LifecycleState)
			resp.ResultState = string(run.State.ResultState)
			resp.StateMessage = run.State.StateMessage
			resp.Terminal = run.State.LifecycleState.Terminal()
		}
		for _, task := range run.Tasks {
			ts := TaskState{TaskKey: task.TaskKey}
			if task.State != nil {
				ts.LifecycleState = string(task.State.LifecycleState)
				ts.ResultState = string(task.State.ResultState)
				ts.StateMessage = task.State.StateMessage
			}
			resp.Tasks = append(resp.Tasks, ts)
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}
