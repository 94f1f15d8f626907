package dbxapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *RestClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewRestClient(Config{Host: srv.URL, Token: "test-token"})
	require.NoError(t, err)
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{Host: "https://ws.example.com", Token: "t"}, ""},
		{"missing host", Config{Token: "t"}, "Host"},
		{"missing token", Config{Host: "https://ws.example.com"}, "Token"},
		{"negative rate limit", Config{Host: "h", Token: "t", RateLimit: -1}, "RateLimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListJobsPagination(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, pathJobsList, r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page_token") == "" {
			_, _ = w.Write([]byte(`{
				"jobs": [
					{"job_id": 1, "settings": {"name": "nightly-load"}},
					{"job_id": 2, "settings": {"name": "[dev alice] nightly-load"}}
				],
				"next_page_token": "p2",
				"has_more": true
			}`))
			return
		}
		require.Equal(t, "p2", r.URL.Query().Get("page_token"))
		_, _ = w.Write([]byte(`{"jobs": [{"job_id": 3, "settings": {"name": "weekly-report"}}]}`))
	})

	c := newTestClient(t, handler)
	jobs, err := c.ListJobs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []JobSummary{
		{JobID: 1, Name: "nightly-load"},
		{JobID: 2, Name: "[dev alice] nightly-load"},
		{JobID: 3, Name: "weekly-report"},
	}, jobs)
}

func TestCurrentUser(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, pathMe, r.URL.Path)
		_, _ = w.Write([]byte(`{"userName": "alice@example.com"}`))
	})

	c := newTestClient(t, handler)
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user)
}

func TestCurrentUserEmptyIdentity(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	c := newTestClient(t, handler)
	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no user name")
}

func TestRunNow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, pathRunNow, r.URL.Path)

		var body struct {
			JobID         int64             `json:"job_id"`
			JobParameters map[string]string `json:"job_parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(42), body.JobID)
		assert.Equal(t, map[string]string{"run_date": "2026-01-15"}, body.JobParameters)

		_, _ = w.Write([]byte(`{"run_id": 9001, "number_in_job": 7}`))
	})

	c := newTestClient(t, handler)
	resp, err := c.RunNow(context.Background(), 42, map[string]string{"run_date": "2026-01-15"})
	require.NoError(t, err)
	assert.Equal(t, int64(9001), resp.RunID)
	assert.Equal(t, int64(7), resp.NumberInJob)
}

func TestGetRun(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, pathRunsGet, r.URL.Path)
		require.Equal(t, "9001", r.URL.Query().Get("run_id"))

		_, _ = w.Write([]byte(`{
			"run_id": 9001,
			"job_id": 42,
			"state": {"life_cycle_state": "TERMINATED", "result_state": "FAILED", "state_message": "task boom failed"},
			"tasks": [
				{"task_key": "extract", "state": {"life_cycle_state": "TERMINATED", "result_state": "SUCCESS"}},
				{"task_key": "boom", "state": {"life_cycle_state": "TERMINATED", "result_state": "FAILED", "state_message": "division by zero"}}
			]
		}`))
	})

	c := newTestClient(t, handler)
	run, err := c.GetRun(context.Background(), 9001)
	require.NoError(t, err)

	require.NotNil(t, run.State)
	assert.Equal(t, LifecycleTerminated, run.State.LifecycleState)
	assert.Equal(t, ResultFailed, run.State.ResultState)
	require.Len(t, run.Tasks, 2)
	assert.Equal(t, "boom", run.Tasks[1].TaskKey)
	assert.Equal(t, "division by zero", run.Tasks[1].State.StateMessage)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"unauthorized", 401, `{"error_code": "PERMISSION_DENIED", "message": "bad token"}`, ErrUnauthorized},
		{"forbidden", 403, ``, ErrUnauthorized},
		{"not found", 404, `{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "Run 1 does not exist."}`, ErrNotFound},
		{"throttled", 429, ``, ErrThrottled},
		{"unavailable", 503, ``, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			c := newTestClient(t, handler)
			_, err := c.GetRun(context.Background(), 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "GetRun", apiErr.Op)
		})
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code": "INVALID_PARAMETER_VALUE", "message": "Job 7 was deleted."}`))
	})

	c := newTestClient(t, handler)
	_, err := c.RunNow(context.Background(), 7, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_PARAMETER_VALUE: Job 7 was deleted.", apiErr.Message)
}

func TestHostTrailingSlashTrimmed(t *testing.T) {
	c, err := NewRestClient(Config{Host: "https://ws.example.com/", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://ws.example.com", c.Host())
}
