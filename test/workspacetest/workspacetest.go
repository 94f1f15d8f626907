// Package workspacetest provides an in-memory fake Jobs API for
// integration-style tests.
//
// The fake serves the four endpoints the client uses (job listing,
// identity, run-now, runs/get) over httptest, so tests exercise the real
// HTTP client end to end without a live workspace.
//
// Usage:
//
//	func TestSubmitAndWait(t *testing.T) {
//	    ws := workspacetest.New(t)
//	    ws.AddJob(42, "[dev alice@example.com] nightly-load")
//	    ws.ScriptStates(42, "PENDING", "RUNNING", "TERMINATED:SUCCESS")
//	    // ... point a RestClient at ws.URL() ...
//	}
package workspacetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Token is the bearer token the fake accepts.
const Token = "dapi-test-token"

// DefaultUser is the identity reported until SetUser is called.
const DefaultUser = "alice@example.com"

type jobEntry struct {
	id   int64
	name string
}

// runScript is the scripted state sequence for runs of one job. Each
// runs/get call advances one step; the last step repeats.
type runScript struct {
	jobID  int64
	states []string
	next   int
}

// Workspace is a fake Jobs API backend.
type Workspace struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	user        string
	jobs        []jobEntry
	scripts     map[int64][]string // jobID -> scripted states
	runs        map[int64]*runScript
	nextRunID   int64
	runNowCalls int
	listCalls   int
}

// New starts a fake workspace. The server is shut down via t.Cleanup.
func New(t *testing.T) *Workspace {
	t.Helper()

	ws := &Workspace{
		t:         t,
		user:      DefaultUser,
		scripts:   map[int64][]string{},
		runs:      map[int64]*runScript{},
		nextRunID: 9000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.1/jobs/list", ws.handleList)
	mux.HandleFunc("/api/2.0/preview/scim/v2/Me", ws.handleMe)
	mux.HandleFunc("/api/2.1/jobs/run-now", ws.handleRunNow)
	mux.HandleFunc("/api/2.1/jobs/runs/get", ws.handleRunsGet)

	ws.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeAPIError(w, http.StatusUnauthorized, "PERMISSION_DENIED", "invalid token")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(ws.server.Close)

	return ws
}

// URL is the workspace base URL.
func (ws *Workspace) URL() string {
	return ws.server.URL
}

// SetUser changes the identity reported by the SCIM Me endpoint.
func (ws *Workspace) SetUser(name string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.user = name
}

// AddJob registers a job as deployed in the workspace. Listing order
// follows registration order.
func (ws *Workspace) AddJob(id int64, name string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.jobs = append(ws.jobs, jobEntry{id: id, name: name})
}

// ScriptStates sets the state sequence runs of jobID will walk through.
// States are "LIFECYCLE" or "LIFECYCLE:RESULT" (for terminal snapshots),
// e.g. "RUNNING" or "TERMINATED:SUCCESS". The last state repeats.
func (ws *Workspace) ScriptStates(jobID int64, states ...string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.scripts[jobID] = states
}

// RunNowCalls reports how many run submissions the fake has seen.
func (ws *Workspace) RunNowCalls() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.runNowCalls
}

// ListCalls reports how many listing requests the fake has seen,
// counting each page once.
func (ws *Workspace) ListCalls() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.listCalls
}

func (ws *Workspace) handleList(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.listCalls++

	type settings struct {
		Name string `json:"name"`
	}
	type job struct {
		JobID    int64    `json:"job_id"`
		Settings settings `json:"settings"`
	}

	jobs := make([]job, 0, len(ws.jobs))
	for _, j := range ws.jobs {
		jobs = append(jobs, job{JobID: j.id, Settings: settings{Name: j.name}})
	}
	writeJSON(w, map[string]any{"jobs": jobs, "has_more": false})
}

func (ws *Workspace) handleMe(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.user == "" {
		writeAPIError(w, http.StatusForbidden, "PERMISSION_DENIED", "identity unavailable")
		return
	}
	writeJSON(w, map[string]any{"userName": ws.user})
}

func (ws *Workspace) handleRunNow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JobID int64 `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_PARAMETER_VALUE", "bad request body")
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.runNowCalls++

	if !ws.hasJob(body.JobID) {
		writeAPIError(w, http.StatusNotFound, "RESOURCE_DOES_NOT_EXIST", fmt.Sprintf("job %d does not exist", body.JobID))
		return
	}

	ws.nextRunID++
	runID := ws.nextRunID

	states := ws.scripts[body.JobID]
	if len(states) == 0 {
		states = []string{"TERMINATED:SUCCESS"}
	}
	ws.runs[runID] = &runScript{jobID: body.JobID, states: states}

	writeJSON(w, map[string]any{"run_id": runID, "number_in_job": 1})
}

func (ws *Workspace) handleRunsGet(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseInt(r.URL.Query().Get("run_id"), 10, 64)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "INVALID_PARAMETER_VALUE", "run_id must be an integer")
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	script, ok := ws.runs[runID]
	if !ok {
		writeAPIError(w, http.StatusNotFound, "RESOURCE_DOES_NOT_EXIST", fmt.Sprintf("run %d does not exist", runID))
		return
	}

	state := script.states[script.next]
	if script.next < len(script.states)-1 {
		script.next++
	}

	lifecycle, result, _ := strings.Cut(state, ":")
	stateBody := map[string]any{"life_cycle_state": lifecycle}
	if result != "" {
		stateBody["result_state"] = result
	}

	writeJSON(w, map[string]any{
		"run_id": runID,
		"job_id": script.jobID,
		"state":  stateBody,
	})
}

func (ws *Workspace) hasJob(id int64) bool {
	for _, j := range ws.jobs {
		if j.id == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error_code": code, "message": message})
}
