package dbxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// Jobs API endpoints. The SCIM Me endpoint is the identity source for the
// deployment-prefix computation.
const (
	pathJobsList = "/api/2.1/jobs/list"
	pathRunNow   = "/api/2.1/jobs/run-now"
	pathRunsGet  = "/api/2.1/jobs/runs/get"
	pathMe       = "/api/2.0/preview/scim/v2/Me"
)

// RestClient implements Client against the workspace REST API.
//
// RestClient is safe for concurrent use. An optional client-side rate
// limiter smooths poll loops and listing bursts; the backend still
// enforces its own limits (surfaced as ErrThrottled).
type RestClient struct {
	host     string
	token    string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// NewRestClient creates a REST client for the configured workspace.
func NewRestClient(cfg Config) (*RestClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	c := &RestClient{
		host:     strings.TrimRight(cfg.Host, "/"),
		token:    cfg.Token,
		pageSize: pageSize,
		http:     &http.Client{Timeout: timeout},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// Host returns the workspace base URL without a trailing slash.
func (c *RestClient) Host() string {
	return c.host
}

// ListJobs returns all jobs in the workspace, following pagination until
// the backend reports no further pages.
func (c *RestClient) ListJobs(ctx context.Context) ([]JobSummary, error) {
	type settings struct {
		Name string `json:"name"`
	}
	type job struct {
		JobID    int64    `json:"job_id"`
		Settings settings `json:"settings"`
	}
	type page struct {
		Jobs          []job  `json:"jobs"`
		NextPageToken string `json:"next_page_token"`
		HasMore       bool   `json:"has_more"`
	}

	var out []JobSummary
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(c.pageSize))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var p page
		if err := c.get(ctx, "ListJobs", pathJobsList, q, &p); err != nil {
			return nil, err
		}
		for _, j := range p.Jobs {
			out = append(out, JobSummary{JobID: j.JobID, Name: j.Settings.Name})
		}
		if p.NextPageToken == "" {
			return out, nil
		}
		pageToken = p.NextPageToken
	}
}

// CurrentUser returns the user name of the authenticated principal.
func (c *RestClient) CurrentUser(ctx context.Context) (string, error) {
	var me struct {
		UserName string `json:"userName"`
	}
	if err := c.get(ctx, "CurrentUser", pathMe, nil, &me); err != nil {
		return "", err
	}
	if me.UserName == "" {
		return "", &APIError{Op: "CurrentUser", Endpoint: pathMe, Err: fmt.Errorf("identity response has no user name")}
	}
	return me.UserName, nil
}

// RunNow starts a new run of the given job.
func (c *RestClient) RunNow(ctx context.Context, jobID int64, params map[string]string) (*RunNowResponse, error) {
	body := struct {
		JobID         int64             `json:"job_id"`
		JobParameters map[string]string `json:"job_parameters,omitempty"`
	}{JobID: jobID, JobParameters: params}

	var resp RunNowResponse
	if err := c.post(ctx, "RunNow", pathRunNow, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRun returns the current state of a run.
func (c *RestClient) GetRun(ctx context.Context, runID int64) (*Run, error) {
	q := url.Values{}
	q.Set("run_id", strconv.FormatInt(runID, 10))

	var run Run
	if err := c.get(ctx, "GetRun", pathRunsGet, q, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *RestClient) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := c.host + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &APIError{Op: op, Endpoint: path, Err: err}
	}
	return c.do(op, path, req, out)
}

func (c *RestClient) post(ctx context.Context, op, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return &APIError{Op: op, Endpoint: path, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(b))
	if err != nil {
		return &APIError{Op: op, Endpoint: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, path, req, out)
}

func (c *RestClient) do(op, path string, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return &APIError{Op: op, Endpoint: path, Err: err}
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Op:         op,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
			Err:        sentinelForStatus(resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, Endpoint: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readErrorMessage extracts the backend error message from a non-200
// response body. Bodies are capped to avoid buffering arbitrary payloads.
func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 16*1024))
	if err != nil || len(b) == 0 {
		return ""
	}
	var body struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(b, &body); err != nil || body.Message == "" {
		return strings.TrimSpace(string(b))
	}
	if body.ErrorCode != "" {
		return body.ErrorCode + ": " + body.Message
	}
	return body.Message
}

// Compile-time check that RestClient implements Client.
var _ Client = (*RestClient)(nil)
