package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsecdata/wfrun/pkg/jobspec"
)

func TestJobCatalogSorted(t *testing.T) {
	specs := map[string]*jobspec.Spec{
		"zeta-sync":    {JobName: "zeta-sync", DisplayName: "Zeta Sync"},
		"nightly-load": {JobName: "nightly-load", DisplayName: "Nightly Load", Parameters: []jobspec.Parameter{
			{Name: "run_date", Type: jobspec.TypeDate, Required: true, Label: "Run date"},
		}},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	rec := httptest.NewRecorder()
	JobCatalog(specs).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs []JobSummary `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Jobs, 2)

	assert.Equal(t, "nightly-load", resp.Jobs[0].JobName)
	assert.Equal(t, "zeta-sync", resp.Jobs[1].JobName)

	require.Len(t, resp.Jobs[0].Parameters, 1)
	assert.Equal(t, "date", resp.Jobs[0].Parameters[0].Type)
	assert.Equal(t, "Run date", resp.Jobs[0].Parameters[0].Label)
	assert.True(t, resp.Jobs[0].Parameters[0].Required)
}

func TestJobCatalogEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	rec := httptest.NewRecorder()
	JobCatalog(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs []JobSummary `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Jobs)
}
