package jobspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
job_name: nightly-load
display_name: Nightly Data Load
description: Loads the previous day's files.
parameters:
  - name: run_date
    type: date
    required: true
    label: Run Date
    validation:
      min_date: "2020-01-01"
      max_date: "2030-12-31"
  - name: batch_size
    type: integer
    validation:
      min: 1
      max: 10000
    default: "500"
  - name: region
    type: enum
    required: true
    options: [emea, amer, apac]
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	spec, err := Load(writeConfig(t, "nightly.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "nightly-load", spec.JobName)
	assert.Equal(t, "Nightly Data Load", spec.DisplayName)
	require.Len(t, spec.Parameters, 3)

	rd := spec.Parameter("run_date")
	require.NotNil(t, rd)
	assert.Equal(t, TypeDate, rd.Type)
	assert.True(t, rd.Required)
	assert.Equal(t, "2020-01-01", rd.Validation.MinDate)

	bs := spec.Parameter("batch_size")
	require.NotNil(t, bs)
	require.NotNil(t, bs.Validation.Min)
	assert.Equal(t, float64(1), *bs.Validation.Min)
	assert.Equal(t, "500", bs.Default)
}

func TestLoadJSON(t *testing.T) {
	spec, err := Load(writeConfig(t, "job.json", `{
		"job_name": "weekly-report",
		"parameters": [{"name": "note", "type": "text"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "weekly-report", spec.JobName)
}

func TestLoadAppliesDefaults(t *testing.T) {
	spec, err := LoadFromBytes([]byte("job_name: plain\nparameters:\n  - name: note\n"), "plain.yaml")
	require.NoError(t, err)

	// display_name falls back to job_name, parameter type to text.
	assert.Equal(t, "plain", spec.DisplayName)
	assert.Equal(t, TypeText, spec.Parameters[0].Type)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"missing job_name", "a.yaml", "display_name: x\n", "job name is required"},
		{"bad yaml", "b.yaml", "job_name: [unclosed\n", "invalid YAML"},
		{"empty file", "c.yaml", "   \n", "empty"},
		{"unknown type", "d.yaml", "job_name: x\nparameters:\n  - name: p\n    type: blob\n", `unknown parameter type "blob"`},
		{"enum without options", "e.yaml", "job_name: x\nparameters:\n  - name: p\n    type: enum\n", "at least one option"},
		{"duplicate parameter", "f.yaml", "job_name: x\nparameters:\n  - name: p\n  - name: p\n", "duplicate parameter"},
		{"bad min_date", "g.yaml", "job_name: x\nparameters:\n  - name: p\n    type: date\n    validation:\n      min_date: 15-01-2026\n", "min_date must be YYYY-MM-DD"},
		{"min above max", "h.yaml", "job_name: x\nparameters:\n  - name: p\n    type: integer\n    validation:\n      min: 10\n      max: 1\n", "min must not exceed max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDiscoverAndLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nightly.yaml"), []byte(sampleYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weekly.yml"), []byte("job_name: weekly-report\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not a config\n"), 0644))

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	specs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Contains(t, specs, "nightly-load")
	assert.Contains(t, specs, "weekly-report")
}

func TestDiscoverCustomPattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "team-a"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "team-a", "job.yaml"), []byte("job_name: a-job\n"), 0644))

	paths, err := Discover(dir, "**/*.yaml")
	require.NoError(t, err)
	require.Len(t, paths, 1)
}

func TestDiscoverInvalidPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config pattern")
}

func TestLoadDirDuplicateJobName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("job_name: same\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("job_name: same\n"), 0644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate job_name "same"`)
}
