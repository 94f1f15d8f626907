package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []Record {
	t.Helper()
	var records []Record
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var r Record
		require.NoError(t, json.Unmarshal([]byte(line), &r), "line: %s", line)
		records = append(records, r)
	}
	return records
}

func TestJSONLWriterEmitsEnvelopes(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "sub-1", "nightly-load")
	ctx := context.Background()

	require.NoError(t, w.WriteProgress(ctx, &ProgressRecord{RunID: 9001, Message: "Job status: RUNNING"}))
	require.NoError(t, w.WriteOutcome(ctx, &OutcomeRecord{
		RunID:  9001,
		JobID:  42,
		Status: "FAILED",
		TaskErrors: []TaskErrorRecord{
			{TaskKey: "transform", ResultState: "FAILED", StateMessage: "schema mismatch"},
		},
	}))
	require.NoError(t, w.Close())

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)

	assert.Equal(t, TypeProgress, records[0].Type)
	assert.Equal(t, "sub-1", records[0].SubmissionID)
	assert.Equal(t, "nightly-load", records[0].JobName)
	assert.False(t, records[0].TS.IsZero())

	var prog ProgressRecord
	require.NoError(t, json.Unmarshal(records[0].Data, &prog))
	assert.Equal(t, "Job status: RUNNING", prog.Message)

	assert.Equal(t, TypeOutcome, records[1].Type)
	var outcome OutcomeRecord
	require.NoError(t, json.Unmarshal(records[1].Data, &outcome))
	assert.Equal(t, "FAILED", outcome.Status)
	require.Len(t, outcome.TaskErrors, 1)
	assert.Equal(t, "transform", outcome.TaskErrors[0].TaskKey)
}

func TestJSONLWriterErrorRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "sub-1", "nightly-load")

	require.NoError(t, w.WriteError(context.Background(), &ErrorRecord{Stage: "watch", Message: "backend unreachable"}))

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, TypeError, records[0].Type)
}

func TestJSONLWriterClosed(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "sub-1", "nightly-load")
	require.NoError(t, w.Close())

	err := w.WriteProgress(context.Background(), &ProgressRecord{Message: "late"})
	assert.ErrorIs(t, err, ErrWriterClosed)
	assert.Zero(t, buf.Len())
}

func TestJSONLWriterContextCanceled(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "sub-1", "nightly-load")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteProgress(ctx, &ProgressRecord{Message: "never"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

// shortWriter writes at most one byte per call.
type shortWriter struct {
	buf bytes.Buffer
}

func (s *shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return s.buf.Write(p[:1])
}

func TestJSONLWriterHandlesShortWrites(t *testing.T) {
	sw := &shortWriter{}
	w := NewJSONLWriter(sw, "sub-1", "nightly-load")

	require.NoError(t, w.WriteProgress(context.Background(), &ProgressRecord{RunID: 1, Message: "ok"}))

	var r Record
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(sw.buf.Bytes()), &r))
	assert.Equal(t, TypeProgress, r.Type)
}
