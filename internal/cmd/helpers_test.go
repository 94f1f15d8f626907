package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple pairs",
			pairs: []string{"run_date=2026-08-20", "mode=full"},
			want:  map[string]string{"run_date": "2026-08-20", "mode": "full"},
		},
		{
			name:  "value containing equals",
			pairs: []string{"filter=region=eu"},
			want:  map[string]string{"filter": "region=eu"},
		},
		{
			name:  "empty value allowed",
			pairs: []string{"note="},
			want:  map[string]string{"note": ""},
		},
		{
			name:  "no pairs",
			pairs: nil,
			want:  map[string]string{},
		},
		{
			name:    "missing separator",
			pairs:   []string{"run_date"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=value"},
			wantErr: true,
		},
		{
			name:    "duplicate key",
			pairs:   []string{"mode=full", "mode=delta"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSpecPath(t *testing.T) {
	assert.True(t, isSpecPath("job_configs/nightly_load.yaml"))
	assert.True(t, isSpecPath("nightly_load.yml"))
	assert.True(t, isSpecPath("nightly_load.json"))
	assert.True(t, isSpecPath("configs/nightly-load"))

	assert.False(t, isSpecPath("nightly-load"))
	assert.False(t, isSpecPath("nightly.load.job"))
}
