package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/pet2nifti/internal/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.yaml")
	cfg := &RunConfig{
		SourceData:        "/data/scan.v",
		DestinationFolder: "/out",
		SubjectID:         "01",
		Tracer:            "FDG",
		ApplyFilter:       true,
		FilterSize:        []float64{6, 6, 5},
	}
	require.NoError(t, SaveConfig(cfg, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "filter_size: [6, 6, 5]")
	assert.NotContains(t, string(raw), "session_id")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("apply_filter: [oops"), 0644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "error parsing config file")
}

func TestRunConfig_Options(t *testing.T) {
	cfg := RunConfig{
		SourceData:  "src",
		SubjectID:   "01",
		SessionID:   "base",
		Tracer:      "PIB",
		RunID:       "1",
		ScannerType: "HRRT",
	}
	opts := cfg.Options()
	assert.Equal(t, header.Identity{Subject: "01", Session: "base", Tracer: "PIB", Run: "1"}, opts.Identity)
	assert.Nil(t, opts.FilterSize, "empty filter size must stay unset")
	assert.Equal(t, cfg, ConfigFromOptions(opts))
}

func TestRunConfig_Merge(t *testing.T) {
	defaults := RunConfig{DestinationFolder: "/out", Tracer: "FDG", ApplyFilter: true, FilterSize: []float64{4, 4, 4}}

	merged := RunConfig{SourceData: "a", Tracer: "PIB"}.Merge(defaults)
	assert.Equal(t, RunConfig{
		SourceData:        "a",
		DestinationFolder: "/out",
		Tracer:            "PIB",
		ApplyFilter:       true,
		FilterSize:        []float64{4, 4, 4},
	}, merged)

	merged = RunConfig{SourceData: "b", FilterSize: []float64{2, 2, 2}}.Merge(defaults)
	assert.Equal(t, []float64{2, 2, 2}, merged.FilterSize)
}
