package pipeline

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mrsinham/pet2nifti/internal/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
destination_folder: /out
workers: 2
defaults:
  tracer: FDG
  apply_filter: true
  scanner_type: HRRT
jobs:
  - source_data: /data/a
    subject_id: "01"
  - source_data: /data/b
    destination_folder: /elsewhere
    tracer: PIB
`)
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Workers)

	jobs := m.ResolvedJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "/out", jobs[0].DestinationFolder)
	assert.Equal(t, header.Identity{Subject: "01", Tracer: "FDG"}, jobs[0].Identity)
	assert.True(t, jobs[0].ApplyFilter)
	assert.Equal(t, "HRRT", jobs[0].ScannerType)
	assert.Equal(t, "/elsewhere", jobs[1].DestinationFolder)
	assert.Equal(t, "PIB", jobs[1].Identity.Tracer)
}

func TestLoadManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no jobs", "destination_folder: /out\n", "has no jobs"},
		{"missing source", "destination_folder: /out\njobs:\n  - subject_id: x\n", "source_data is required"},
		{"missing destination", "jobs:\n  - source_data: /a\n", "destination_folder is required"},
		{"bad yaml", "jobs: [", "error parsing manifest"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tc.content))
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRunBatch(t *testing.T) {
	conv := &fakeConverter{}
	p, _ := newTestPipeline(t, conv)
	dest := t.TempDir()

	jobs := []Options{
		{SourceData: dicomSource(t, "A"), DestinationFolder: dest},
		{SourceData: filepath.Join(t.TempDir(), "missing"), DestinationFolder: dest},
		{SourceData: dicomSource(t, "B"), DestinationFolder: dest, ApplyFilter: true, FilterSize: []float64{4, 4, 4}},
	}

	var mu sync.Mutex
	var seen []int
	results := p.RunBatch(jobs, 2, func(completed, total int, r BatchResult) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		seen = append(seen, completed)
	})

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
	require.NoError(t, results[0].Err)
	assert.Equal(t, "A", results[0].Result.Identity.Subject)
	assert.ErrorIs(t, results[1].Err, ErrInputNotFound)
	require.NoError(t, results[2].Err)
	assert.Equal(t, []float64{4, 4, 4}, results[2].Result.FilterSize)

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, int32(1), conv.probes.Load())
}

func TestRunBatch_Empty(t *testing.T) {
	p, _ := newTestPipeline(t, &fakeConverter{})
	assert.Empty(t, p.RunBatch(nil, 4, nil))
}
