package pipeline

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Manifest lists conversions to run together. Job fields left empty are
// taken from Defaults; a job's destination falls back to DestinationFolder.
type Manifest struct {
	DestinationFolder string      `yaml:"destination_folder"`
	Workers           int         `yaml:"workers"`
	Defaults          RunConfig   `yaml:"defaults"`
	Jobs              []RunConfig `yaml:"jobs"`
}

// LoadManifest reads and validates a batch manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s has no jobs", path)
	}
	for i, job := range m.ResolvedJobs() {
		if job.SourceData == "" {
			return nil, fmt.Errorf("manifest job %d: source_data is required", i+1)
		}
		if job.DestinationFolder == "" {
			return nil, fmt.Errorf("manifest job %d: destination_folder is required", i+1)
		}
	}
	return m, nil
}

// ResolvedJobs returns every job merged with the manifest defaults.
func (m *Manifest) ResolvedJobs() []Options {
	defaults := m.Defaults
	if defaults.DestinationFolder == "" {
		defaults.DestinationFolder = m.DestinationFolder
	}
	out := make([]Options, len(m.Jobs))
	for i, job := range m.Jobs {
		out[i] = job.Merge(defaults).Options()
	}
	return out
}

// BatchResult is the outcome of one job.
type BatchResult struct {
	Index   int
	Options Options
	Result  *Result
	Err     error
}

// RunBatch runs jobs on a pool of workers (NumCPU when workers <= 0) and
// returns the results in job order. progress, when set, is called after
// each job completes.
func (p *Pipeline) RunBatch(jobs []Options, workers int, progress func(completed, total int, r BatchResult)) []BatchResult {
	results := make([]BatchResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}
	log.WithFields(log.Fields{"jobs": len(jobs), "workers": numWorkers}).Debug("starting batch")

	taskChan := make(chan int, len(jobs))
	resultChan := make(chan BatchResult, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				res, err := p.Run(jobs[i])
				resultChan <- BatchResult{Index: i, Options: jobs[i], Result: res, Err: err}
			}
		}()
	}

	for i := range jobs {
		taskChan <- i
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	for r := range resultChan {
		results[r.Index] = r
		completed++
		if r.Err != nil {
			log.WithFields(log.Fields{"source": r.Options.SourceData, "error": r.Err}).Error("batch job failed")
		}
		if progress != nil {
			progress(completed, len(jobs), r)
		}
	}
	return results
}
