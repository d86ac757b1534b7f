package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrsinham/pet2nifti/internal/header"
	"gopkg.in/yaml.v3"
)

// RunConfig is the YAML form of one conversion's options.
type RunConfig struct {
	SourceData        string    `yaml:"source_data,omitempty"`
	DestinationFolder string    `yaml:"destination_folder,omitempty"`
	SubjectID         string    `yaml:"subject_id,omitempty"`
	SessionID         string    `yaml:"session_id,omitempty"`
	Tracer            string    `yaml:"tracer,omitempty"`
	RunID             string    `yaml:"run_id,omitempty"`
	ApplyFilter       bool      `yaml:"apply_filter,omitempty"`
	ScannerType       string    `yaml:"scanner_type,omitempty"`
	FilterSize        []float64 `yaml:"filter_size,omitempty,flow"`
	StrictSidecar     bool      `yaml:"strict_sidecar,omitempty"`
	Preview           bool      `yaml:"preview,omitempty"`
}

// Options converts the config into pipeline options.
func (c RunConfig) Options() Options {
	var fwhm []float64
	if len(c.FilterSize) > 0 {
		fwhm = append([]float64{}, c.FilterSize...)
	}
	return Options{
		SourceData:        c.SourceData,
		DestinationFolder: c.DestinationFolder,
		Identity: header.Identity{
			Subject: c.SubjectID,
			Session: c.SessionID,
			Tracer:  c.Tracer,
			Run:     c.RunID,
		},
		ApplyFilter:   c.ApplyFilter,
		ScannerType:   c.ScannerType,
		FilterSize:    fwhm,
		StrictSidecar: c.StrictSidecar,
		Preview:       c.Preview,
	}
}

// ConfigFromOptions is the inverse of RunConfig.Options.
func ConfigFromOptions(o Options) RunConfig {
	return RunConfig{
		SourceData:        o.SourceData,
		DestinationFolder: o.DestinationFolder,
		SubjectID:         o.Identity.Subject,
		SessionID:         o.Identity.Session,
		Tracer:            o.Identity.Tracer,
		RunID:             o.Identity.Run,
		ApplyFilter:       o.ApplyFilter,
		ScannerType:       o.ScannerType,
		FilterSize:        o.FilterSize,
		StrictSidecar:     o.StrictSidecar,
		Preview:           o.Preview,
	}
}

// Merge returns c with every empty field taken from defaults.
func (c RunConfig) Merge(defaults RunConfig) RunConfig {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	out := c
	out.SourceData = pick(c.SourceData, defaults.SourceData)
	out.DestinationFolder = pick(c.DestinationFolder, defaults.DestinationFolder)
	out.SubjectID = pick(c.SubjectID, defaults.SubjectID)
	out.SessionID = pick(c.SessionID, defaults.SessionID)
	out.Tracer = pick(c.Tracer, defaults.Tracer)
	out.RunID = pick(c.RunID, defaults.RunID)
	out.ScannerType = pick(c.ScannerType, defaults.ScannerType)
	out.ApplyFilter = c.ApplyFilter || defaults.ApplyFilter
	out.StrictSidecar = c.StrictSidecar || defaults.StrictSidecar
	out.Preview = c.Preview || defaults.Preview
	if len(out.FilterSize) == 0 {
		out.FilterSize = defaults.FilterSize
	}
	return out
}

// LoadConfig reads a run configuration from a YAML file.
func LoadConfig(configPath string) (*RunConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &RunConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating the parent directory if needed.
func SaveConfig(cfg *RunConfig, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
