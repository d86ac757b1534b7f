// Package pipeline runs a complete PET conversion: format detection, header
// normalization, external conversion, optional smoothing and the sidecar.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mrsinham/pet2nifti/internal/converter"
	"github.com/mrsinham/pet2nifti/internal/header"
	"github.com/mrsinham/pet2nifti/internal/preview"
	"github.com/mrsinham/pet2nifti/internal/scanner"
	"github.com/mrsinham/pet2nifti/internal/sidecar"
	"github.com/mrsinham/pet2nifti/internal/smoothing"
	log "github.com/sirupsen/logrus"
)

var ErrInputNotFound = errors.New("source data not found")

// Options describes one conversion.
type Options struct {
	SourceData        string
	DestinationFolder string

	// Identity holds explicit identity values; empty fields are derived
	// from the header.
	Identity header.Identity

	ApplyFilter bool
	ScannerType string
	FilterSize  []float64

	// StrictSidecar makes a sidecar write failure fail the run.
	StrictSidecar bool
	Preview       bool

	// Location is the zone ECAT scan times are rendered in (nil = local).
	Location *time.Location
}

// Result reports what a conversion produced.
type Result struct {
	Format      header.Format
	Identity    header.Identity
	Layout      Layout
	NiftiPath   string
	SidecarPath string
	PreviewPath string
	Frames      int
	FilterSize  []float64

	// SidecarErr is set when the sidecar could not be written and
	// StrictSidecar was off.
	SidecarErr error
}

// PromptFunc asks the user for an identity field that could not be derived.
type PromptFunc func(field string) (string, error)

// Pipeline runs conversions with a shared converter and scanner table.
type Pipeline struct {
	Converter converter.Converter
	Scanners  *scanner.Table

	// Prompt, when set, is asked for missing identity fields instead of
	// failing.
	Prompt PromptFunc

	// Out receives progress lines; nil means os.Stdout.
	Out   io.Writer
	Quiet bool

	probeOnce sync.Once
	probeErr  error
	outMu     sync.Mutex
}

// New returns a pipeline using conv and scanners.
func New(conv converter.Converter, scanners *scanner.Table) *Pipeline {
	return &Pipeline{Converter: conv, Scanners: scanners}
}

func (p *Pipeline) printf(format string, args ...any) {
	if p.Quiet {
		return
	}
	p.outMu.Lock()
	defer p.outMu.Unlock()
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, format, args...)
}

// probe checks the converter once for the lifetime of the pipeline.
func (p *Pipeline) probe() error {
	p.probeOnce.Do(func() {
		p.probeErr = p.Converter.Probe()
	})
	return p.probeErr
}

// ResolveFilterSize returns the FWHM to apply: the explicit vector when given,
// otherwise the scanner table entry.
func (p *Pipeline) ResolveFilterSize(opts Options) ([]float64, error) {
	if opts.FilterSize != nil {
		if err := smoothing.ValidateFWHM(opts.FilterSize); err != nil {
			return nil, err
		}
		return append([]float64{}, opts.FilterSize...), nil
	}
	if opts.ScannerType != "" {
		if p.Scanners == nil {
			return nil, fmt.Errorf("%w %q: no scanner table loaded", scanner.ErrUnknownScanner, opts.ScannerType)
		}
		return p.Scanners.Lookup(opts.ScannerType)
	}
	return nil, fmt.Errorf("%w: provide a filter size or a scanner type", smoothing.ErrNoFilterSize)
}

// Run performs one conversion. Identity problems are reported before any
// output directory is created.
func (p *Pipeline) Run(opts Options) (*Result, error) {
	if _, err := os.Stat(opts.SourceData); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, opts.SourceData)
	}
	if err := p.probe(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(opts.SourceData)
	if err != nil {
		return nil, err
	}
	logger := log.WithFields(log.Fields{"source": opts.SourceData, "format": format.String()})

	normalizer, err := loadNormalizer(opts.SourceData, format, opts)
	if err != nil {
		return nil, err
	}
	study, err := normalizer.Normalize()
	if err != nil {
		return nil, fmt.Errorf("normalize %s headers: %w", format, err)
	}
	logger.WithField("frames", len(study.Frames)).Debug("headers normalized")

	identity, err := p.deriveIdentity(study.Seed, opts.Identity)
	if err != nil {
		return nil, err
	}

	var fwhm []float64
	if opts.ApplyFilter {
		if fwhm, err = p.ResolveFilterSize(opts); err != nil {
			return nil, err
		}
	}

	layout := NewLayout(opts.DestinationFolder, identity)
	if err := os.MkdirAll(layout.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result := &Result{
		Format:      format,
		Identity:    identity,
		Layout:      layout,
		SidecarPath: layout.SidecarPath(),
		Frames:      len(study.Frames),
	}

	p.printf("Starting the conversion process...\n")
	niftiPath, err := p.Converter.Convert(opts.SourceData, layout.Dir, layout.Base)
	if err != nil {
		return nil, err
	}
	result.NiftiPath = niftiPath

	if fwhm != nil {
		if err := smoothing.SmoothFile(niftiPath, fwhm); err != nil {
			return nil, fmt.Errorf("smooth image: %w", err)
		}
		result.FilterSize = fwhm
		logger.WithField("fwhm_mm", fwhm).Info("image smoothed")
	}
	p.printf("NIfTI conversion completed successfully.\n")

	if opts.Preview {
		if err := preview.WriteFile(niftiPath, layout.PreviewPath(), identity.Tracer); err != nil {
			logger.WithError(err).Warn("could not write preview image")
		} else {
			result.PreviewPath = layout.PreviewPath()
		}
	}

	p.printf("Generating JSON metadata sidecar file...\n")
	doc := sidecar.Assemble(sidecar.Input{Study: study, Identity: identity, FilterSize: fwhm})
	if err := sidecar.Write(result.SidecarPath, doc); err != nil {
		if opts.StrictSidecar {
			return nil, err
		}
		logger.WithError(err).Error("sidecar was not written")
		p.printf("Error writing sidecar: %v\n", err)
		result.SidecarErr = err
		return result, nil
	}
	p.printf("JSON metadata generation completed.\n")
	return result, nil
}

// deriveIdentity fills missing identity fields from the header, asking the
// prompt for anything still missing.
func (p *Pipeline) deriveIdentity(seed header.Seed, explicit header.Identity) (header.Identity, error) {
	id := explicit
	for {
		derived, err := header.DeriveIdentity(seed, id)
		var missing *header.MissingFieldError
		if err == nil || p.Prompt == nil || !errors.As(err, &missing) {
			return derived, err
		}

		value, perr := p.Prompt(missing.Field)
		if perr != nil {
			return header.Identity{}, fmt.Errorf("prompt for %s: %w", missing.Field, perr)
		}
		if value == "" {
			return header.Identity{}, err
		}
		switch missing.Field {
		case header.FieldSubject:
			id.Subject = value
		case header.FieldSession:
			id.Session = value
		case header.FieldTracer:
			id.Tracer = value
		}
	}
}
