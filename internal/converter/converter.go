// Package converter wraps the external dcm2niix tool that turns DICOM and
// ECAT sources into compressed NIfTI images.
package converter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultBinary is the converter looked up on PATH when none is configured.
const DefaultBinary = "dcm2niix"

var (
	ErrEnvironmentNotConfigured = errors.New("dcm2niix is not available")
	ErrExternalToolFailure      = errors.New("dcm2niix conversion failed")
)

// Converter produces <outputDir>/<baseName>.nii.gz from a source path.
type Converter interface {
	// Probe checks that the tool can be run.
	Probe() error
	// Convert runs the conversion and returns the path of the produced image.
	Convert(source, outputDir, baseName string) (string, error)
}

// Dcm2Niix runs the dcm2niix executable.
type Dcm2Niix struct {
	// Binary is the executable name or path.
	Binary string
}

// NewDcm2Niix returns a converter for binary, or DefaultBinary when empty.
func NewDcm2Niix(binary string) *Dcm2Niix {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Dcm2Niix{Binary: binary}
}

// Probe runs "<binary> -h" and fails unless it exits with status zero.
func (d *Dcm2Niix) Probe() error {
	cmd := exec.Command(d.Binary, "-h")
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.WithFields(log.Fields{"binary": d.Binary, "error": err}).Debug("converter probe failed")
		return fmt.Errorf("%w: running %q failed (%v); install it from https://github.com/rordenlab/dcm2niix and make sure it is on PATH", ErrEnvironmentNotConfigured, d.Binary+" -h", err)
	}
	if version := firstLine(out); version != "" {
		log.WithField("version", version).Debug("converter available")
	}
	return nil
}

// Args returns the command-line arguments used for a conversion: no BIDS
// sidecar, gzip compression, output directory and file name.
func Args(source, outputDir, baseName string) []string {
	return []string{"-b", "n", "-z", "y", "-o", outputDir, "-f", baseName, source}
}

// Convert runs dcm2niix. It fails when the process exits non-zero or when
// the expected image was not produced.
func (d *Dcm2Niix) Convert(source, outputDir, baseName string) (string, error) {
	args := Args(source, outputDir, baseName)
	log.WithFields(log.Fields{"binary": d.Binary, "args": strings.Join(args, " ")}).Debug("running converter")

	cmd := exec.Command(d.Binary, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v: %s", ErrExternalToolFailure, err, strings.TrimSpace(output.String()))
	}

	return ExpectOutput(outputDir, baseName)
}

// ExpectOutput returns the path of <outputDir>/<baseName>.nii.gz, failing
// when it does not exist.
func ExpectOutput(outputDir, baseName string) (string, error) {
	path := filepath.Join(outputDir, baseName+".nii.gz")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: expected output %s was not created", ErrExternalToolFailure, path)
	}
	return path, nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
