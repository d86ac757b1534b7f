// Package header normalizes DICOM and ECAT PET headers into a single
// canonical study description: per-frame timing records, identity seed
// values and the descriptive fields the sidecar reports.
package header

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MillisecondsPerMinute is the divisor applied to raw millisecond frame
// timings before they are written to the sidecar.
const MillisecondsPerMinute = 60000.0

var (
	ErrUnsupportedFormat    = errors.New("unsupported input format")
	ErrMissingIdentityField = errors.New("missing identity field")
	ErrInvalidHeader        = errors.New("invalid header")
)

// Format identifies the on-disk layout of the source data.
type Format int

const (
	FormatUnknown Format = iota
	FormatDICOM
	FormatECAT
)

// String returns the lowercase name of the format.
func (f Format) String() string {
	switch f {
	case FormatDICOM:
		return "dicom"
	case FormatECAT:
		return "ecat"
	default:
		return "unknown"
	}
}

// ParseFormat parses "dicom" or "ecat" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dicom", "dcm":
		return FormatDICOM, nil
	case "ecat", "v":
		return FormatECAT, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q (valid: dicom, ecat)", ErrUnsupportedFormat, s)
	}
}

// Optional is a numeric header value that may be absent.
type Optional struct {
	Value float64
	Valid bool
}

// Some returns a present Optional.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// Value is a descriptive header value that keeps the type the source format
// stores it with, so numeric fields stay numbers in the sidecar.
type Value struct {
	Text    string
	Number  float64
	Numeric bool
}

// Text returns a textual Value.
func Text(s string) Value {
	return Value{Text: s}
}

// Num returns a numeric Value.
func Num(v float64) Value {
	return Value{Number: v, Numeric: true}
}

// String renders v the way it is written to the sidecar.
func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	}
	return v.Text
}

// widen converts a float32 header field to float64 using its shortest
// float32 decimal form, so 370.1 stays 370.1 instead of 370.1000061035156.
func widen(f float32) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	return v
}

// FrameRecord describes one time frame. Start and duration are kept in the
// milliseconds the scanner reports.
type FrameRecord struct {
	StartMS     float64
	DurationMS  float64
	DecayFactor float64
}

// StartMinutes is the frame start divided by MillisecondsPerMinute.
func (f FrameRecord) StartMinutes() float64 {
	return f.StartMS / MillisecondsPerMinute
}

// DurationMinutes is the frame duration divided by MillisecondsPerMinute.
func (f FrameRecord) DurationMinutes() float64 {
	return f.DurationMS / MillisecondsPerMinute
}

// EndMinutes is (start + duration) divided by MillisecondsPerMinute.
func (f FrameRecord) EndMinutes() float64 {
	return (f.StartMS + f.DurationMS) / MillisecondsPerMinute
}

// Seed holds the header values participant identity is derived from.
type Seed struct {
	Subject             string
	StudyDate           string
	Radiopharmaceutical string
}

// Study is the canonical, format-independent view of one acquisition.
type Study struct {
	Format Format
	Frames []FrameRecord
	Seed   Seed

	Manufacturer          string
	ManufacturerModelName Value
	SoftwareVersions      Value
	SeriesDescription     string
	ProtocolName          string
	ImageType             []string
	SeriesNumber          Value
	StudyDate             string
	AcquisitionTime       string

	Radiopharmaceutical          string
	RadionuclidePositronFraction Optional
	RadionuclideTotalDose        Optional
	RadionuclideHalfLife         Optional
	DoseCalibrationFactor        Optional

	Units                       string
	DecayCorrection             string
	AttenuationCorrectionMethod string
	ReconstructionMethod        string

	// SliceThickness is in millimetres.
	SliceThickness          Optional
	ImageOrientationPatient []float64
}

// Normalizer turns one raw header variant into a Study.
type Normalizer interface {
	Format() Format
	Normalize() (*Study, error)
}

func validateFrames(frames []FrameRecord) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrInvalidHeader)
	}
	for i, f := range frames {
		if f.StartMS < 0 || f.DurationMS < 0 {
			return fmt.Errorf("%w: frame %d has negative timing (start=%g ms, duration=%g ms)", ErrInvalidHeader, i+1, f.StartMS, f.DurationMS)
		}
	}
	return nil
}
