// Package sidecar assembles and writes the JSON metadata document that
// accompanies each converted NIfTI image.
package sidecar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mrsinham/pet2nifti/internal/header"
)

const (
	// ConversionSoftware names the external converter.
	ConversionSoftware = "dcm2niix"

	// ConversionSoftwareVersion is the converter version the output layout
	// was validated against.
	ConversionSoftwareVersion = "v1.0.20220505"

	// ToolVersion is recorded as Pet2NiftiVersion.
	ToolVersion = "0.1.0"
)

// Number is a numeric field that marshals as a JSON number when valid and
// as the empty string when the header had no value.
type Number struct {
	Value float64
	Valid bool
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte(`""`), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`""`)) || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("number field: %q is not numeric", s)
		}
		*n = Number{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// Scalar is a descriptive field written as a JSON number or string
// depending on how the source header stores it.
type Scalar header.Value

// MarshalJSON implements json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.Numeric {
		return json.Marshal(s.Number)
	}
	return json.Marshal(s.Text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Scalar{Text: text}
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Scalar{Number: v, Numeric: true}
	return nil
}

func fromOptional(o header.Optional) Number {
	return Number{Value: o.Value, Valid: o.Valid}
}

// Document is the sidecar. Field order is the order written to disk.
type Document struct {
	Modality                     string    `json:"Modality"`
	ImagingFrequency             int       `json:"ImagingFrequency"`
	Manufacturer                 string    `json:"Manufacturer"`
	ManufacturersModelName       Scalar    `json:"ManufacturersModelName"`
	PatientPosition              string    `json:"PatientPosition"`
	ProcedureStepDescription     string    `json:"ProcedureStepDescription"`
	SoftwareVersions             Scalar    `json:"SoftwareVersions"`
	SeriesDescription            string    `json:"SeriesDescription"`
	ProtocolName                 string    `json:"ProtocolName"`
	ImageType                    []string  `json:"ImageType"`
	SeriesNumber                 Scalar    `json:"SeriesNumber"`
	StudyDate                    string    `json:"StudyDate"`
	AcquisitionTime              string    `json:"AcquisitionTime"`
	Radiopharmaceutical          string    `json:"Radiopharmaceutical"`
	RadionuclidePositronFraction Number    `json:"RadionuclidePositronFraction"`
	RadionuclideTotalDose        Number    `json:"RadionuclideTotalDose"`
	RadionuclideHalfLife         Number    `json:"RadionuclideHalfLife"`
	DoseCalibrationFactor        Number    `json:"DoseCalibrationFactor"`
	Units                        string    `json:"Units"`
	DecayCorrection              string    `json:"DecayCorrection"`
	AttenuationCorrectionMethod  string    `json:"AttenuationCorrectionMethod"`
	ReconstructionMethod         string    `json:"ReconstructionMethod"`
	DecayFactor                  []float64 `json:"DecayFactor"`
	FrameTimesStart              []float64 `json:"FrameTimesStart"`
	FrameDuration                []float64 `json:"FrameDuration"`
	FrameTimesEnd                []float64 `json:"FrameTimesEnd"`
	SliceThickness               Number    `json:"SliceThickness"`
	ImageOrientationPatientDICOM []float64 `json:"ImageOrientationPatientDICOM"`
	ConversionSoftware           string    `json:"ConversionSoftware"`
	ConversionSoftwareVersion    string    `json:"ConversionSoftwareVersion"`
	Pet2NiftiVersion             string    `json:"Pet2NiftiVersion"`
	Smoothed                     string    `json:"Smoothed"`
	FilterSize                   []float64 `json:"FilterSize"`
}

// Input is everything the assembler needs.
type Input struct {
	Study *header.Study

	// Identity is the resolved study identity. Its tracer, not the raw
	// header string, is recorded as Radiopharmaceutical.
	Identity header.Identity

	// FilterSize is the FWHM (mm) actually applied, or nil when the image
	// was not smoothed.
	FilterSize []float64
}

// Assemble builds the sidecar for a normalized study. The four per-frame
// arrays always have one entry per frame.
func Assemble(in Input) Document {
	s := in.Study
	doc := Document{
		Modality:                     "PT",
		ImagingFrequency:             0,
		Manufacturer:                 s.Manufacturer,
		ManufacturersModelName:       Scalar(s.ManufacturerModelName),
		PatientPosition:              "HFS",
		ProcedureStepDescription:     "",
		SoftwareVersions:             Scalar(s.SoftwareVersions),
		SeriesDescription:            s.SeriesDescription,
		ProtocolName:                 s.ProtocolName,
		ImageType:                    nonNilStrings(s.ImageType),
		SeriesNumber:                 Scalar(s.SeriesNumber),
		StudyDate:                    s.StudyDate,
		AcquisitionTime:              s.AcquisitionTime,
		Radiopharmaceutical:          in.Identity.Tracer,
		RadionuclidePositronFraction: fromOptional(s.RadionuclidePositronFraction),
		RadionuclideTotalDose:        fromOptional(s.RadionuclideTotalDose),
		RadionuclideHalfLife:         fromOptional(s.RadionuclideHalfLife),
		DoseCalibrationFactor:        fromOptional(s.DoseCalibrationFactor),
		Units:                        s.Units,
		DecayCorrection:              s.DecayCorrection,
		AttenuationCorrectionMethod:  s.AttenuationCorrectionMethod,
		ReconstructionMethod:         s.ReconstructionMethod,
		DecayFactor:                  make([]float64, len(s.Frames)),
		FrameTimesStart:              make([]float64, len(s.Frames)),
		FrameDuration:                make([]float64, len(s.Frames)),
		FrameTimesEnd:                make([]float64, len(s.Frames)),
		SliceThickness:               fromOptional(s.SliceThickness),
		ImageOrientationPatientDICOM: nonNilFloats(s.ImageOrientationPatient),
		ConversionSoftware:           ConversionSoftware,
		ConversionSoftwareVersion:    ConversionSoftwareVersion,
		Pet2NiftiVersion:             ToolVersion,
		Smoothed:                     "no",
		FilterSize:                   []float64{},
	}

	for i, f := range s.Frames {
		doc.DecayFactor[i] = f.DecayFactor
		doc.FrameTimesStart[i] = f.StartMinutes()
		doc.FrameDuration[i] = f.DurationMinutes()
		doc.FrameTimesEnd[i] = f.EndMinutes()
	}

	if in.FilterSize != nil {
		doc.Smoothed = "yes"
		doc.FilterSize = append([]float64{}, in.FilterSize...)
	}
	return doc
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return append([]string{}, v...)
}

func nonNilFloats(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return append([]float64{}, v...)
}

// Marshal renders doc as UTF-8 JSON indented with four spaces.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write marshals doc and writes it to path.
func Write(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// Read loads a sidecar written by Write.
func Read(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	return doc, nil
}
