package tests

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"strings"
	"testing"

	internaldicom "github.com/mrsinham/pet2nifti/internal/dicom"
	"github.com/mrsinham/pet2nifti/internal/ecat"
	"github.com/mrsinham/pet2nifti/internal/pipeline"
)

var sidecarFieldOrder = []string{
	"Modality", "ImagingFrequency", "Manufacturer", "ManufacturersModelName",
	"PatientPosition", "ProcedureStepDescription", "SoftwareVersions",
	"SeriesDescription", "ProtocolName", "ImageType", "SeriesNumber",
	"StudyDate", "AcquisitionTime", "Radiopharmaceutical",
	"RadionuclidePositronFraction", "RadionuclideTotalDose",
	"RadionuclideHalfLife", "DoseCalibrationFactor", "Units",
	"DecayCorrection", "AttenuationCorrectionMethod", "ReconstructionMethod",
	"DecayFactor", "FrameTimesStart", "FrameDuration", "FrameTimesEnd",
	"SliceThickness", "ImageOrientationPatientDICOM", "ConversionSoftware",
	"ConversionSoftwareVersion", "Pet2NiftiVersion", "Smoothed", "FilterSize",
}

// TestValidation_SidecarSchema checks field order and formatting for both
// source formats
func TestValidation_SidecarSchema(t *testing.T) {
	sources := map[string]func(t *testing.T) string{
		"dicom": func(t *testing.T) string {
			return writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 2, NumFrames: 2, Width: 16, PatientID: "V1", Seed: 2})
		},
		"ecat": func(t *testing.T) string {
			return writeECATFile(t, ecat.SyntheticOptions{NumFrames: 2, NumPlanes: 2, Width: 4, PatientID: "V2"})
		},
	}

	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			res, err := newPipeline(t).Run(pipeline.Options{SourceData: source(t), DestinationFolder: t.TempDir()})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			keys, err := sidecarKeys(res.SidecarPath)
			if err != nil {
				t.Fatalf("reading sidecar keys: %v", err)
			}
			if strings.Join(keys, ",") != strings.Join(sidecarFieldOrder, ",") {
				t.Errorf("sidecar keys out of order:\n got  %v\n want %v", keys, sidecarFieldOrder)
			}

			raw, err := os.ReadFile(res.SidecarPath)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(raw, []byte("{\n    \"Modality\": \"PT\",")) {
				t.Errorf("sidecar is not indented with four spaces:\n%s", raw[:40])
			}
			if !json.Valid(raw) {
				t.Error("sidecar is not valid JSON")
			}
		})
	}
}

// TestValidation_PlaceholderFields checks absent numeric values are written
// as empty strings
func TestValidation_PlaceholderFields(t *testing.T) {
	src := writeECATFile(t, ecat.SyntheticOptions{NumFrames: 1, NumPlanes: 2, Width: 4, PatientID: "PH"})
	res, err := newPipeline(t).Run(pipeline.Options{SourceData: src, DestinationFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var fields map[string]json.RawMessage
	raw, err := os.ReadFile(res.SidecarPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}

	checks := map[string]string{
		"RadionuclidePositronFraction": `""`,
		"RadionuclideHalfLife":         `1221.5`,
		"ImageOrientationPatientDICOM": `[]`,
		"FilterSize":                   `[]`,
		"Smoothed":                     `"no"`,
		"PatientPosition":              `"HFS"`,
		"ImagingFrequency":             `0`,
		"ConversionSoftware":           `"dcm2niix"`,
		"ManufacturersModelName":       `328`,
		"SoftwareVersions":             `72`,
		"SeriesNumber":                 `"1"`,
	}
	for key, want := range checks {
		if got := string(fields[key]); got != want {
			t.Errorf("%s = %s, want %s", key, got, want)
		}
	}
}

// TestValidation_PerFrameArrays checks the four timing arrays line up
func TestValidation_PerFrameArrays(t *testing.T) {
	src := writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 3, NumFrames: 6, Width: 16, PatientID: "PF", Seed: 6})
	res, err := newPipeline(t).Run(pipeline.Options{SourceData: src, DestinationFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var doc struct {
		DecayFactor     []float64
		FrameTimesStart []float64
		FrameDuration   []float64
		FrameTimesEnd   []float64
	}
	raw, err := os.ReadFile(res.SidecarPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}

	n := len(doc.FrameTimesStart)
	if n != 6 || len(doc.DecayFactor) != n || len(doc.FrameDuration) != n || len(doc.FrameTimesEnd) != n {
		t.Fatalf("per-frame arrays have mismatched lengths: %d %d %d %d",
			len(doc.DecayFactor), len(doc.FrameTimesStart), len(doc.FrameDuration), len(doc.FrameTimesEnd))
	}
	for i := 0; i < n; i++ {
		if math.Abs(doc.FrameTimesEnd[i]-(doc.FrameTimesStart[i]+doc.FrameDuration[i])) > 1e-9 {
			t.Errorf("frame %d: end %v != start %v + duration %v", i, doc.FrameTimesEnd[i], doc.FrameTimesStart[i], doc.FrameDuration[i])
		}
		if i > 0 && doc.DecayFactor[i] < doc.DecayFactor[i-1] {
			t.Errorf("decay factor decreased at frame %d", i)
		}
	}
}
