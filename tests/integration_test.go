package tests

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	internaldicom "github.com/mrsinham/pet2nifti/internal/dicom"
	"github.com/mrsinham/pet2nifti/internal/ecat"
	"github.com/mrsinham/pet2nifti/internal/header"
	"github.com/mrsinham/pet2nifti/internal/nifti"
	"github.com/mrsinham/pet2nifti/internal/pipeline"
	"github.com/mrsinham/pet2nifti/internal/sidecar"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// TestConvert_DICOMSeries runs a complete DICOM conversion
func TestConvert_DICOMSeries(t *testing.T) {
	src := writeDICOMSeries(t, internaldicom.SeriesOptions{
		NumSlices:       5,
		NumFrames:       3,
		Width:           16,
		FrameDurationMS: 300000,
		PatientID:       "INT001",
		StudyDate:       "20230115",
		Seed:            42,
	})
	dest := t.TempDir()

	res, err := newPipeline(t).Run(pipeline.Options{SourceData: src, DestinationFolder: dest})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantDir := filepath.Join(dest, "sub-INT001", "ses-20230115", "FLUDEOXYGLUCOSE ")
	if res.Layout.Dir != wantDir {
		t.Errorf("output dir = %s, want %s", res.Layout.Dir, wantDir)
	}
	for _, p := range []string{res.NiftiPath, res.SidecarPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected output %s: %v", p, err)
		}
	}

	doc, err := sidecar.Read(res.SidecarPath)
	if err != nil {
		t.Fatalf("sidecar.Read failed: %v", err)
	}
	if len(doc.FrameTimesStart) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(doc.FrameTimesStart))
	}
	for i, want := range []float64{0, 5, 10} {
		if doc.FrameTimesStart[i] != want {
			t.Errorf("FrameTimesStart[%d] = %v, want %v", i, doc.FrameTimesStart[i], want)
		}
		if doc.FrameTimesEnd[i] != want+5 {
			t.Errorf("FrameTimesEnd[%d] = %v, want %v", i, doc.FrameTimesEnd[i], want+5)
		}
	}
	if doc.Manufacturer != "SIEMENS" {
		t.Errorf("Manufacturer = %q", doc.Manufacturer)
	}

	t.Logf("✓ DICOM conversion wrote %s", res.NiftiPath)
}

// TestConvert_FrameTimingMatchesHeaders cross-checks sidecar timing with the
// FrameReferenceTime written in the first slice of each frame
func TestConvert_FrameTimingMatchesHeaders(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dicom")
	files, err := internaldicom.GeneratePETSeries(internaldicom.SeriesOptions{
		OutputDir: dir, NumSlices: 3, NumFrames: 4, Width: 16, FrameDurationMS: 120000, Seed: 9, Quiet: true,
	})
	if err != nil {
		t.Fatalf("GeneratePETSeries failed: %v", err)
	}

	res, err := newPipeline(t).Run(pipeline.Options{SourceData: dir, DestinationFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	doc, err := sidecar.Read(res.SidecarPath)
	if err != nil {
		t.Fatalf("sidecar.Read failed: %v", err)
	}

	frameReferenceTime := tag.Tag{Group: 0x0054, Element: 0x1300}
	for _, f := range files {
		if f.Slice != 0 {
			continue
		}
		ds, err := dicom.ParseFile(f.Path, nil)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", f.Path, err)
		}
		elem, err := ds.FindElementByTag(frameReferenceTime)
		if err != nil {
			t.Fatalf("FrameReferenceTime missing in %s", f.Path)
		}
		values, ok := elem.Value.GetValue().([]string)
		if !ok || len(values) == 0 {
			t.Fatalf("unexpected FrameReferenceTime value %v", elem.Value)
		}
		ms, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			t.Fatalf("FrameReferenceTime %q is not numeric", values[0])
		}
		if got := doc.FrameTimesStart[f.Frame]; got != ms/header.MillisecondsPerMinute {
			t.Errorf("frame %d start = %v, header says %v ms", f.Frame, got, ms)
		}
	}
}

// TestConvert_SummedImage reads the frame count from NumberOfTimeSlots
func TestConvert_SummedImage(t *testing.T) {
	src := writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 4, NumFrames: 1, Width: 16, Summed: true, PatientID: "SUM", Seed: 3})

	res, err := newPipeline(t).Run(pipeline.Options{SourceData: src, DestinationFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Frames != 1 {
		t.Errorf("expected 1 frame, got %d", res.Frames)
	}
	doc, err := sidecar.Read(res.SidecarPath)
	if err != nil {
		t.Fatalf("sidecar.Read failed: %v", err)
	}
	if len(doc.ImageType) != 3 || doc.ImageType[2] != "SUMMED" {
		t.Errorf("ImageType = %v", doc.ImageType)
	}
}

// TestConvert_ECATFile runs a complete ECAT conversion
func TestConvert_ECATFile(t *testing.T) {
	src := writeECATFile(t, ecat.SyntheticOptions{NumFrames: 5, NumPlanes: 4, Width: 8, PatientID: "EC042", FrameDurationMS: 30000, Seed: 1})

	res, err := newPipeline(t).Run(pipeline.Options{
		SourceData:        src,
		DestinationFolder: t.TempDir(),
		Identity:          header.Identity{Session: "baseline"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Format != header.FormatECAT {
		t.Errorf("format = %s", res.Format)
	}
	if res.Layout.Base != "sub-EC042_ses-baseline_tracer-RACLOPRIDE _PET" {
		t.Errorf("base name = %q", res.Layout.Base)
	}

	doc, err := sidecar.Read(res.SidecarPath)
	if err != nil {
		t.Fatalf("sidecar.Read failed: %v", err)
	}
	if len(doc.FrameDuration) != 5 || doc.FrameDuration[0] != 0.5 {
		t.Errorf("FrameDuration = %v, want five 0.5 min frames", doc.FrameDuration)
	}
	if math.Abs(doc.SliceThickness.Value-2) > 1e-5 {
		t.Errorf("SliceThickness = %v, want 2 mm", doc.SliceThickness.Value)
	}
	if doc.ReconstructionMethod != "FBP 3D" {
		t.Errorf("ReconstructionMethod = %q", doc.ReconstructionMethod)
	}
}

// TestConvert_SmoothingKeepsGeometry checks the rewritten image keeps its
// shape and affine and that every frame was filtered
func TestConvert_SmoothingKeepsGeometry(t *testing.T) {
	src := writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 2, NumFrames: 3, Width: 16, PatientID: "SM", Seed: 4})

	res, err := newPipeline(t).Run(pipeline.Options{
		SourceData:        src,
		DestinationFolder: t.TempDir(),
		ApplyFilter:       true,
		FilterSize:        []float64{4, 4, 4},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	vol, err := nifti.Load(res.NiftiPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	shape := vol.Shape()
	if len(shape) != 4 || shape[0] != 9 || shape[3] != 3 {
		t.Fatalf("shape = %v, want [9 9 7 3]", shape)
	}
	affine := vol.Affine()
	if affine.At(0, 0) != -2 || affine.At(0, 3) != 90 || affine.At(2, 3) != -60 {
		t.Errorf("affine changed: %v", affine)
	}

	center := func(f int) float64 { return vol.Data[4+9*(4+9*(3+7*f))] }
	for f := 0; f < 3; f++ {
		peak := 1000 * float64(f+1)
		if v := center(f); v <= 0 || v >= peak {
			t.Errorf("frame %d centre = %v, want smoothed below %v", f, v, peak)
		}
	}
	// Frames are filtered independently
	if r := center(1) / center(0); math.Abs(r-2) > 1e-3 {
		t.Errorf("frame 1 / frame 0 centre ratio = %v, want 2", r)
	}
}

// TestConvert_MissingSubject fails before any output exists
func TestConvert_MissingSubject(t *testing.T) {
	src := writeECATFile(t, ecat.SyntheticOptions{NumFrames: 1, NumPlanes: 2, Width: 4})
	dest := filepath.Join(t.TempDir(), "out")

	_, err := newPipeline(t).Run(pipeline.Options{SourceData: src, DestinationFolder: dest})
	if !errors.Is(err, header.ErrMissingIdentityField) {
		t.Fatalf("expected ErrMissingIdentityField, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination %s should not have been created", dest)
	}
}

// TestConvert_IgnoresStrayFiles keeps converting when the series directory
// holds non-DICOM files
func TestConvert_IgnoresStrayFiles(t *testing.T) {
	src := writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 2, NumFrames: 2, Width: 16, PatientID: "STRAY", Seed: 8})
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("scanner log"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := newPipeline(t).Run(pipeline.Options{SourceData: src, DestinationFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", res.Frames)
	}
}

// TestBatch_MixedFormats converts DICOM and ECAT jobs in one batch
func TestBatch_MixedFormats(t *testing.T) {
	dest := t.TempDir()
	jobs := []pipeline.Options{
		{SourceData: writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 2, NumFrames: 2, Width: 16, PatientID: "B1", Seed: 1}), DestinationFolder: dest},
		{SourceData: writeECATFile(t, ecat.SyntheticOptions{NumFrames: 2, NumPlanes: 2, Width: 4, PatientID: "B2"}), DestinationFolder: dest},
		{SourceData: writeDICOMSeries(t, internaldicom.SeriesOptions{NumSlices: 2, NumFrames: 2, Width: 16, PatientID: "B3", Seed: 3}), DestinationFolder: dest, Identity: header.Identity{Run: "2"}},
	}

	results := newPipeline(t).RunBatch(jobs, 3, nil)
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("job %d failed: %v", i, r.Err)
			continue
		}
		if r.Result.SidecarErr != nil {
			t.Errorf("job %d sidecar: %v", i, r.Result.SidecarErr)
		}
	}
	if results[1].Result != nil && results[1].Result.Format != header.FormatECAT {
		t.Errorf("job 1 format = %s", results[1].Result.Format)
	}
	if results[2].Result != nil && results[2].Result.Layout.Base != "sub-B3_ses-20220505_tracer-FLUDEOXYGLUCOSE _run-2_PET" {
		t.Errorf("job 2 base = %s", results[2].Result.Layout.Base)
	}
}
