package dicom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/pet2nifti/internal/dicom/edgecases"
	"github.com/mrsinham/pet2nifti/internal/dicom/vendortags"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePETSeries_RoundTripThroughReader(t *testing.T) {
	dir := t.TempDir()
	files, err := GeneratePETSeries(SeriesOptions{
		OutputDir:       dir,
		NumSlices:       3,
		NumFrames:       2,
		Width:           32,
		FrameDurationMS: 120000,
		PatientID:       "SUBJ01",
		Seed:            42,
		Workers:         2,
		Quiet:           true,
	})
	require.NoError(t, err)
	require.Len(t, files, 6)
	for i, f := range files {
		assert.Equal(t, i+1, f.InstanceNumber)
		assert.FileExists(t, f.Path)
	}

	ok, err := HasDICOMFiles(dir)
	require.NoError(t, err)
	assert.True(t, ok)

	slices, err := ReadHeaders(dir)
	require.NoError(t, err)
	require.Len(t, slices, 6)

	first := slices[0]
	assert.Equal(t, "SUBJ01", first.String("PatientID"))
	assert.Equal(t, "20220505", first.String("StudyDate"))
	assert.Equal(t, "PT", first.String("Modality"))
	assert.Equal(t, "Fludeoxyglucose [18F]", first.String("Radiopharmaceutical"))
	assert.Equal(t, "6586.2", first.String("RadionuclideHalfLife"))
	assert.Equal(t, "3", first.String("NumberOfSlices"))
	assert.Equal(t, "2", first.String("NumberOfTimeSlices"))
	assert.Equal(t, "120000", first.String("ActualFrameDuration"))
	assert.Equal(t, []string{"ORIGINAL", "PRIMARY"}, first.Strings("ImageType"))

	study, err := slices.Normalize()
	require.NoError(t, err)
	require.Len(t, study.Frames, 2)
	assert.Equal(t, 0.0, study.Frames[0].StartMinutes())
	assert.Equal(t, 2.0, study.Frames[1].StartMinutes())
	assert.Equal(t, 2.0, study.Frames[1].DurationMinutes())
	assert.Equal(t, "SIEMENS", study.Manufacturer)
}

func TestGeneratePETSeries_EdgeCases(t *testing.T) {
	dir := t.TempDir()
	_, err := GeneratePETSeries(SeriesOptions{
		OutputDir: dir,
		NumSlices: 2,
		NumFrames: 2,
		Width:     16,
		PatientID: "EDGE01",
		Seed:      11,
		Quiet:     true,
		EdgeCases: []edgecases.EdgeCaseType{edgecases.MissingTags, edgecases.SpecialChars, edgecases.OldDates},
	})
	require.NoError(t, err)

	slices, err := ReadHeaders(dir)
	require.NoError(t, err)
	first := slices[0]

	missing := 0
	for _, keyword := range edgecases.OptionalTags {
		if first.String(keyword) == "" {
			missing++
		}
	}
	assert.Positive(t, missing)
	assert.NotEqual(t, "Fludeoxyglucose [18F]", first.String("Radiopharmaceutical"))
	assert.Contains(t, first.String("Radiopharmaceutical"), "[")
	assert.Less(t, first.String("StudyDate"), "20000101")
	assert.Equal(t, "EDGE01", first.String("PatientID"))

	study, err := slices.Normalize()
	require.NoError(t, err)
	assert.Len(t, study.Frames, 2)
}

func TestGeneratePETSeries_VendorTags(t *testing.T) {
	dir := t.TempDir()
	_, err := GeneratePETSeries(SeriesOptions{
		OutputDir:  dir,
		NumSlices:  2,
		NumFrames:  2,
		Width:      16,
		PatientID:  "PRIV01",
		Seed:       12,
		Quiet:      true,
		VendorTags: vendortags.AllVendors(),
	})
	require.NoError(t, err)

	ds, err := dicom.ParseFile(filepath.Join(dir, "IMG00001.dcm"), nil, dicom.SkipPixelData())
	require.NoError(t, err)
	creator, err := ds.FindElementByTag(tag.Tag{Group: 0x0009, Element: 0x0010})
	require.NoError(t, err)
	assert.Equal(t, []string{"GEMS_PETD_01"}, creator.Value.GetValue())

	slices, err := ReadHeaders(dir)
	require.NoError(t, err)
	assert.Equal(t, "PRIV01", slices[0].String("PatientID"))
	_, err = slices.Normalize()
	require.NoError(t, err)
}

func TestGeneratePETSeries_Summed(t *testing.T) {
	dir := t.TempDir()
	_, err := GeneratePETSeries(SeriesOptions{OutputDir: dir, NumSlices: 2, NumFrames: 1, Width: 16, Summed: true, Quiet: true, Seed: 7})
	require.NoError(t, err)

	slices, err := ReadHeaders(dir)
	require.NoError(t, err)
	assert.Contains(t, slices[0].Strings("ImageType"), "SUMMED")
	assert.Equal(t, "1", slices[0].String("NumberOfTimeSlots"))
	assert.False(t, slices[0].Has("NumberOfTimeSlices"))
}

func TestGeneratePETSeries_Deterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	opts := SeriesOptions{NumSlices: 1, NumFrames: 1, Width: 16, Seed: 99, Quiet: true}

	opts.OutputDir = a
	_, err := GeneratePETSeries(opts)
	require.NoError(t, err)
	opts.OutputDir = b
	_, err = GeneratePETSeries(opts)
	require.NoError(t, err)

	ha, err := ReadHeaders(a)
	require.NoError(t, err)
	hb, err := ReadHeaders(b)
	require.NoError(t, err)
	assert.Equal(t, ha[0].String("PatientID"), hb[0].String("PatientID"))
	assert.Equal(t, ha[0].String("PatientName"), hb[0].String("PatientName"))
}

func TestReadHeaders_SkipsNonDICOM(t *testing.T) {
	dir := t.TempDir()
	_, err := GeneratePETSeries(SeriesOptions{OutputDir: dir, NumSlices: 2, NumFrames: 1, Width: 16, Quiet: true, Seed: 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	slices, err := ReadHeaders(dir)
	require.NoError(t, err)
	assert.Len(t, slices, 2)
}

func TestReadHeaders_NoDICOM(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.v"), []byte("not dicom"), 0644))

	ok, err := HasDICOMFiles(dir)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ReadHeaders(dir)
	assert.Error(t, err)

	_, err = HasDICOMFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
