package header

import (
	"testing"
	"time"

	"github.com/mrsinham/pet2nifti/internal/ecat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ecatFixture() ECATHeaders {
	file := &ecat.File{
		Main: ecat.MainHeader{
			SWVersion:             72,
			SystemType:            962,
			SerialNumber:          "1234",
			ScanStartTime:         uint32(time.Date(2022, 5, 5, 10, 15, 30, 0, time.UTC).Unix()),
			IsotopeHalflife:       6586.2,
			Radiopharmaceutical:   "FDG",
			ECATCalibrationFactor: 1.5,
			PatientID:             "SUBJ02",
			StudyDescription:      "brain dynamic",
			Dosage:                185,
			DataUnits:             "Bq/ml",
		},
	}
	for i := 0; i < 4; i++ {
		file.Subheaders = append(file.Subheaders, ecat.ImageSubheader{
			FrameStartTime: int32(i * 300000),
			FrameDuration:  300000,
			DecayCorrFctr:  1.25,
			ZPixelSize:     0.25,
			Annotation:     "OSEM2D 4i16s",
		})
	}
	return ECATHeaders{File: file, Location: time.UTC}
}

func TestECATHeaders_Normalize(t *testing.T) {
	h := ecatFixture()
	study, err := h.Normalize()
	require.NoError(t, err)

	assert.Equal(t, FormatECAT, study.Format)
	assert.Equal(t, "20220505101530", h.ScanTimestamp())
	assert.Equal(t, Seed{Subject: "SUBJ02", StudyDate: "20220505", Radiopharmaceutical: "FDG"}, study.Seed)
	assert.Equal(t, "20220505", study.StudyDate)
	assert.Equal(t, "101530", study.AcquisitionTime)
	assert.Equal(t, Num(962), study.ManufacturerModelName)
	assert.Equal(t, Num(72), study.SoftwareVersions)
	assert.Equal(t, "brain dynamic", study.SeriesDescription)
	assert.Equal(t, "brain dynamic", study.ProtocolName)
	assert.Equal(t, []string{"ORIGINAL", "PRIMARY"}, study.ImageType)
	assert.Equal(t, Text("1234"), study.SeriesNumber)
	assert.Equal(t, Some(6586.2), study.RadionuclideHalfLife)
	assert.Equal(t, "START", study.DecayCorrection)
	assert.Equal(t, "OSEM2D 4i16s", study.ReconstructionMethod)
	assert.False(t, study.RadionuclidePositronFraction.Valid)
	assert.Equal(t, Some(185), study.RadionuclideTotalDose)
	assert.Equal(t, Some(1.5), study.DoseCalibrationFactor)
	assert.Equal(t, Some(2.5), study.SliceThickness)
	assert.Empty(t, study.ImageOrientationPatient)
	assert.NotNil(t, study.ImageOrientationPatient)

	require.Len(t, study.Frames, 4)
	for i, f := range study.Frames {
		assert.Equal(t, float64(i)*5, f.StartMinutes())
		assert.Equal(t, 5.0, f.DurationMinutes())
		assert.Equal(t, 1.25, f.DecayFactor)
	}
}

func TestECATHeaders_Float32FieldsKeepShortForm(t *testing.T) {
	h := ecatFixture()
	h.File.Main.Dosage = 370.1
	h.File.Subheaders[0].DecayCorrFctr = 1.0123

	study, err := h.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Some(370.1), study.RadionuclideTotalDose)
	assert.Equal(t, 1.0123, study.Frames[0].DecayFactor)
}

func TestECATHeaders_LocationShiftsDate(t *testing.T) {
	h := ecatFixture()
	h.File.Main.ScanStartTime = uint32(time.Date(2022, 5, 5, 23, 30, 0, 0, time.UTC).Unix())
	h.Location = time.FixedZone("UTC+2", 2*3600)

	assert.Equal(t, "20220506013000", h.ScanTimestamp())
}

func TestECATHeaders_NoFrames(t *testing.T) {
	_, err := ECATHeaders{}.Normalize()
	assert.ErrorIs(t, err, ErrInvalidHeader)

	h := ecatFixture()
	h.File.Subheaders = nil
	_, err = h.Normalize()
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestNormalizerVariants(t *testing.T) {
	for _, n := range []Normalizer{DICOMHeaders{}, ECATHeaders{}} {
		assert.NotEqual(t, FormatUnknown, n.Format())
	}
	assert.Equal(t, "dicom", FormatDICOM.String())
	assert.Equal(t, "ecat", FormatECAT.String())

	f, err := ParseFormat("ECAT")
	require.NoError(t, err)
	assert.Equal(t, FormatECAT, f)
	_, err = ParseFormat("analyze")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
