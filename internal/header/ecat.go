package header

import (
	"fmt"
	"time"

	"github.com/mrsinham/pet2nifti/internal/ecat"
)

// ECATHeaders is the ECAT variant: the parsed main header and subheaders.
// Location is the time zone the scan start timestamp is rendered in; nil
// means the local zone.
type ECATHeaders struct {
	File     *ecat.File
	Location *time.Location
}

// Format implements Normalizer.
func (e ECATHeaders) Format() Format { return FormatECAT }

// ScanTimestamp renders the main header scan start time as YYYYMMDDhhmmss.
func (e ECATHeaders) ScanTimestamp() string {
	loc := e.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(int64(e.File.Main.ScanStartTime), 0).In(loc).Format("20060102150405")
}

// Normalize builds one frame record per image subheader.
func (e ECATHeaders) Normalize() (*Study, error) {
	if e.File == nil || len(e.File.Subheaders) == 0 {
		return nil, fmt.Errorf("%w: ECAT file has no image subheaders", ErrInvalidHeader)
	}
	main := e.File.Main
	first := e.File.Subheaders[0]

	frames := make([]FrameRecord, len(e.File.Subheaders))
	for i, sub := range e.File.Subheaders {
		frames[i] = FrameRecord{
			StartMS:     float64(sub.FrameStartTime),
			DurationMS:  float64(sub.FrameDuration),
			DecayFactor: widen(sub.DecayCorrFctr),
		}
	}
	if err := validateFrames(frames); err != nil {
		return nil, err
	}

	stamp := e.ScanTimestamp()
	return &Study{
		Format: FormatECAT,
		Frames: frames,
		Seed: Seed{
			Subject:             main.PatientID,
			StudyDate:           stamp[:8],
			Radiopharmaceutical: main.Radiopharmaceutical,
		},
		// ECAT 7 files come from CTI/Siemens scanners
		Manufacturer:                 "Siemens",
		ManufacturerModelName:        Num(float64(main.SystemType)),
		SoftwareVersions:             Num(float64(main.SWVersion)),
		SeriesDescription:            main.StudyDescription,
		ProtocolName:                 main.StudyDescription,
		ImageType:                    []string{"ORIGINAL", "PRIMARY"},
		SeriesNumber:                 Text(main.SerialNumber),
		StudyDate:                    stamp[:8],
		AcquisitionTime:              stamp[8:],
		Radiopharmaceutical:          main.Radiopharmaceutical,
		RadionuclidePositronFraction: Optional{},
		RadionuclideTotalDose:        Some(widen(main.Dosage)),
		RadionuclideHalfLife:         Some(widen(main.IsotopeHalflife)),
		DoseCalibrationFactor:        Some(widen(main.ECATCalibrationFactor)),
		Units:                        main.DataUnits,
		DecayCorrection:              "START",
		AttenuationCorrectionMethod:  "",
		ReconstructionMethod:         first.Annotation,
		// z_pixel_size is stored in centimetres
		SliceThickness:          Some(widen(first.ZPixelSize) * 10),
		ImageOrientationPatient: []float64{},
	}, nil
}
