package header

import (
	"fmt"
	"slices"
	"sort"
)

// DICOMHeaders is the DICOM variant: one Attributes per slice file. Entries
// of the radiopharmaceutical information sequence are expected to be
// flattened into each slice's attributes.
type DICOMHeaders []Attributes

// Format implements Normalizer.
func (d DICOMHeaders) Format() Format { return FormatDICOM }

// Normalize sorts slices by InstanceNumber and takes the first slice of
// every time frame as that frame's record.
func (d DICOMHeaders) Normalize() (*Study, error) {
	if len(d) == 0 {
		return nil, fmt.Errorf("%w: no DICOM slices", ErrInvalidHeader)
	}

	sorted, err := sortByInstanceNumber(d)
	if err != nil {
		return nil, err
	}
	first := sorted[0]

	nslices, err := first.Int("NumberOfSlices", 0)
	if err != nil {
		return nil, err
	}
	if nslices <= 0 {
		return nil, fmt.Errorf("%w: NumberOfSlices is missing or not positive", ErrInvalidHeader)
	}

	// Summed series report their frame count in NumberOfTimeSlots
	frameKey := "NumberOfTimeSlices"
	if slices.Contains(first.Strings("ImageType"), "SUMMED") {
		frameKey = "NumberOfTimeSlots"
	}
	nframes, err := first.Int(frameKey, 1)
	if err != nil {
		return nil, err
	}
	if nframes <= 0 {
		nframes = 1
	}

	total := nslices * nframes
	if total > len(sorted) {
		return nil, fmt.Errorf("%w: %d slices x %d frames expected, only %d files found", ErrInvalidHeader, nslices, nframes, len(sorted))
	}

	frames := make([]FrameRecord, 0, nframes)
	for i := 0; i < total; i += nslices {
		rec, err := dicomFrame(sorted[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(frames)+1, err)
		}
		frames = append(frames, rec)
	}
	if err := validateFrames(frames); err != nil {
		return nil, err
	}

	study := &Study{
		Format: FormatDICOM,
		Frames: frames,
		Seed: Seed{
			Subject:             first.String("PatientID"),
			StudyDate:           first.String("StudyDate"),
			Radiopharmaceutical: first.String("Radiopharmaceutical"),
		},
		Manufacturer:                first.String("Manufacturer"),
		ManufacturerModelName:       Text(first.String("ManufacturerModelName")),
		SoftwareVersions:            Text(first.String("SoftwareVersions")),
		SeriesDescription:           first.String("SeriesDescription"),
		ProtocolName:                first.String("ProtocolName"),
		ImageType:                   append([]string{}, first.Strings("ImageType")...),
		StudyDate:                   first.String("StudyDate"),
		AcquisitionTime:             first.String("AcquisitionTime"),
		Radiopharmaceutical:         first.String("Radiopharmaceutical"),
		Units:                       first.String("Units"),
		DecayCorrection:             first.String("DecayCorrection"),
		AttenuationCorrectionMethod: first.String("AttenuationCorrectionMethod"),
		ReconstructionMethod:        first.String("ReconstructionMethod"),
	}

	optionals := []struct {
		keyword string
		dst     *Optional
	}{
		{"RadionuclidePositronFraction", &study.RadionuclidePositronFraction},
		{"RadionuclideTotalDose", &study.RadionuclideTotalDose},
		{"RadionuclideHalfLife", &study.RadionuclideHalfLife},
		{"SliceThickness", &study.SliceThickness},
	}
	for _, o := range optionals {
		if *o.dst, err = first.Optional(o.keyword); err != nil {
			return nil, err
		}
	}

	// SeriesNumber is an IS element
	series, err := first.Optional("SeriesNumber")
	if err != nil {
		return nil, err
	}
	if series.Valid {
		study.SeriesNumber = Num(series.Value)
	}

	calibration, err := first.Float("DoseCalibrationFactor", 1)
	if err != nil {
		return nil, err
	}
	study.DoseCalibrationFactor = Some(calibration)

	if study.ImageOrientationPatient, err = first.Floats("ImageOrientationPatient"); err != nil {
		return nil, err
	}
	return study, nil
}

func dicomFrame(a Attributes) (FrameRecord, error) {
	decay, err := a.Float("DecayFactor", 1)
	if err != nil {
		return FrameRecord{}, err
	}
	// Absent timing counts as zero
	start, err := a.Float("FrameReferenceTime", 0)
	if err != nil {
		return FrameRecord{}, err
	}
	duration, err := a.Float("ActualFrameDuration", 0)
	if err != nil {
		return FrameRecord{}, err
	}
	return FrameRecord{StartMS: start, DurationMS: duration, DecayFactor: decay}, nil
}

func sortByInstanceNumber(in DICOMHeaders) (DICOMHeaders, error) {
	type keyed struct {
		n int
		a Attributes
	}
	items := make([]keyed, len(in))
	for i, a := range in {
		n, err := a.Int("InstanceNumber", 0)
		if err != nil {
			return nil, err
		}
		items[i] = keyed{n: n, a: a}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].n < items[j].n })

	out := make(DICOMHeaders, len(items))
	for i, it := range items {
		out[i] = it.a
	}
	return out, nil
}
