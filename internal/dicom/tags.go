package dicom

import "github.com/suyashkumar/dicom/pkg/tag"

// petTag binds an attribute keyword to its DICOM tag.
type petTag struct {
	Keyword string
	Tag     tag.Tag
}

// PET-specific attributes, addressed by group/element.
var (
	tagRadiopharmaceuticalInformationSequence = tag.Tag{Group: 0x0054, Element: 0x0016}
	tagNumberOfTimeSlots                      = tag.Tag{Group: 0x0054, Element: 0x0071}
	tagNumberOfSlices                         = tag.Tag{Group: 0x0054, Element: 0x0081}
	tagNumberOfTimeSlices                     = tag.Tag{Group: 0x0054, Element: 0x0101}
	tagUnits                                  = tag.Tag{Group: 0x0054, Element: 0x1001}
	tagAttenuationCorrectionMethod            = tag.Tag{Group: 0x0054, Element: 0x1101}
	tagDecayCorrection                        = tag.Tag{Group: 0x0054, Element: 0x1102}
	tagReconstructionMethod                   = tag.Tag{Group: 0x0054, Element: 0x1103}
	tagFrameReferenceTime                     = tag.Tag{Group: 0x0054, Element: 0x1300}
	tagDecayFactor                            = tag.Tag{Group: 0x0054, Element: 0x1321}
	tagDoseCalibrationFactor                  = tag.Tag{Group: 0x0054, Element: 0x1322}
	tagActualFrameDuration                    = tag.Tag{Group: 0x0018, Element: 0x1242}
	tagRadiopharmaceutical                    = tag.Tag{Group: 0x0018, Element: 0x0031}
	tagRadiopharmaceuticalStartTime           = tag.Tag{Group: 0x0018, Element: 0x1072}
	tagRadionuclideTotalDose                  = tag.Tag{Group: 0x0018, Element: 0x1074}
	tagRadionuclideHalfLife                   = tag.Tag{Group: 0x0018, Element: 0x1075}
	tagRadionuclidePositronFraction           = tag.Tag{Group: 0x0018, Element: 0x1076}
)

// sliceTags are read from the top level of every slice.
var sliceTags = []petTag{
	{"PatientID", tag.PatientID},
	{"PatientName", tag.PatientName},
	{"StudyDate", tag.StudyDate},
	{"AcquisitionTime", tag.AcquisitionTime},
	{"Modality", tag.Modality},
	{"InstanceNumber", tag.InstanceNumber},
	{"Manufacturer", tag.Manufacturer},
	{"ManufacturerModelName", tag.ManufacturerModelName},
	{"SoftwareVersions", tag.SoftwareVersions},
	{"SeriesDescription", tag.SeriesDescription},
	{"ProtocolName", tag.ProtocolName},
	{"ImageType", tag.ImageType},
	{"SeriesNumber", tag.SeriesNumber},
	{"SliceThickness", tag.SliceThickness},
	{"ImageOrientationPatient", tag.ImageOrientationPatient},
	{"Units", tagUnits},
	{"DecayCorrection", tagDecayCorrection},
	{"AttenuationCorrectionMethod", tagAttenuationCorrectionMethod},
	{"ReconstructionMethod", tagReconstructionMethod},
	{"NumberOfSlices", tagNumberOfSlices},
	{"NumberOfTimeSlices", tagNumberOfTimeSlices},
	{"NumberOfTimeSlots", tagNumberOfTimeSlots},
	{"FrameReferenceTime", tagFrameReferenceTime},
	{"ActualFrameDuration", tagActualFrameDuration},
	{"DecayFactor", tagDecayFactor},
	{"DoseCalibrationFactor", tagDoseCalibrationFactor},
}

// radiopharmaceuticalTags are read from the first item of the
// radiopharmaceutical information sequence.
var radiopharmaceuticalTags = map[tag.Tag]string{
	tagRadiopharmaceutical:          "Radiopharmaceutical",
	tagRadiopharmaceuticalStartTime: "RadiopharmaceuticalStartTime",
	tagRadionuclideTotalDose:        "RadionuclideTotalDose",
	tagRadionuclideHalfLife:         "RadionuclideHalfLife",
	tagRadionuclidePositronFraction: "RadionuclidePositronFraction",
}
