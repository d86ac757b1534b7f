package edgecases

import "math/rand/v2"

// OptionalTags lists PET attributes a series can lack and still convert.
// The radionuclide entries live inside the radiopharmaceutical sequence.
var OptionalTags = []string{
	"RadionuclidePositronFraction",
	"RadionuclideTotalDose",
	"RadionuclideHalfLife",
	"DoseCalibrationFactor",
	"SliceThickness",
	"SoftwareVersions",
	"ProtocolName",
	"SeriesDescription",
}

// SelectTagsToOmit randomly selects which optional tags to omit
func SelectTagsToOmit(rng *rand.Rand, count int) []string {
	if count >= len(OptionalTags) {
		return append([]string{}, OptionalTags...)
	}
	indices := rng.Perm(len(OptionalTags))
	result := make([]string, count)
	for i := 0; i < count; i++ {
		result[i] = OptionalTags[indices[i]]
	}
	return result
}
