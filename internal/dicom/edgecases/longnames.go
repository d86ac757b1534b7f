package edgecases

import (
	"math/rand/v2"
	"strings"
)

// DICOMLOMaxLength is the maximum length of LO and PN components.
const DICOMLOMaxLength = 64

var longLastNames = []string{
	"ALEXANDROPOULOSWILLIAMSONBERG",
	"VANDENBERGHEMONTGOMERYSMITH",
	"CHRISTODOULOPOULOSSMITHBAUER",
}

var longFirstNames = []string{
	"ALEXANDERMAXIMILIANWILLIAM",
	"ELIZABETHCATHERINEANNAMARIE",
	"BENJAMINFREDERICKNATHANJOHN",
}

var longSeriesDescriptions = []string{
	"PET BRAIN DYNAMIC 90MIN LIST MODE REBINNED OSEM3D PSF TOF 8I10S ALL PASS",
	"DYNAMIC AMYLOID PET 0-70 MIN 24 FRAMES HEAD HOLDER MOTION CORRECTED RECON",
	"RESEARCH PROTOCOL NEURORECEPTOR BINDING BOLUS PLUS INFUSION FULL DYNAMIC",
}

// GenerateLongPatientName generates a patient name at the PN length limit
func GenerateLongPatientName(rng *rand.Rand) string {
	name := longLastNames[rng.IntN(len(longLastNames))] + "^" + longFirstNames[rng.IntN(len(longFirstNames))]
	if len(name) > DICOMLOMaxLength {
		name = name[:DICOMLOMaxLength]
	}
	return name
}

// GenerateLongPatientID generates a PatientID at max length
func GenerateLongPatientID(rng *rand.Rand) string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var sb strings.Builder
	for i := 0; i < DICOMLOMaxLength; i++ {
		sb.WriteByte(chars[rng.IntN(len(chars))])
	}
	return sb.String()
}

// GenerateLongSeriesDescription generates a SeriesDescription truncated to
// the LO limit
func GenerateLongSeriesDescription(rng *rand.Rand) string {
	desc := longSeriesDescriptions[rng.IntN(len(longSeriesDescriptions))]
	if len(desc) > DICOMLOMaxLength {
		desc = desc[:DICOMLOMaxLength]
	}
	return desc
}
