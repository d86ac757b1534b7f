package edgecases

import (
	"fmt"
	"math/rand/v2"
)

// GenerateOldStudyDate generates a study date from an early PET era
// (1985-1999), as found in archived ECAT-to-DICOM exports
func GenerateOldStudyDate(rng *rand.Rand) string {
	year := 1985 + rng.IntN(15)
	month := 1 + rng.IntN(12)
	day := 1 + rng.IntN(28)
	return fmt.Sprintf("%04d%02d%02d", year, month, day)
}
