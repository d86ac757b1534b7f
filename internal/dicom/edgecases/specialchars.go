package edgecases

import "math/rand/v2"

var specialCharFirstNames = []string{
	"Jean-Pierre", "François", "Éléonore", "José", "Ángela",
	"Søren", "Björn", "Łukasz", "Zoë", "O'Brien",
}

var specialCharLastNames = []string{
	"Müller-Schmidt", "O'Connor", "D'Agostino", "García-López",
	"Björnsson", "Østergaard", "Çelik", "Škvorecký",
}

// tracerNotations are radiopharmaceutical spellings seen in vendor exports.
// None contains a path separator.
var tracerNotations = []string{
	"[18F]FDG",
	"Fluorodopa F^18^ [18F]",
	"PiB [11C]",
	"[11C]Raclopride",
	"Flortaucipir [18F] (AV-1451)",
	"Water [15O]",
	"Fallypride[18F]",
}

// GenerateSpecialCharName generates a patient name with accented letters,
// apostrophes and hyphens
func GenerateSpecialCharName(rng *rand.Rand) string {
	first := specialCharFirstNames[rng.IntN(len(specialCharFirstNames))]
	last := specialCharLastNames[rng.IntN(len(specialCharLastNames))]
	return last + "^" + first
}

// GenerateTracerNotation picks a radiopharmaceutical name with the nuclide
// in brackets at varying positions
func GenerateTracerNotation(rng *rand.Rand) string {
	return tracerNotations[rng.IntN(len(tracerNotations))]
}
