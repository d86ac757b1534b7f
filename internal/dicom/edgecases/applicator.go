package edgecases

import "math/rand/v2"

// Applicator applies the enabled edge cases to a series
type Applicator struct {
	types []EdgeCaseType
	rng   *rand.Rand
}

// NewApplicator creates a new edge case applicator
func NewApplicator(types []EdgeCaseType, rng *rand.Rand) *Applicator {
	return &Applicator{types: types, rng: rng}
}

// HasType checks if a specific edge case type is enabled
func (a *Applicator) HasType(t EdgeCaseType) bool {
	for _, ct := range a.types {
		if ct == t {
			return true
		}
	}
	return false
}

// Apply rewrites f in place. Types are applied in a fixed order so the
// same seed always yields the same header.
func (a *Applicator) Apply(f *Fields) {
	if a.HasType(SpecialChars) {
		f.PatientName = GenerateSpecialCharName(a.rng)
		f.Radiopharmaceutical = GenerateTracerNotation(a.rng)
	}
	if a.HasType(VariedIDs) {
		f.PatientID = GenerateStudyPatientID(a.rng)
	}
	if a.HasType(LongNames) {
		f.PatientName = GenerateLongPatientName(a.rng)
		f.PatientID = GenerateLongPatientID(a.rng)
		f.SeriesDescription = GenerateLongSeriesDescription(a.rng)
		f.ProtocolName = f.SeriesDescription
	}
	if a.HasType(OldDates) {
		f.StudyDate = GenerateOldStudyDate(a.rng)
	}
	if a.HasType(MissingTags) {
		f.Omit = SelectTagsToOmit(a.rng, 1+a.rng.IntN(len(OptionalTags)))
	}
}
