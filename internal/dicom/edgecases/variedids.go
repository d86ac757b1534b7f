package edgecases

import (
	"math/rand/v2"
	"strings"
)

// StudyIDScheme is a patient ID layout used by a PET research cohort or
// clinical site. In Template, '#' expands to a digit and '@' to an
// uppercase letter; every other byte is kept.
type StudyIDScheme struct {
	Name     string
	Template string
}

// StudyIDSchemes lists the layouts the varied-ids edge case draws from.
// All of them are legal DICOM LO values and none contains a path separator,
// so each must survive identity derivation unchanged.
var StudyIDSchemes = []StudyIDScheme{
	{Name: "adni", Template: "###_S_####"},
	{Name: "oasis", Template: "OAS3####"},
	{Name: "site-subject", Template: "S##-###"},
	{Name: "hospital-mrn", Template: "@@########"},
	{Name: "dotted", Template: "##.###.###"},
	{Name: "spaced", Template: "PET ##### @@"},
}

// ExpandIDTemplate fills a scheme template with random characters.
func ExpandIDTemplate(template string, rng *rand.Rand) string {
	var sb strings.Builder
	sb.Grow(len(template))
	for i := 0; i < len(template); i++ {
		switch c := template[i]; c {
		case '#':
			sb.WriteByte('0' + byte(rng.IntN(10)))
		case '@':
			sb.WriteByte('A' + byte(rng.IntN(26)))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// GenerateStudyPatientID picks a scheme at random and expands it.
func GenerateStudyPatientID(rng *rand.Rand) string {
	scheme := StudyIDSchemes[rng.IntN(len(StudyIDSchemes))]
	return ExpandIDTemplate(scheme.Template, rng)
}
