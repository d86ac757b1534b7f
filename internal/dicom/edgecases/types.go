// Package edgecases perturbs the header of a synthetic PET series with the
// irregularities found in real scanner exports: unusual tracer notations,
// absent optional attributes, long strings and odd identifiers.
package edgecases

import (
	"fmt"
	"strings"
)

// EdgeCaseType represents a category of edge case
type EdgeCaseType string

const (
	SpecialChars EdgeCaseType = "special-chars"
	LongNames    EdgeCaseType = "long-names"
	MissingTags  EdgeCaseType = "missing-tags"
	OldDates     EdgeCaseType = "old-dates"
	VariedIDs    EdgeCaseType = "varied-ids"
)

// AllEdgeCaseTypes returns all valid edge case types
func AllEdgeCaseTypes() []EdgeCaseType {
	return []EdgeCaseType{SpecialChars, LongNames, MissingTags, OldDates, VariedIDs}
}

// ParseTypes parses comma-separated edge case types
func ParseTypes(input string) ([]EdgeCaseType, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	valid := make(map[EdgeCaseType]bool)
	for _, t := range AllEdgeCaseTypes() {
		valid[t] = true
	}

	parts := strings.Split(input, ",")
	result := make([]EdgeCaseType, 0, len(parts))
	for _, p := range parts {
		t := EdgeCaseType(strings.TrimSpace(p))
		if !valid[t] {
			return nil, fmt.Errorf("unknown edge case type %q, valid types: %v", p, AllEdgeCaseTypes())
		}
		result = append(result, t)
	}
	return result, nil
}

// Fields are the series-level header values an Applicator may rewrite.
// Every slice of a series shares them.
type Fields struct {
	PatientID           string
	PatientName         string
	StudyDate           string
	Radiopharmaceutical string
	SeriesDescription   string
	ProtocolName        string

	// Omit lists attribute keywords to leave out of every slice.
	Omit []string
}

// Omitted reports whether keyword is in f.Omit.
func (f *Fields) Omitted(keyword string) bool {
	for _, k := range f.Omit {
		if k == keyword {
			return true
		}
	}
	return false
}
