package header

import (
	"fmt"
	"strconv"
	"strings"
)

// Attributes holds the values of one DICOM slice header keyed by attribute
// keyword (e.g. "PatientID"). Multi-valued attributes keep every value.
type Attributes map[string][]string

// Has reports whether keyword is present.
func (a Attributes) Has(keyword string) bool {
	_, ok := a[keyword]
	return ok
}

// String returns the first value of keyword, or "" when absent.
func (a Attributes) String(keyword string) string {
	if v := a[keyword]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// Strings returns all values of keyword.
func (a Attributes) Strings(keyword string) []string {
	return a[keyword]
}

// Float parses the first value of keyword. A missing or empty value returns
// fallback.
func (a Attributes) Float(keyword string, fallback float64) (float64, error) {
	s := a.String(keyword)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not numeric", ErrInvalidHeader, keyword, s)
	}
	return v, nil
}

// Optional parses the first value of keyword into an Optional.
func (a Attributes) Optional(keyword string) (Optional, error) {
	s := a.String(keyword)
	if s == "" {
		return Optional{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Optional{}, fmt.Errorf("%w: %s=%q is not numeric", ErrInvalidHeader, keyword, s)
	}
	return Some(v), nil
}

// Int parses the first value of keyword as an integer, returning fallback
// when absent.
func (a Attributes) Int(keyword string, fallback int) (int, error) {
	s := a.String(keyword)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidHeader, keyword, s)
		}
		v = int(f)
	}
	return v, nil
}

// Floats parses every value of keyword.
func (a Attributes) Floats(keyword string) ([]float64, error) {
	values := a[keyword]
	out := make([]float64, 0, len(values))
	for _, s := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not numeric", ErrInvalidHeader, keyword, s)
		}
		out = append(out, v)
	}
	return out, nil
}
