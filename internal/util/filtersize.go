package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	filterSizeSeparator = regexp.MustCompile(`\s*[,x ]\s*`)
	filterSizeComponent = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// ParseFilterSize parses a smoothing kernel size in millimetres.
//
// Accepted forms: "6,6,5", "6x6x5", "6 6 5" and a single isotropic value "6".
// An optional trailing "mm" unit is ignored.
func ParseFilterSize(s string) ([]float64, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "mm")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return nil, fmt.Errorf("invalid filter size: empty value")
	}

	parts := filterSizeSeparator.Split(trimmed, -1)
	if len(parts) != 1 && len(parts) != 3 {
		return nil, fmt.Errorf("invalid filter size '%s': need 1 or 3 values, got %d", s, len(parts))
	}

	values := make([]float64, 0, 3)
	for _, p := range parts {
		if !filterSizeComponent.MatchString(p) {
			return nil, fmt.Errorf("invalid filter size '%s': '%s' is not a non-negative number", s, p)
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric value: %v", err)
		}
		values = append(values, v)
	}

	if len(values) == 1 {
		values = []float64{values[0], values[0], values[0]}
	}
	return values, nil
}

// FormatFilterSize renders a kernel size the way ParseFilterSize reads it.
func FormatFilterSize(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
