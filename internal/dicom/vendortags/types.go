// Package vendortags adds the private attribute groups that scanner vendors
// write into PET DICOM exports. Converters must carry them without choking.
package vendortags

import (
	"fmt"
	"strings"
)

// Vendor selects a family of private tags
type Vendor string

const (
	Siemens Vendor = "siemens"
	GE      Vendor = "ge"
	Philips Vendor = "philips"
)

// AllVendors returns all valid vendors
func AllVendors() []Vendor {
	return []Vendor{Siemens, GE, Philips}
}

// ParseVendors parses a comma-separated vendor list.
// The special value "all" enables every vendor.
func ParseVendors(input string) ([]Vendor, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	valid := make(map[Vendor]bool)
	for _, v := range AllVendors() {
		valid[v] = true
	}

	parts := strings.Split(input, ",")
	result := make([]Vendor, 0, len(parts))
	seen := make(map[Vendor]bool)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "all" {
			return AllVendors(), nil
		}
		v := Vendor(p)
		if !valid[v] {
			return nil, fmt.Errorf("unknown vendor %q, valid vendors: %v (or 'all')", p, AllVendors())
		}
		if !seen[v] {
			result = append(result, v)
			seen[v] = true
		}
	}
	return result, nil
}
