// Package scanner holds the per-scanner recommended smoothing kernels.
package scanner

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mrsinham/pet2nifti/internal/smoothing"
	"github.com/mrsinham/pet2nifti/internal/util"
	"gopkg.in/yaml.v3"
)

//go:embed scanners.yaml
var defaultTable []byte

var ErrUnknownScanner = errors.New("unknown scanner type")

// Entry is one scanner model and its recommended FWHM (mm).
type Entry struct {
	Vendor string
	Model  string
	FWHM   [3]float64
}

// Table maps scanner model names to recommended kernels.
type Table struct {
	entries map[string]Entry
}

// Parse builds a table from YAML shaped as vendor -> model -> [x, y, z].
func Parse(data []byte) (*Table, error) {
	var raw map[string]map[string][]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scanner table: %w", err)
	}

	t := &Table{entries: make(map[string]Entry)}
	for vendor, models := range raw {
		for model, fwhm := range models {
			if err := smoothing.ValidateFWHM(fwhm); err != nil {
				return nil, fmt.Errorf("scanner %s/%s: %w", vendor, model, err)
			}
			if prev, dup := t.entries[model]; dup {
				return nil, fmt.Errorf("scanner %q listed under both %s and %s", model, prev.Vendor, vendor)
			}
			t.entries[model] = Entry{Vendor: vendor, Model: model, FWHM: [3]float64{fwhm[0], fwhm[1], fwhm[2]}}
		}
	}
	return t, nil
}

var (
	defaultOnce  sync.Once
	defaultTbl   *Table
	defaultError error
)

// Default returns the built-in scanner table.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTbl, defaultError = Parse(defaultTable)
	})
	return defaultTbl, defaultError
}

// Lookup returns the recommended FWHM for a scanner model. Names are matched
// exactly; unknown names produce an error that lists the valid keys.
func (t *Table) Lookup(model string) ([]float64, error) {
	if e, ok := t.entries[model]; ok {
		return []float64{e.FWHM[0], e.FWHM[1], e.FWHM[2]}, nil
	}

	names := t.Names()
	if suggestion := util.ClosestMatch(model, names, 3); suggestion != "" {
		return nil, fmt.Errorf("%w %q, did you mean %q? valid types: %s", ErrUnknownScanner, model, suggestion, strings.Join(names, ", "))
	}
	return nil, fmt.Errorf("%w %q, valid types: %s", ErrUnknownScanner, model, strings.Join(names, ", "))
}

// Entry returns the table entry for model.
func (t *Table) Entry(model string) (Entry, bool) {
	e, ok := t.entries[model]
	return e, ok
}

// Names returns the known model names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns all entries sorted by vendor, then model.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Vendor != out[j].Vendor {
			return out[i].Vendor < out[j].Vendor
		}
		return out[i].Model < out[j].Model
	})
	return out
}
