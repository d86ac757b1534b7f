// Package dicom reads PET DICOM slice headers and generates synthetic PET
// series for testing.
package dicom

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mrsinham/pet2nifti/internal/header"
	log "github.com/sirupsen/logrus"
	"github.com/suyashkumar/dicom"
)

// IsDICOMFile reports whether path parses as a DICOM file.
func IsDICOMFile(path string) bool {
	_, err := parseTolerant(path)
	return err == nil
}

// HasDICOMFiles reports whether dir directly contains at least one readable
// DICOM file. Subdirectories are not searched.
func HasDICOMFiles(dir string) (bool, error) {
	files, err := listFiles(dir)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if IsDICOMFile(f) {
			return true, nil
		}
	}
	return false, nil
}

// ReadHeaders parses every DICOM file directly inside dir, skipping pixel
// data, and returns one attribute set per slice. Files that do not parse are
// skipped.
func ReadHeaders(dir string) (header.DICOMHeaders, error) {
	files, err := listFiles(dir)
	if err != nil {
		return nil, err
	}

	var slices header.DICOMHeaders
	for _, f := range files {
		ds, err := parseTolerant(f)
		if err != nil {
			log.WithFields(log.Fields{"file": f, "error": err}).Debug("skipping non-DICOM file")
			continue
		}
		slices = append(slices, AttributesFromDataset(ds))
	}

	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: no DICOM files in %s", header.ErrUnsupportedFormat, dir)
	}
	log.WithFields(log.Fields{"dir": dir, "slices": len(slices)}).Debug("read DICOM headers")
	return slices, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// AttributesFromDataset extracts the PET attributes of one slice. Items of
// the radiopharmaceutical information sequence are flattened into the
// returned set.
func AttributesFromDataset(ds dicom.Dataset) header.Attributes {
	attrs := header.Attributes{}
	for _, pt := range sliceTags {
		if elem, err := ds.FindElementByTag(pt.Tag); err == nil && elem != nil {
			attrs[pt.Keyword] = elementStrings(elem)
		}
	}

	seq, err := ds.FindElementByTag(tagRadiopharmaceuticalInformationSequence)
	if err != nil || seq == nil {
		return attrs
	}
	items, ok := seq.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok || len(items) == 0 {
		return attrs
	}
	elems, ok := items[0].GetValue().([]*dicom.Element)
	if !ok {
		return attrs
	}
	for _, e := range elems {
		if keyword, known := radiopharmaceuticalTags[e.Tag]; known {
			attrs[keyword] = elementStrings(e)
		}
	}
	return attrs
}

// elementStrings renders an element's values as trimmed strings.
func elementStrings(elem *dicom.Element) []string {
	switch v := elem.Value.GetValue().(type) {
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = strings.TrimRight(strings.TrimSpace(s), "\x00")
		}
		return out
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out
	case []float64:
		out := make([]string, len(v))
		for i, f := range v {
			out[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return out
	default:
		return nil
	}
}

// parseTolerant parses a DICOM file element by element, keeping everything
// read before the first malformed element (vendor private tags are a common
// cause).
func parseTolerant(path string) (dicom.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return dicom.Dataset{}, err
	}

	p, err := dicom.NewParser(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return dicom.Dataset{}, err
	}

	var elements []*dicom.Element
	for {
		elem, err := p.Next()
		if err != nil {
			break
		}
		elements = append(elements, elem)
	}

	if len(elements) == 0 {
		return dicom.Dataset{}, fmt.Errorf("no elements parsed")
	}

	meta := p.GetMetadata()
	return dicom.Dataset{Elements: append(meta.Elements, elements...)}, nil
}
