package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrsinham/pet2nifti/internal/dicom"
	"github.com/mrsinham/pet2nifti/internal/ecat"
	"github.com/mrsinham/pet2nifti/internal/header"
)

// DetectFormat classifies a source: a directory must hold at least one DICOM
// file; a regular file whose name contains ".v" is ECAT.
func DetectFormat(source string) (header.Format, error) {
	info, err := os.Stat(source)
	if err != nil {
		return header.FormatUnknown, err
	}

	if info.IsDir() {
		ok, err := dicom.HasDICOMFiles(source)
		if err != nil {
			return header.FormatUnknown, err
		}
		if !ok {
			return header.FormatUnknown, fmt.Errorf("%w: directory %s does not have any DICOM files", header.ErrUnsupportedFormat, source)
		}
		return header.FormatDICOM, nil
	}

	if strings.Contains(filepath.Base(source), ".v") {
		return header.FormatECAT, nil
	}
	return header.FormatUnknown, fmt.Errorf("%w: %s is neither a DICOM directory nor an ECAT (.v) file", header.ErrUnsupportedFormat, source)
}

// loadNormalizer reads the raw headers of source into the matching variant.
func loadNormalizer(source string, format header.Format, opts Options) (header.Normalizer, error) {
	switch format {
	case header.FormatDICOM:
		slices, err := dicom.ReadHeaders(source)
		if err != nil {
			return nil, err
		}
		return slices, nil
	case header.FormatECAT:
		file, err := ecat.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read ECAT headers: %w", err)
		}
		return header.ECATHeaders{File: file, Location: opts.Location}, nil
	default:
		return nil, fmt.Errorf("%w: %s", header.ErrUnsupportedFormat, format)
	}
}
