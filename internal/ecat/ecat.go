// Package ecat reads and writes ECAT 7 image files (big-endian, 512-byte blocks).
package ecat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// BlockSize is the ECAT record size in bytes.
const BlockSize = 512

// firstDirectoryBlock is the 1-based block number of the matrix directory.
const firstDirectoryBlock = 2

// Data type codes used in image subheaders.
const (
	DataTypeSunShort int16 = 6
)

var ErrNotECAT = errors.New("not an ECAT 7 file")

// MainHeader is the subset of the ECAT main header used for conversion.
type MainHeader struct {
	MagicNumber           string
	OriginalFileName      string
	SWVersion             int16
	SystemType            int16
	FileType              int16
	SerialNumber          string
	ScanStartTime         uint32
	IsotopeName           string
	IsotopeHalflife       float32
	Radiopharmaceutical   string
	ECATCalibrationFactor float32
	PatientID             string
	PatientName           string
	StudyDescription      string
	NumPlanes             int16
	NumFrames             int16
	Dosage                float32
	DataUnits             string
}

// ImageSubheader is the per-frame header that precedes each image matrix.
type ImageSubheader struct {
	DataType       int16
	NumDimensions  int16
	XDimension     int16
	YDimension     int16
	ZDimension     int16
	ScaleFactor    float32
	XPixelSize     float32
	YPixelSize     float32
	ZPixelSize     float32
	FrameDuration  int32
	FrameStartTime int32
	DecayCorrFctr  float32
	Annotation     string
}

// File is a parsed ECAT file: the main header and one subheader per frame,
// in directory order.
type File struct {
	Main       MainHeader
	Subheaders []ImageSubheader
}

// ReadFile parses the headers of the ECAT file at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses an ECAT main header, walks the matrix directory and reads
// each image subheader.
func Read(r io.ReaderAt) (*File, error) {
	var rec mainHeaderRecord
	if err := readRecord(r, 0, &rec); err != nil {
		return nil, fmt.Errorf("%w: main header: %v", ErrNotECAT, err)
	}
	if !strings.HasPrefix(cString(rec.MagicNumber[:]), "MATRIX") {
		return nil, fmt.Errorf("%w: bad magic %q", ErrNotECAT, cString(rec.MagicNumber[:]))
	}

	entries, err := readDirectory(r)
	if err != nil {
		return nil, err
	}

	file := &File{Main: mainHeaderFromRecord(rec)}
	for _, e := range entries {
		var sub imageSubheaderRecord
		if err := readRecord(r, blockOffset(e.StartBlock), &sub); err != nil {
			return nil, fmt.Errorf("read subheader of matrix %d: %w", e.MatrixID, err)
		}
		file.Subheaders = append(file.Subheaders, subheaderFromRecord(sub))
	}
	if len(file.Subheaders) == 0 {
		return nil, fmt.Errorf("%w: no image matrices in directory", ErrNotECAT)
	}
	return file, nil
}

func readDirectory(r io.ReaderAt) ([]directoryEntry, error) {
	var entries []directoryEntry
	visited := map[int32]bool{}
	block := int32(firstDirectoryBlock)

	for !visited[block] {
		visited[block] = true

		var dir directoryBlock
		if err := readRecord(r, blockOffset(block), &dir); err != nil {
			return nil, fmt.Errorf("read directory block %d: %w", block, err)
		}

		used := int(dir.NumUsed)
		if used < 0 || used > len(dir.Entries) {
			used = len(dir.Entries)
		}
		for _, e := range dir.Entries[:used] {
			if e.MatrixID != 0 && e.Status == 1 {
				entries = append(entries, e)
			}
		}

		if dir.Next <= 0 || dir.Next == firstDirectoryBlock {
			break
		}
		block = dir.Next
	}
	return entries, nil
}

func blockOffset(block int32) int64 {
	return int64(block-1) * BlockSize
}

func readRecord(r io.ReaderAt, offset int64, v any) error {
	buf := make([]byte, BlockSize)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), binary.BigEndian, v)
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

func putCString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

func mainHeaderFromRecord(rec mainHeaderRecord) MainHeader {
	return MainHeader{
		MagicNumber:           cString(rec.MagicNumber[:]),
		OriginalFileName:      cString(rec.OriginalFileName[:]),
		SWVersion:             rec.SWVersion,
		SystemType:            rec.SystemType,
		FileType:              rec.FileType,
		SerialNumber:          cString(rec.SerialNumber[:]),
		ScanStartTime:         rec.ScanStartTime,
		IsotopeName:           cString(rec.IsotopeName[:]),
		IsotopeHalflife:       rec.IsotopeHalflife,
		Radiopharmaceutical:   cString(rec.Radiopharmaceutical[:]),
		ECATCalibrationFactor: rec.ECATCalibrationFactor,
		PatientID:             cString(rec.PatientID[:]),
		PatientName:           cString(rec.PatientName[:]),
		StudyDescription:      cString(rec.StudyDescription[:]),
		NumPlanes:             rec.NumPlanes,
		NumFrames:             rec.NumFrames,
		Dosage:                rec.Dosage,
		DataUnits:             cString(rec.DataUnits[:]),
	}
}

func subheaderFromRecord(rec imageSubheaderRecord) ImageSubheader {
	return ImageSubheader{
		DataType:       rec.DataType,
		NumDimensions:  rec.NumDimensions,
		XDimension:     rec.XDimension,
		YDimension:     rec.YDimension,
		ZDimension:     rec.ZDimension,
		ScaleFactor:    rec.ScaleFactor,
		XPixelSize:     rec.XPixelSize,
		YPixelSize:     rec.YPixelSize,
		ZPixelSize:     rec.ZPixelSize,
		FrameDuration:  rec.FrameDuration,
		FrameStartTime: rec.FrameStartTime,
		DecayCorrFctr:  rec.DecayCorrFctr,
		Annotation:     cString(rec.Annotation[:]),
	}
}
