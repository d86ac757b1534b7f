// Package nifti loads NIfTI-1 volumes through github.com/henghuang/nifti and
// writes them back as single-file float32 images (.nii and .nii.gz).
package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// HeaderSize is the fixed size of a NIfTI-1 header.
const HeaderSize = 348

// DataOffset is where voxel data starts in files written by this package:
// the header followed by a 4-byte empty extension flag.
const DataOffset = 352

// DTFloat32 is the NIfTI-1 datatype code of every volume this package writes.
const DTFloat32 int16 = 16

var ErrInvalidHeader = errors.New("invalid NIfTI-1 header")

// Header mirrors the on-disk NIfTI-1 header layout field for field.
type Header struct {
	SizeOfHdr    int32
	DataType     [10]byte
	DBName       [18]byte
	Extents      int32
	SessionError int16
	Regular      byte
	DimInfo      byte

	Dim        [8]int16
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16
	Datatype   int16
	Bitpix     int16
	SliceStart int16
	Pixdim     [8]float32
	VoxOffset  float32
	SclSlope   float32
	SclInter   float32
	SliceEnd   int16
	SliceCode  byte
	XYZTUnits  byte
	CalMax     float32
	CalMin     float32
	SliceDur   float32
	TOffset    float32
	GLMax      int32
	GLMin      int32

	Descrip [80]byte
	AuxFile [24]byte

	QFormCode int16
	SFormCode int16
	QuaternB  float32
	QuaternC  float32
	QuaternD  float32
	QOffsetX  float32
	QOffsetY  float32
	QOffsetZ  float32

	SRowX [4]float32
	SRowY [4]float32
	SRowZ [4]float32

	IntentName [16]byte
	Magic      [4]byte
}

// decodeHeader reads a header from raw bytes, detecting the byte order from
// the sizeof_hdr field.
func decodeHeader(raw []byte) (Header, error) {
	var h Header
	if len(raw) < HeaderSize {
		return h, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(raw))
	}

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		if int32(order.Uint32(raw[0:4])) != HeaderSize {
			continue
		}
		if err := binary.Read(bytes.NewReader(raw[:HeaderSize]), order, &h); err != nil {
			return h, fmt.Errorf("decode header: %w", err)
		}
		if string(h.Magic[:3]) != "n+1" {
			return h, fmt.Errorf("%w: unsupported magic %q (only single-file n+1 is supported)", ErrInvalidHeader, string(bytes.TrimRight(h.Magic[:], "\x00")))
		}
		if h.Dim[0] < 1 || h.Dim[0] > 7 {
			return h, fmt.Errorf("%w: dim[0]=%d out of range", ErrInvalidHeader, h.Dim[0])
		}
		return h, nil
	}

	return h, fmt.Errorf("%w: sizeof_hdr is not %d in either byte order", ErrInvalidHeader, HeaderSize)
}

// readHeader decodes only the fixed header of path, gunzipping when the
// content starts with the gzip magic. The transform fields and descrip are
// taken from here; voxels come from the library loader.
func readHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return Header{}, fmt.Errorf("read %s: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		r = zr
	}

	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, fmt.Errorf("%s: %w: %v", path, ErrInvalidHeader, err)
	}
	h, err := decodeHeader(raw)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Shape returns the extent of each used dimension (dim[1] .. dim[dim[0]]).
func (h *Header) Shape() []int {
	n := int(h.Dim[0])
	shape := make([]int, n)
	for i := 0; i < n; i++ {
		shape[i] = int(h.Dim[i+1])
	}
	return shape
}

// Description returns the descrip field as a string.
func (h *Header) Description() string {
	return string(bytes.TrimRight(h.Descrip[:], "\x00"))
}

// SetDescription stores s in the descrip field, truncated to 79 bytes.
func (h *Header) SetDescription(s string) {
	h.Descrip = [80]byte{}
	copy(h.Descrip[:79], s)
}
