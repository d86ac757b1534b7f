package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	niftilib "github.com/henghuang/nifti"
	"gonum.org/v1/gonum/mat"
)

// Volume is a decoded NIfTI image. Data holds scaled voxel values with the
// first axis varying fastest, as stored on disk.
type Volume struct {
	Header Header
	Data   []float64
}

// New creates a float32 volume with the given shape and affine.
func New(shape []int, affine mat.Matrix) (*Volume, error) {
	if len(shape) < 1 || len(shape) > 7 {
		return nil, fmt.Errorf("invalid rank %d", len(shape))
	}
	n := 1
	var h Header
	h.SizeOfHdr = HeaderSize
	h.Dim[0] = int16(len(shape))
	h.Pixdim[0] = 1
	for i, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("invalid extent %d on axis %d", s, i)
		}
		h.Dim[i+1] = int16(s)
		h.Pixdim[i+1] = 1
		n *= s
	}
	for i := len(shape) + 1; i < 8; i++ {
		h.Dim[i] = 1
	}
	if affine != nil {
		size := VoxelSize(affine)
		for i := 0; i < 3 && i < len(shape); i++ {
			h.Pixdim[i+1] = float32(size[i])
		}
		h.SetSForm(affine)
	}
	h.XYZTUnits = 2 // millimetres
	h.SclSlope = 1
	copy(h.Magic[:], "n+1\x00")
	h.Datatype = DTFloat32
	h.Bitpix = 32
	h.VoxOffset = DataOffset

	return &Volume{Header: h, Data: make([]float64, n)}, nil
}

// Shape returns the extent of each axis.
func (v *Volume) Shape() []int {
	return v.Header.Shape()
}

// Affine returns the voxel-to-world transform of the volume.
func (v *Volume) Affine() *mat.Dense {
	return v.Header.Affine()
}

// Load reads a .nii or .nii.gz file. Voxel decoding, including datatype
// conversion and intensity scaling, is done by the library; volumes of more
// than four dimensions are rejected because its accessor is x, y, z, t.
func Load(path string) (*Volume, error) {
	h, err := readHeader(path)
	if err != nil {
		return nil, err
	}
	shape := h.Shape()
	if len(shape) > 4 {
		return nil, fmt.Errorf("%s: %w: %d dimensions, at most 4 are supported", path, ErrInvalidHeader, len(shape))
	}

	img, err := safelyLoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	extent := [4]int{1, 1, 1, 1}
	copy(extent[:], shape)
	dims := img.GetDims()
	for i, s := range shape {
		if int(dims[i]) != s {
			return nil, fmt.Errorf("%s: %w: header extent %v disagrees with decoded image %v", path, ErrInvalidHeader, shape, dims)
		}
	}

	nx, ny, nz, nt := extent[0], extent[1], extent[2], extent[3]
	data := make([]float64, 0, nx*ny*nz*nt)
	for t := 0; t < nt; t++ {
		for z := 0; z < nz; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					data = append(data, float64(img.GetAt(x, y, z, t)))
				}
			}
		}
	}
	return &Volume{Header: h, Data: data}, nil
}

// safelyLoadImage turns panics raised by the library loader on malformed
// input into errors.
func safelyLoadImage(path string) (img niftilib.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidHeader, panicErr)
		}
	}()

	img.LoadImage(path, true)

	return
}

// Save writes the volume as little-endian float32 with unit scaling, keeping
// the geometry of the header. A ".gz" suffix selects gzip compression. The
// file is written next to path and renamed into place.
func (v *Volume) Save(path string) error {
	h := v.Header
	h.SizeOfHdr = HeaderSize
	h.Datatype = DTFloat32
	h.Bitpix = 32
	h.SclSlope = 1
	h.SclInter = 0
	h.VoxOffset = DataOffset
	copy(h.Magic[:], "n+1\x00")

	n := 1
	for _, s := range h.Shape() {
		n *= s
	}
	if n != len(v.Data) {
		return fmt.Errorf("volume shape %v holds %d voxels, data has %d", h.Shape(), n, len(v.Data))
	}

	var payload bytes.Buffer
	payload.Grow(DataOffset + 4*n)
	if err := binary.Write(&payload, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	payload.Write([]byte{0, 0, 0, 0})
	var word [4]byte
	for _, f := range v.Data {
		binary.LittleEndian.PutUint32(word[:], math.Float32bits(float32(f)))
		payload.Write(word[:])
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".nifti-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(tmp)
		if _, err := zw.Write(payload.Bytes()); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	} else if _, err := tmp.Write(payload.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	v.Header = h
	return nil
}
