package nifti

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Affine returns the voxel-to-world transform chosen the usual way: the sform
// when sform_code is set, then the qform, then a scaling built from pixdim.
func (h *Header) Affine() *mat.Dense {
	switch {
	case h.SFormCode > 0:
		return h.sformAffine()
	case h.QFormCode > 0:
		return h.qformAffine()
	default:
		return h.baseAffine()
	}
}

func (h *Header) sformAffine() *mat.Dense {
	rows := [3][4]float32{h.SRowX, h.SRowY, h.SRowZ}
	data := make([]float64, 0, 16)
	for _, r := range rows {
		for _, v := range r {
			data = append(data, float64(v))
		}
	}
	data = append(data, 0, 0, 0, 1)
	return mat.NewDense(4, 4, data)
}

func (h *Header) qformAffine() *mat.Dense {
	b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
	a2 := 1 - (b*b + c*c + d*d)
	var a float64
	if a2 < 1e-7 {
		// Renormalise when the stored quaternion is not quite unit length
		norm := math.Sqrt(b*b + c*c + d*d)
		b, c, d = b/norm, c/norm, d/norm
	} else {
		a = math.Sqrt(a2)
	}

	qfac := float64(h.Pixdim[0])
	if qfac == 0 {
		qfac = 1
	}
	dx, dy, dz := float64(h.Pixdim[1]), float64(h.Pixdim[2]), float64(h.Pixdim[3])*qfac

	r := [3][3]float64{
		{a*a + b*b - c*c - d*d, 2 * (b*c - a*d), 2 * (b*d + a*c)},
		{2 * (b*c + a*d), a*a + c*c - b*b - d*d, 2 * (c*d - a*b)},
		{2 * (b*d - a*c), 2 * (c*d + a*b), a*a + d*d - c*c - b*b},
	}
	offsets := [3]float64{float64(h.QOffsetX), float64(h.QOffsetY), float64(h.QOffsetZ)}

	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		m.Set(i, 0, r[i][0]*dx)
		m.Set(i, 1, r[i][1]*dy)
		m.Set(i, 2, r[i][2]*dz)
		m.Set(i, 3, offsets[i])
	}
	m.Set(3, 3, 1)
	return m
}

func (h *Header) baseAffine() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		z := float64(h.Pixdim[i+1])
		if z == 0 {
			z = 1
		}
		m.Set(i, i, z)
	}
	m.Set(3, 3, 1)
	return m
}

// VoxelSize returns the absolute diagonal of the spatial part of affine.
func VoxelSize(affine mat.Matrix) [3]float64 {
	var size [3]float64
	for i := range size {
		size[i] = math.Abs(affine.At(i, i))
	}
	return size
}

// IsDiagonal reports whether the spatial 3x3 block of affine has no
// off-diagonal terms larger than tol.
func IsDiagonal(affine mat.Matrix, tol float64) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(affine.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

// SetSForm stores affine as the sform of h and marks it as scanner coordinates.
func (h *Header) SetSForm(affine mat.Matrix) {
	rows := [3]*[4]float32{&h.SRowX, &h.SRowY, &h.SRowZ}
	for i, row := range rows {
		for j := 0; j < 4; j++ {
			row[j] = float32(affine.At(i, j))
		}
	}
	h.SFormCode = 1
}
