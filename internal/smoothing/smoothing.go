// Package smoothing applies isotropic-in-millimetres Gaussian smoothing to 3D
// and 4D PET volumes.
package smoothing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// FWHMToSigma is the FWHM to standard deviation divisor, 2*sqrt(2*ln 2)
	// truncated to three decimals.
	FWHMToSigma = 2.355

	// MaxFWHM is the largest accepted kernel FWHM in millimetres.
	MaxFWHM = 8.0

	// Truncate is the kernel half-width in standard deviations.
	Truncate = 4.0
)

var (
	ErrInvalidFilterSize = errors.New("invalid filter size")
	ErrUnsupportedRank   = errors.New("unsupported image rank")
	ErrNoFilterSize      = errors.New("no filter size available")
)

// ValidateFWHM checks that fwhm holds three components in [0, MaxFWHM] mm.
func ValidateFWHM(fwhm []float64) error {
	if len(fwhm) != 3 {
		return fmt.Errorf("%w: need 3 components, got %d", ErrInvalidFilterSize, len(fwhm))
	}
	for i, v := range fwhm {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%w: component %d is %g", ErrInvalidFilterSize, i, v)
		}
		if v > MaxFWHM {
			return fmt.Errorf("%w: filter size in any dimension must not be larger than %g mm, got %g", ErrInvalidFilterSize, MaxFWHM, v)
		}
	}
	return nil
}

// VoxelSigma converts a FWHM in millimetres into per-axis standard deviations
// in voxel units: sigma_mm = fwhm/2.355, sigma_voxel = sigma_mm/voxel_size.
func VoxelSigma(fwhm []float64, voxelSize [3]float64) ([3]float64, error) {
	var sigma [3]float64
	if err := ValidateFWHM(fwhm); err != nil {
		return sigma, err
	}
	for i := range sigma {
		if voxelSize[i] <= 0 || math.IsNaN(voxelSize[i]) {
			return sigma, fmt.Errorf("%w: voxel size on axis %d is %g", ErrInvalidFilterSize, i, voxelSize[i])
		}
		sigma[i] = fwhm[i] / FWHMToSigma / voxelSize[i]
	}
	return sigma, nil
}

// Kernel returns the normalised 1D Gaussian weights for sigma, spanning
// int(Truncate*sigma+0.5) samples on each side of the centre.
func Kernel(sigma float64) []float64 {
	radius := int(Truncate*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	for i := range weights {
		x := float64(i - radius)
		weights[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights
}

// Smooth filters data laid out with the first axis fastest. Rank 3 volumes
// are filtered directly; rank 4 volumes are filtered one 3D frame at a time
// along the last axis. The input slice is not modified.
func Smooth(data []float64, shape []int, sigma [3]float64) ([]float64, error) {
	switch len(shape) {
	case 3:
		dims := [3]int{shape[0], shape[1], shape[2]}
		if err := checkLength(data, dims[0]*dims[1]*dims[2]); err != nil {
			return nil, err
		}
		return Gaussian3D(data, dims, sigma), nil
	case 4:
		dims := [3]int{shape[0], shape[1], shape[2]}
		frameSize := dims[0] * dims[1] * dims[2]
		if err := checkLength(data, frameSize*shape[3]); err != nil {
			return nil, err
		}
		out := make([]float64, len(data))
		for t := 0; t < shape[3]; t++ {
			frame := Gaussian3D(data[t*frameSize:(t+1)*frameSize], dims, sigma)
			copy(out[t*frameSize:], frame)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: image must be 3D or 4D, got %dD", ErrUnsupportedRank, len(shape))
	}
}

func checkLength(data []float64, want int) error {
	if len(data) != want {
		return fmt.Errorf("data holds %d voxels, shape needs %d", len(data), want)
	}
	return nil
}

// Gaussian3D applies a separable Gaussian to a single 3D volume. Axes with a
// negligible sigma are left untouched. Borders use half-sample symmetric
// reflection (d c b a | a b c d | d c b a).
func Gaussian3D(data []float64, dims [3]int, sigma [3]float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	scratch := make([]float64, len(data))

	for axis := 0; axis < 3; axis++ {
		if sigma[axis] <= 1e-15 {
			continue
		}
		filterAxis(out, scratch, dims, axis, Kernel(sigma[axis]))
		out, scratch = scratch, out
	}
	return out
}

// filterAxis correlates every line of in along axis with kernel into out.
func filterAxis(in, out []float64, dims [3]int, axis int, kernel []float64) {
	strides := [3]int{1, dims[0], dims[0] * dims[1]}
	n := dims[axis]
	step := strides[axis]
	radius := len(kernel) / 2

	var others [2]int
	k := 0
	for a := 0; a < 3; a++ {
		if a != axis {
			others[k] = a
			k++
		}
	}

	line := make([]float64, n)
	for j := 0; j < dims[others[1]]; j++ {
		for i := 0; i < dims[others[0]]; i++ {
			base := i*strides[others[0]] + j*strides[others[1]]
			for p := 0; p < n; p++ {
				line[p] = in[base+p*step]
			}
			for p := 0; p < n; p++ {
				var sum float64
				for m, w := range kernel {
					sum += w * line[reflect(p+m-radius, n)]
				}
				out[base+p*step] = sum
			}
		}
	}
}

// reflect maps an out-of-range index back into [0, n) by half-sample
// symmetric extension.
func reflect(idx, n int) int {
	period := 2 * n
	idx %= period
	if idx < 0 {
		idx += period
	}
	if idx >= n {
		idx = period - 1 - idx
	}
	return idx
}
