package smoothing

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/mrsinham/pet2nifti/internal/nifti"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestVoxelSigma(t *testing.T) {
	tests := []struct {
		name  string
		fwhm  []float64
		voxel [3]float64
		want  [3]float64
	}{
		{"isotropic", []float64{6, 6, 6}, [3]float64{2, 2, 2}, [3]float64{6 / 2.355 / 2, 6 / 2.355 / 2, 6 / 2.355 / 2}},
		{"anisotropic voxels", []float64{5.5, 5.5, 3.5}, [3]float64{2, 2, 3}, [3]float64{5.5 / 2.355 / 2, 5.5 / 2.355 / 2, 3.5 / 2.355 / 3}},
		{"zero fwhm", []float64{0, 0, 0}, [3]float64{1, 1, 1}, [3]float64{0, 0, 0}},
		{"upper bound", []float64{8, 8, 8}, [3]float64{1, 1, 1}, [3]float64{8 / 2.355, 8 / 2.355, 8 / 2.355}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := VoxelSigma(tc.fwhm, tc.voxel)
			require.NoError(t, err)
			for i := range got {
				assert.InDelta(t, tc.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestVoxelSigma_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		fwhm  []float64
		voxel [3]float64
	}{
		{"above maximum", []float64{8.5, 6, 6}, [3]float64{2, 2, 2}},
		{"negative", []float64{6, -1, 6}, [3]float64{2, 2, 2}},
		{"too few components", []float64{6, 6}, [3]float64{2, 2, 2}},
		{"zero voxel", []float64{6, 6, 6}, [3]float64{2, 0, 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VoxelSigma(tc.fwhm, tc.voxel)
			assert.ErrorIs(t, err, ErrInvalidFilterSize)
		})
	}
}

func TestKernel(t *testing.T) {
	k := Kernel(1.0)
	// radius = int(4*1 + 0.5) = 4
	require.Len(t, k, 9)
	assert.InDelta(t, 1.0, floats.Sum(k), 1e-12)
	for i := range k {
		assert.InDelta(t, k[i], k[len(k)-1-i], 1e-15, "kernel must be symmetric")
	}
	assert.Equal(t, 4, floats.MaxIdx(k))

	assert.Len(t, Kernel(0.2), 3)
}

func TestReflect(t *testing.T) {
	n := 4
	// d c b a | a b c d | d c b a
	want := map[int]int{-4: 3, -3: 2, -2: 1, -1: 0, 0: 0, 3: 3, 4: 3, 5: 2, 7: 0, 8: 0}
	for idx, expected := range want {
		assert.Equal(t, expected, reflect(idx, n), "reflect(%d, %d)", idx, n)
	}
	assert.Equal(t, 0, reflect(5, 1))
}

func TestGaussian3D_ConstantVolumeUnchanged(t *testing.T) {
	dims := [3]int{5, 4, 3}
	data := make([]float64, 60)
	for i := range data {
		data[i] = 42
	}
	out := Gaussian3D(data, dims, [3]float64{1.3, 0.8, 2.5})
	for _, v := range out {
		assert.InDelta(t, 42, v, 1e-9)
	}
}

func TestGaussian3D_PreservesMassAndSpreadsImpulse(t *testing.T) {
	dims := [3]int{9, 9, 9}
	data := make([]float64, 9*9*9)
	centre := 4 + 9*(4+9*4)
	data[centre] = 1000

	out := Gaussian3D(data, dims, [3]float64{1, 1, 1})
	assert.InDelta(t, 1000, floats.Sum(out), 1e-6)
	assert.Less(t, out[centre], 1000.0)
	assert.Greater(t, out[centre+1], 0.0)
	assert.InDelta(t, out[centre+1], out[centre-1], 1e-9)
	assert.InDelta(t, out[centre+9], out[centre-81], 1e-9)
	assert.Equal(t, 1000.0, data[centre], "input must not be modified")
}

func TestGaussian3D_ZeroSigmaIsIdentity(t *testing.T) {
	dims := [3]int{3, 3, 3}
	data := make([]float64, 27)
	for i := range data {
		data[i] = float64(i * i)
	}
	out := Gaussian3D(data, dims, [3]float64{0, 0, 0})
	assert.Equal(t, data, out)
}

func TestSmooth_4DFramesIndependent(t *testing.T) {
	shape := []int{6, 5, 4, 3}
	frameSize := 6 * 5 * 4
	data := make([]float64, frameSize*3)
	for i := range data {
		data[i] = math.Sin(float64(i)) * float64(1+i/frameSize) * 100
	}
	sigma := [3]float64{1.2, 0.7, 1.9}

	out, err := Smooth(data, shape, sigma)
	require.NoError(t, err)

	for f := 0; f < 3; f++ {
		frame := data[f*frameSize : (f+1)*frameSize]
		want, err := Smooth(frame, shape[:3], sigma)
		require.NoError(t, err)
		assert.Equal(t, want, out[f*frameSize:(f+1)*frameSize], "frame %d", f)
	}
}

func TestSmooth_UnsupportedRank(t *testing.T) {
	for _, shape := range [][]int{{8}, {4, 4}, {2, 2, 2, 2, 2}} {
		n := 1
		for _, s := range shape {
			n *= s
		}
		_, err := Smooth(make([]float64, n), shape, [3]float64{1, 1, 1})
		assert.ErrorIs(t, err, ErrUnsupportedRank)
	}
}

func TestSmoothFile(t *testing.T) {
	affine := mat.NewDense(4, 4, []float64{
		2, 0, 0, -10,
		0, 2, 0, -10,
		0, 0, 3, -5,
		0, 0, 0, 1,
	})
	vol, err := nifti.New([]int{7, 7, 5, 2}, affine)
	require.NoError(t, err)
	frameSize := 7 * 7 * 5
	vol.Data[3+7*(3+7*2)] = 500
	vol.Data[frameSize+3+7*(3+7*2)] = 250

	path := filepath.Join(t.TempDir(), "pet.nii.gz")
	require.NoError(t, vol.Save(path))

	require.NoError(t, SmoothFile(path, []float64{6, 6, 6}))

	smoothed, err := nifti.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 7, 5, 2}, smoothed.Shape())
	assert.True(t, mat.EqualApprox(affine, smoothed.Affine(), 1e-6))

	sigma, err := VoxelSigma([]float64{6, 6, 6}, [3]float64{2, 2, 3})
	require.NoError(t, err)
	want, err := Smooth(vol.Data, []int{7, 7, 5, 2}, sigma)
	require.NoError(t, err)
	for i := range want {
		assert.InDelta(t, want[i], smoothed.Data[i], 1e-3)
	}
}

func TestSmoothFile_RejectsLargeKernelBeforeReading(t *testing.T) {
	err := SmoothFile(filepath.Join(t.TempDir(), "does-not-exist.nii.gz"), []float64{9, 6, 6})
	assert.ErrorIs(t, err, ErrInvalidFilterSize)
}

func TestSmoothFile_RejectsWrongRank(t *testing.T) {
	vol, err := nifti.New([]int{4, 4}, nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "flat.nii")
	require.NoError(t, vol.Save(path))

	err = SmoothFile(path, []float64{4, 4, 4})
	assert.ErrorIs(t, err, ErrUnsupportedRank)
}
