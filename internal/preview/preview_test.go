package preview

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrsinham/pet2nifti/internal/nifti"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	vol, err := nifti.New([]int{16, 8, 5, 2}, nil)
	require.NoError(t, err)
	// Bright voxel on the middle slice of frame 0
	vol.Data[2*16*8+4*16+8] = 100

	img, err := Render(vol, "", 64)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	var brightest uint8
	for _, p := range img.Pix {
		brightest = max(brightest, p)
	}
	assert.Greater(t, brightest, uint8(0))
}

func TestRender_BlankVolume(t *testing.T) {
	vol, err := nifti.New([]int{4, 4, 3}, nil)
	require.NoError(t, err)

	img, err := Render(vol, "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	for _, p := range img.Pix {
		assert.Zero(t, p)
	}
}

func TestRender_RejectsFlatImages(t *testing.T) {
	vol, err := nifti.New([]int{4, 4}, nil)
	require.NoError(t, err)
	_, err = Render(vol, "x", 32)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	vol, err := nifti.New([]int{8, 8, 3}, nil)
	require.NoError(t, err)
	for i := range vol.Data {
		vol.Data[i] = float64(i)
	}
	niiPath := filepath.Join(dir, "pet.nii.gz")
	require.NoError(t, vol.Save(niiPath))

	pngPath := filepath.Join(dir, "pet.png")
	require.NoError(t, WriteFile(niiPath, pngPath, "FDG"))

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
}
