package smoothing

import (
	"fmt"

	"github.com/mrsinham/pet2nifti/internal/nifti"
	log "github.com/sirupsen/logrus"
)

// SmoothFile smooths the NIfTI image at path in place with a Gaussian of the
// given FWHM (mm) and writes it back with the same affine and header geometry.
func SmoothFile(path string, fwhm []float64) error {
	if err := ValidateFWHM(fwhm); err != nil {
		return err
	}

	vol, err := nifti.Load(path)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}

	shape := vol.Shape()
	if len(shape) != 3 && len(shape) != 4 {
		return fmt.Errorf("%w: image must be 3D or 4D, got %dD", ErrUnsupportedRank, len(shape))
	}

	affine := vol.Affine()
	if !nifti.IsDiagonal(affine, 1e-6) {
		log.WithField("path", path).Warn("affine has off-diagonal terms; voxel size is read from the diagonal only")
	}
	voxel := nifti.VoxelSize(affine)

	sigma, err := VoxelSigma(fwhm, voxel)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"path":        path,
		"shape":       shape,
		"fwhm_mm":     fwhm,
		"voxel_mm":    voxel,
		"sigma_voxel": sigma,
	}).Debug("smoothing image")

	smoothed, err := Smooth(vol.Data, shape, sigma)
	if err != nil {
		return err
	}
	vol.Data = smoothed

	if err := vol.Save(path); err != nil {
		return fmt.Errorf("save smoothed image: %w", err)
	}
	return nil
}
