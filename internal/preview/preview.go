// Package preview renders a quick-look PNG of a converted PET volume.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/mrsinham/pet2nifti/internal/nifti"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultWidth is the output width in pixels.
const DefaultWidth = 256

// Render returns the middle axial slice of the first frame, windowed to the
// slice maximum, scaled to width pixels and captioned with label.
func Render(vol *nifti.Volume, label string, width int) (*image.Gray, error) {
	shape := vol.Shape()
	if len(shape) < 3 {
		return nil, fmt.Errorf("preview needs at least 3 dimensions, got %d", len(shape))
	}
	if width <= 0 {
		width = DefaultWidth
	}
	nx, ny, nz := shape[0], shape[1], shape[2]
	z := nz / 2
	offset := z * nx * ny
	slice := vol.Data[offset : offset+nx*ny]

	var peak float64
	for _, v := range slice {
		if v > peak {
			peak = v
		}
	}

	src := image.NewGray(image.Rect(0, 0, nx, ny))
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			var g uint8
			if peak > 0 {
				v := slice[y*nx+x] / peak
				if v > 0 {
					g = uint8(v * 255)
				}
			}
			// Row 0 is drawn at the bottom so anterior is up
			src.SetGray(x, ny-1-y, color.Gray{Y: g})
		}
	}

	height := width * ny / nx
	if height <= 0 {
		height = 1
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if label != "" {
		drawer := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(color.Gray{Y: 255}),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(4), Y: fixed.I(15)},
		}
		drawer.DrawString(label)
	}
	return dst, nil
}

// WriteFile loads the NIfTI image at niftiPath and writes its preview PNG.
func WriteFile(niftiPath, pngPath, label string) error {
	vol, err := nifti.Load(niftiPath)
	if err != nil {
		return err
	}
	img, err := Render(vol, label, DefaultWidth)
	if err != nil {
		return err
	}

	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	return f.Close()
}
