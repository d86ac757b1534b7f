package nifti
type Nifti1Image struct{}
func (i *Nifti1Image) LoadImage(p string, b bool) {}
func (i *Nifti1Image) GetDims() []int { return nil }
func (i *Nifti1Image) GetAt(x, y, z, t int) float32 { return 0 }
