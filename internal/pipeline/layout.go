package pipeline

import (
	"path/filepath"

	"github.com/mrsinham/pet2nifti/internal/header"
)

// Layout is where one conversion writes its outputs:
// <dest>/sub-<S>/ses-<E>/<TRACER>/sub-<S>_ses-<E>_tracer-<T>[_run-<R>]_PET.*
type Layout struct {
	Dir  string
	Base string
}

// NewLayout derives the output directory and base name from identity.
func NewLayout(destination string, id header.Identity) Layout {
	base := "sub-" + id.Subject + "_ses-" + id.Session + "_tracer-" + id.Tracer
	if id.Run != "" {
		base += "_run-" + id.Run
	}
	return Layout{
		Dir:  filepath.Join(destination, "sub-"+id.Subject, "ses-"+id.Session, id.Tracer),
		Base: base + "_PET",
	}
}

// NiftiPath is the compressed image path.
func (l Layout) NiftiPath() string { return filepath.Join(l.Dir, l.Base+".nii.gz") }

// SidecarPath is the JSON metadata path.
func (l Layout) SidecarPath() string { return filepath.Join(l.Dir, l.Base+".json") }

// PreviewPath is the QC thumbnail path.
func (l Layout) PreviewPath() string { return filepath.Join(l.Dir, l.Base+"_preview.png") }
