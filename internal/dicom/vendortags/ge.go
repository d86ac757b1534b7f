package vendortags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// geElements writes the GEMS_PETD_01 block GE scanners attach to PET
// images: scan identifiers, tracer label and injected activity.
func geElements(rng *rand.Rand) []*dicom.Element {
	scanID := fmt.Sprintf("%d.%d.%d", 1+rng.IntN(9), rng.IntN(100), rng.IntN(100000))
	activity := fmt.Sprintf("%.2f", 5+rng.Float64()*5) // mCi

	return []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x0010}, "LO", []string{"GEMS_PETD_01"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x1002}, "LO", []string{"p" + scanID}),
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x1005}, "LO", []string{"DISCOVERY MI"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x1036}, "LO", []string{"FDG -- fluorodeoxyglucose"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x1038}, "DS", []string{fmt.Sprintf("%.3f", 5+rng.Float64())}),
		mustNewPrivateElement(tag.Tag{Group: 0x0009, Element: 0x103F}, "LO", []string{activity}),
	}
}
