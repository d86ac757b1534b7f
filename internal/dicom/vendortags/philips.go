package vendortags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// philipsElements writes the "Philips PET Private Group" scale factors that
// map stored values to SUV and activity concentration.
func philipsElements(rng *rand.Rand) []*dicom.Element {
	suvScale := fmt.Sprintf("%.10f", 0.0001+rng.Float64()*0.001)
	activityScale := fmt.Sprintf("%.10f", 1+rng.Float64()*10)

	return []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x7053, Element: 0x0010}, "LO", []string{"Philips PET Private Group"}),
		mustNewPrivateElement(tag.Tag{Group: 0x7053, Element: 0x1000}, "DS", []string{suvScale}),
		mustNewPrivateElement(tag.Tag{Group: 0x7053, Element: 0x1009}, "DS", []string{activityScale}),
	}
}
