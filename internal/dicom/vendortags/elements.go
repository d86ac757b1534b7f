package vendortags

import (
	"fmt"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// mustNewPrivateElement creates a DICOM element with a private tag and explicit VR.
// dicom.NewElement rejects tags missing from the dictionary.
func mustNewPrivateElement(t tag.Tag, rawVR string, data any) *dicom.Element {
	value, err := dicom.NewValue(data)
	if err != nil {
		panic(fmt.Sprintf("failed to create value for private element %v: %v", t, err))
	}
	return &dicom.Element{
		Tag:                    t,
		ValueRepresentation:    tag.GetVRKind(t, rawVR),
		RawValueRepresentation: rawVR,
		Value:                  value,
	}
}

// Elements returns the private elements for the given vendors, in vendor
// order. Every slice of a series gets the same elements.
func Elements(vendors []Vendor, rng *rand.Rand) []*dicom.Element {
	var elements []*dicom.Element
	for _, v := range vendors {
		switch v {
		case Siemens:
			elements = append(elements, siemensElements(rng)...)
		case GE:
			elements = append(elements, geElements(rng)...)
		case Philips:
			elements = append(elements, philipsElements(rng)...)
		}
	}
	return elements
}
