package vendortags

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// csaElement is one entry of a CSA header
type csaElement struct {
	Name     string
	VM       int32
	VR       string
	SyngoDT  int32
	NumItems int32
	Values   []string
}

// buildCSAHeader encodes CSA elements in the "SV10" binary format used by
// syngo-based scanners.
func buildCSAHeader(elements []csaElement) []byte {
	var buf bytes.Buffer

	buf.WriteString("SV10")
	buf.Write([]byte{0x04, 0x03, 0x02, 0x01})

	// binary.Write to bytes.Buffer never fails
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(elements)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4D))

	for _, elem := range elements {
		name := make([]byte, 64)
		copy(name, elem.Name)
		buf.Write(name)

		_ = binary.Write(&buf, binary.LittleEndian, elem.VM)

		vr := make([]byte, 4)
		copy(vr, elem.VR)
		buf.Write(vr)

		_ = binary.Write(&buf, binary.LittleEndian, elem.SyngoDT)
		_ = binary.Write(&buf, binary.LittleEndian, elem.NumItems)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4D))

		for i := int32(0); i < elem.NumItems; i++ {
			var val []byte
			if i < int32(len(elem.Values)) {
				val = []byte(elem.Values[i])
			}

			// item length is repeated four times
			itemLen := uint32(len(val))
			for j := 0; j < 4; j++ {
				_ = binary.Write(&buf, binary.LittleEndian, itemLen)
			}
			buf.Write(val)

			if padding := (4 - len(val)%4) % 4; padding > 0 {
				buf.Write(make([]byte, padding))
			}
		}
	}

	return buf.Bytes()
}

// csaImageHeader mimics the per-image CSA blob of a Biograph PET slice.
func csaImageHeader(rng *rand.Rand) []byte {
	elements := []csaElement{
		{Name: "SliceNormalVector", VM: 3, VR: "FD", SyngoDT: 3, NumItems: 3, Values: []string{"0.0", "0.0", "1.0"}},
		{Name: "ImaRelTablePosition", VM: 3, VR: "IS", SyngoDT: 6, NumItems: 3, Values: []string{"0", "0", "0"}},
		{Name: "ImaAbsTablePosition", VM: 3, VR: "IS", SyngoDT: 6, NumItems: 3, Values: []string{"0", "0", "-1093"}},
		{Name: "SliceMeasurementDuration", VM: 1, VR: "DS", SyngoDT: 3, NumItems: 1, Values: []string{"0.0"}},
		{Name: "PETRescaleSlope", VM: 1, VR: "DS", SyngoDT: 3, NumItems: 1, Values: []string{"1.0"}},
	}

	header := buildCSAHeader(elements)
	padding := make([]byte, rng.IntN(1024)+512)
	for i := range padding {
		padding[i] = byte(rng.IntN(256))
	}
	return append(header, padding...)
}

// csaSeriesHeader mimics the series CSA blob.
func csaSeriesHeader(rng *rand.Rand) []byte {
	elements := []csaElement{
		{Name: "UsedPatientWeight", VM: 1, VR: "DS", SyngoDT: 3, NumItems: 1, Values: []string{"70.0"}},
		{Name: "PETMotionCorrection", VM: 1, VR: "LO", SyngoDT: 19, NumItems: 1, Values: []string{"NONE"}},
		{Name: "PETTOFReconstruction", VM: 1, VR: "CS", SyngoDT: 16, NumItems: 1, Values: []string{"YES"}},
		{Name: "Isocentered", VM: 1, VR: "IS", SyngoDT: 6, NumItems: 1, Values: []string{"1"}},
	}

	header := buildCSAHeader(elements)
	padding := make([]byte, rng.IntN(512)+256)
	for i := range padding {
		padding[i] = byte(rng.IntN(256))
	}
	return append(header, padding...)
}

func siemensElements(rng *rand.Rand) []*dicom.Element {
	return []*dicom.Element{
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x0010}, "LO", []string{"SIEMENS CSA HEADER"}),
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1010}, "OB", csaImageHeader(rng)),
		mustNewPrivateElement(tag.Tag{Group: 0x0029, Element: 0x1020}, "OB", csaSeriesHeader(rng)),
	}
}
