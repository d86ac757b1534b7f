package dicom

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"math"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mrsinham/pet2nifti/internal/dicom/edgecases"
	"github.com/mrsinham/pet2nifti/internal/dicom/vendortags"
	"github.com/mrsinham/pet2nifti/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// PET image storage SOP class.
const petImageStorage = "1.2.840.10008.5.1.4.1.1.128"

// SeriesOptions configures a synthetic dynamic PET series.
type SeriesOptions struct {
	OutputDir string
	NumSlices int
	NumFrames int
	Width     int
	Height    int

	// FrameDurationMS is the duration of every frame in milliseconds.
	FrameDurationMS int

	PatientID           string
	PatientName         string
	StudyDate           string
	Radiopharmaceutical string
	Manufacturer        string
	Model               string
	PixelSpacing        float64
	SliceThickness      float64

	// Summed marks the series as a summed image (ImageType contains SUMMED),
	// which carries its frame count in NumberOfTimeSlots.
	Summed bool

	// EdgeCases perturbs the series header (see package edgecases).
	EdgeCases []edgecases.EdgeCaseType

	// VendorTags adds private attribute groups to every slice.
	VendorTags []vendortags.Vendor

	Seed             int64
	Workers          int
	Quiet            bool
	ProgressCallback func(current, total int)
}

// GeneratedFile describes one written slice.
type GeneratedFile struct {
	Path           string
	InstanceNumber int
	Frame          int
	Slice          int
}

type sliceTask struct {
	index     int
	filePath  string
	frame     int
	slice     int
	width     int
	height    int
	numSlices int
	numFrames int
	pixelSeed uint64
	metadata  []*dicom.Element
	overlay   string
}

func (o *SeriesOptions) applyDefaults() {
	if o.NumSlices <= 0 {
		o.NumSlices = 8
	}
	if o.NumFrames <= 0 {
		o.NumFrames = 4
	}
	if o.Width <= 0 {
		o.Width = 64
	}
	if o.Height <= 0 {
		o.Height = o.Width
	}
	if o.FrameDurationMS <= 0 {
		o.FrameDurationMS = 60000
	}
	if o.StudyDate == "" {
		o.StudyDate = "20220505"
	}
	if o.Radiopharmaceutical == "" {
		o.Radiopharmaceutical = "Fludeoxyglucose [18F]"
	}
	if o.Manufacturer == "" {
		o.Manufacturer = "SIEMENS"
	}
	if o.Model == "" {
		o.Model = "Biograph128_Vision 600 Edge"
	}
	if o.PixelSpacing <= 0 {
		o.PixelSpacing = 2
	}
	if o.SliceThickness <= 0 {
		o.SliceThickness = 2
	}
}

func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func decimalString(f float64) string {
	return fmt.Sprintf("%.6g", f)
}

// omittableTags maps the keywords edge cases may drop to their tags.
var omittableTags = map[string]tag.Tag{
	"RadionuclidePositronFraction": tagRadionuclidePositronFraction,
	"RadionuclideTotalDose":        tagRadionuclideTotalDose,
	"RadionuclideHalfLife":         tagRadionuclideHalfLife,
	"DoseCalibrationFactor":        tagDoseCalibrationFactor,
	"SliceThickness":               tag.SliceThickness,
	"SoftwareVersions":             tag.SoftwareVersions,
	"ProtocolName":                 tag.ProtocolName,
	"SeriesDescription":            tag.SeriesDescription,
}

func omitElements(fields *edgecases.Fields, elems []*dicom.Element) []*dicom.Element {
	if len(fields.Omit) == 0 {
		return elems
	}
	drop := make(map[tag.Tag]bool, len(fields.Omit))
	for _, keyword := range fields.Omit {
		if t, ok := omittableTags[keyword]; ok {
			drop[t] = true
		}
	}
	kept := elems[:0]
	for _, e := range elems {
		if !drop[e.Tag] {
			kept = append(kept, e)
		}
	}
	return kept
}

// writeDatasetToFile writes a DICOM dataset to a file
func writeDatasetToFile(filename string, set dicom.Dataset) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, set)
}

// GeneratePETSeries writes NumSlices x NumFrames single-slice PET DICOM
// files. Instance numbers run frame-major, so every frame's first slice has
// instance number frame*NumSlices+1.
func GeneratePETSeries(opts SeriesOptions) ([]GeneratedFile, error) {
	opts.applyDefaults()

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(opts.OutputDir)) // hash.Write never returns an error
		seed = int64(h.Sum64())
	}
	rng := randv2.New(randv2.NewPCG(uint64(seed), uint64(seed)))
	if opts.PatientID == "" {
		opts.PatientID = util.GeneratePatientID(rng)
	}
	if opts.PatientName == "" {
		opts.PatientName = util.GeneratePatientName(rng)
	}

	fields := edgecases.Fields{
		PatientID:           opts.PatientID,
		PatientName:         opts.PatientName,
		StudyDate:           opts.StudyDate,
		Radiopharmaceutical: opts.Radiopharmaceutical,
		SeriesDescription:   "PET Brain Dynamic",
		ProtocolName:        "PET Brain",
	}
	if len(opts.EdgeCases) > 0 {
		edgecases.NewApplicator(opts.EdgeCases, rng).Apply(&fields)
		opts.PatientID, opts.PatientName = fields.PatientID, fields.PatientName
		opts.StudyDate, opts.Radiopharmaceutical = fields.StudyDate, fields.Radiopharmaceutical
	}

	privateElements := vendortags.Elements(opts.VendorTags, rng)

	studyUID := util.GenerateDeterministicUID(fmt.Sprintf("%d_study", seed))
	seriesUID := util.GenerateDeterministicUID(fmt.Sprintf("%d_series", seed))
	frameOfReferenceUID := util.GenerateDeterministicUID(fmt.Sprintf("%d_for", seed))

	imageType := []string{"ORIGINAL", "PRIMARY"}
	frameCountTag := tagNumberOfTimeSlices
	if opts.Summed {
		imageType = []string{"DERIVED", "PRIMARY", "SUMMED"}
		frameCountTag = tagNumberOfTimeSlots
	}

	if !opts.Quiet {
		fmt.Printf("Generating PET series: %d slices x %d frames (%dx%d)\n", opts.NumSlices, opts.NumFrames, opts.Width, opts.Height)
		fmt.Printf("  Patient: %s (ID: %s), Tracer: %s\n", opts.PatientName, opts.PatientID, opts.Radiopharmaceutical)
		if len(opts.EdgeCases) > 0 {
			fmt.Printf("  Edge cases: %v\n", opts.EdgeCases)
		}
	}

	total := opts.NumSlices * opts.NumFrames
	tasks := make([]sliceTask, 0, total)
	for f := 0; f < opts.NumFrames; f++ {
		startMS := f * opts.FrameDurationMS
		decay := math.Exp(math.Ln2 * float64(startMS) / 1000 / 6586.2)
		for s := 0; s < opts.NumSlices; s++ {
			instance := f*opts.NumSlices + s + 1
			sopInstanceUID := util.GenerateDeterministicUID(fmt.Sprintf("%d_sop_%d", seed, instance))
			z := float64(s) * opts.SliceThickness

			radiopharm := [][]*dicom.Element{omitElements(&fields, []*dicom.Element{
				mustNewElement(tagRadiopharmaceutical, []string{opts.Radiopharmaceutical}),
				mustNewElement(tagRadiopharmaceuticalStartTime, []string{"100000"}),
				mustNewElement(tagRadionuclideTotalDose, []string{"185000000"}),
				mustNewElement(tagRadionuclideHalfLife, []string{"6586.2"}),
				mustNewElement(tagRadionuclidePositronFraction, []string{"0.97"}),
			})}

			metadata := omitElements(&fields, []*dicom.Element{
				mustNewElement(tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
				mustNewElement(tag.MediaStorageSOPClassUID, []string{petImageStorage}),
				mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sopInstanceUID}),
				mustNewElement(tag.PatientName, []string{opts.PatientName}),
				mustNewElement(tag.PatientID, []string{opts.PatientID}),
				mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
				mustNewElement(tag.StudyDate, []string{opts.StudyDate}),
				mustNewElement(tag.StudyTime, []string{"100000"}),
				mustNewElement(tag.AcquisitionTime, []string{"101500"}),
				mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
				mustNewElement(tag.SeriesNumber, []string{"3"}),
				mustNewElement(tag.SeriesDescription, []string{fields.SeriesDescription}),
				mustNewElement(tag.ProtocolName, []string{fields.ProtocolName}),
				mustNewElement(tag.Modality, []string{"PT"}),
				mustNewElement(tag.SOPClassUID, []string{petImageStorage}),
				mustNewElement(tag.SOPInstanceUID, []string{sopInstanceUID}),
				mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", instance)}),
				mustNewElement(tag.ImageType, imageType),
				mustNewElement(tag.Manufacturer, []string{opts.Manufacturer}),
				mustNewElement(tag.ManufacturerModelName, []string{opts.Model}),
				mustNewElement(tag.SoftwareVersions, []string{"VR20B"}),
				mustNewElement(tag.PixelSpacing, []string{decimalString(opts.PixelSpacing), decimalString(opts.PixelSpacing)}),
				mustNewElement(tag.SliceThickness, []string{decimalString(opts.SliceThickness)}),
				mustNewElement(tag.ImagePositionPatient, []string{"0", "0", decimalString(z)}),
				mustNewElement(tag.ImageOrientationPatient, []string{"1", "0", "0", "0", "1", "0"}),
				mustNewElement(tag.SliceLocation, []string{decimalString(z)}),
				mustNewElement(tag.FrameOfReferenceUID, []string{frameOfReferenceUID}),
				mustNewElement(tag.Rows, []int{opts.Height}),
				mustNewElement(tag.Columns, []int{opts.Width}),
				mustNewElement(tag.BitsAllocated, []int{16}),
				mustNewElement(tag.BitsStored, []int{16}),
				mustNewElement(tag.HighBit, []int{15}),
				mustNewElement(tag.PixelRepresentation, []int{0}),
				mustNewElement(tag.SamplesPerPixel, []int{1}),
				mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
				mustNewElement(tag.RescaleIntercept, []string{"0"}),
				mustNewElement(tag.RescaleSlope, []string{"1"}),
				mustNewElement(tagUnits, []string{"BQML"}),
				mustNewElement(tagDecayCorrection, []string{"START"}),
				mustNewElement(tagAttenuationCorrectionMethod, []string{"measured,AC CT"}),
				mustNewElement(tagReconstructionMethod, []string{"OSEM3D 4i5s"}),
				mustNewElement(tagNumberOfSlices, []int{opts.NumSlices}),
				mustNewElement(frameCountTag, []int{opts.NumFrames}),
				mustNewElement(tagFrameReferenceTime, []string{fmt.Sprintf("%d", startMS)}),
				mustNewElement(tagActualFrameDuration, []string{fmt.Sprintf("%d", opts.FrameDurationMS)}),
				mustNewElement(tagDecayFactor, []string{decimalString(decay)}),
				mustNewElement(tagDoseCalibrationFactor, []string{"1"}),
				mustNewElement(tagRadiopharmaceuticalInformationSequence, radiopharm),
			})
			metadata = append(metadata, privateElements...)

			tasks = append(tasks, sliceTask{
				index:     instance,
				filePath:  filepath.Join(opts.OutputDir, fmt.Sprintf("IMG%05d.dcm", instance)),
				frame:     f,
				slice:     s,
				width:     opts.Width,
				height:    opts.Height,
				numSlices: opts.NumSlices,
				numFrames: opts.NumFrames,
				pixelSeed: uint64(seed) + uint64(instance)*1000,
				metadata:  metadata,
				overlay:   fmt.Sprintf("Frame %d/%d", f+1, opts.NumFrames),
			})
		}
	}

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	taskChan := make(chan sliceTask, len(tasks))
	resultChan := make(chan struct {
		index int
		err   error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				err := writeSlice(task)
				resultChan <- struct {
					index int
					err   error
				}{task.index, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("generate slice %d: %w", result.index, result.err)
		}
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(tasks))
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	files := make([]GeneratedFile, len(tasks))
	for i, task := range tasks {
		files[i] = GeneratedFile{Path: task.filePath, InstanceNumber: task.index, Frame: task.frame, Slice: task.slice}
	}

	if !opts.Quiet {
		fmt.Printf("✓ %d PET DICOM files created in: %s/\n", len(files), opts.OutputDir)
	}
	return files, nil
}

// writeSlice renders the activity of one slice and writes it to disk.
func writeSlice(task sliceTask) error {
	width, height := task.width, task.height
	rng := randv2.New(randv2.NewPCG(task.pixelSeed, task.pixelSeed))
	nativeFrame := frame.NewNativeFrame[uint16](16, height, width, width*height, 1)

	// Tracer uptake rises towards a plateau over the frames; activity is
	// concentrated in an ellipsoid centred in the field of view.
	uptake := 1 - math.Exp(-float64(task.frame+1)/float64(task.numFrames))
	cz := float64(task.numSlices-1) / 2
	dz := (float64(task.slice) - cz) / math.Max(cz, 1)
	cx, cy := float64(width)/2, float64(height)/2

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := (float64(x) - cx) / (cx * 0.6)
			dy := (float64(y) - cy) / (cy * 0.7)
			r2 := dx*dx + dy*dy + dz*dz
			activity := 20000 * uptake * math.Exp(-r2*1.5)
			noise := (rng.Float64() - 0.5) * 600
			v := math.Max(0, math.Min(65535, activity+noise+500))
			nativeFrame.RawData[y*width+x] = uint16(v)
		}
	}

	stampLabel(nativeFrame, width, height, task.overlay)

	pixelData := dicom.PixelDataInfo{
		Frames: []*frame.Frame{{Encapsulated: false, NativeData: nativeFrame}},
	}
	elements := make([]*dicom.Element, len(task.metadata)+1)
	copy(elements, task.metadata)
	elements[len(task.metadata)] = mustNewElement(tag.PixelData, pixelData)

	return writeDatasetToFile(task.filePath, dicom.Dataset{Elements: elements})
}

// stampLabel burns text into the top-left corner of a 16-bit frame at twice
// the base font size.
func stampLabel(nativeFrame *frame.NativeFrame[uint16], width, height int, text string) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	if textWidth == 0 {
		return
	}
	textImg := image.NewGray(image.Rect(0, 0, textWidth, 13))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(11)},
	}
	drawer.DrawString(text)

	scaled := image.NewGray(image.Rect(0, 0, textWidth*2, 26))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), textImg, textImg.Bounds(), draw.Src, nil)

	for sy := 0; sy < scaled.Bounds().Dy() && sy+2 < height; sy++ {
		for sx := 0; sx < scaled.Bounds().Dx() && sx+2 < width; sx++ {
			if v := scaled.GrayAt(sx, sy).Y; v > 64 {
				nativeFrame.RawData[(sy+2)*width+sx+2] = 65535
			}
		}
	}
}
