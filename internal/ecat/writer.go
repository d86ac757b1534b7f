package ecat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame is one image matrix to write: its subheader and big-endian int16
// voxels with x varying fastest.
type Frame struct {
	Subheader ImageSubheader
	Voxels    []int16
}

// Write encodes an ECAT 7 image file with a single directory block, so at most
// 31 frames are supported.
func Write(w io.Writer, main MainHeader, frames []Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to write")
	}
	if len(frames) > 31 {
		return fmt.Errorf("too many frames: %d (max 31)", len(frames))
	}

	main.NumFrames = int16(len(frames))
	if err := binary.Write(w, binary.BigEndian, mainHeaderToRecord(main)); err != nil {
		return fmt.Errorf("write main header: %w", err)
	}

	// Layout: block 1 main header, block 2 directory, then per frame one
	// subheader block followed by its data blocks.
	dir := directoryBlock{Next: firstDirectoryBlock, Previous: firstDirectoryBlock}
	next := int32(firstDirectoryBlock + 1)
	for i, f := range frames {
		n := int(f.Subheader.XDimension) * int(f.Subheader.YDimension) * int(f.Subheader.ZDimension)
		if n != len(f.Voxels) {
			return fmt.Errorf("frame %d: dimensions hold %d voxels, got %d", i+1, n, len(f.Voxels))
		}
		dataBlocks := int32((2*n + BlockSize - 1) / BlockSize)
		dir.Entries[i] = directoryEntry{
			MatrixID:   matrixID(i+1, 1, 1),
			StartBlock: next,
			EndBlock:   next + dataBlocks,
			Status:     1,
		}
		next += dataBlocks + 1
	}
	dir.NumUsed = int32(len(frames))
	dir.NumFree = int32(len(dir.Entries) - len(frames))

	if err := binary.Write(w, binary.BigEndian, &dir); err != nil {
		return fmt.Errorf("write directory: %w", err)
	}

	for i, f := range frames {
		sub := f.Subheader
		if sub.DataType == 0 {
			sub.DataType = DataTypeSunShort
		}
		if sub.NumDimensions == 0 {
			sub.NumDimensions = 3
		}
		if err := binary.Write(w, binary.BigEndian, subheaderToRecord(sub)); err != nil {
			return fmt.Errorf("write subheader %d: %w", i+1, err)
		}
		if err := binary.Write(w, binary.BigEndian, f.Voxels); err != nil {
			return fmt.Errorf("write frame %d: %w", i+1, err)
		}
		if pad := (BlockSize - (2*len(f.Voxels))%BlockSize) % BlockSize; pad > 0 {
			if _, err := w.Write(make([]byte, pad)); err != nil {
				return fmt.Errorf("pad frame %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// matrixID packs frame, plane, gate, data and bed numbers the way ECAT 7 does.
func matrixID(frame, plane, gate int) int32 {
	const data, bed = 0, 0
	return int32((frame & 0x1FF) | ((bed & 0xF) << 12) | ((plane & 0xFF) << 16) |
		((gate & 0x3F) << 24) | ((data & 0x3) << 30) | ((plane & 0x300) << 1) | ((data & 0x4) << 9))
}

func mainHeaderToRecord(h MainHeader) *mainHeaderRecord {
	rec := &mainHeaderRecord{
		SWVersion:             h.SWVersion,
		SystemType:            h.SystemType,
		FileType:              h.FileType,
		ScanStartTime:         h.ScanStartTime,
		IsotopeHalflife:       h.IsotopeHalflife,
		ECATCalibrationFactor: h.ECATCalibrationFactor,
		NumPlanes:             h.NumPlanes,
		NumFrames:             h.NumFrames,
		Dosage:                h.Dosage,
	}
	magic := h.MagicNumber
	if magic == "" {
		magic = "MATRIX72v"
	}
	putCString(rec.MagicNumber[:], magic)
	putCString(rec.OriginalFileName[:], h.OriginalFileName)
	putCString(rec.SerialNumber[:], h.SerialNumber)
	putCString(rec.IsotopeName[:], h.IsotopeName)
	putCString(rec.Radiopharmaceutical[:], h.Radiopharmaceutical)
	putCString(rec.PatientID[:], h.PatientID)
	putCString(rec.PatientName[:], h.PatientName)
	putCString(rec.StudyDescription[:], h.StudyDescription)
	putCString(rec.DataUnits[:], h.DataUnits)
	return rec
}

func subheaderToRecord(s ImageSubheader) *imageSubheaderRecord {
	rec := &imageSubheaderRecord{
		DataType:       s.DataType,
		NumDimensions:  s.NumDimensions,
		XDimension:     s.XDimension,
		YDimension:     s.YDimension,
		ZDimension:     s.ZDimension,
		ScaleFactor:    s.ScaleFactor,
		XPixelSize:     s.XPixelSize,
		YPixelSize:     s.YPixelSize,
		ZPixelSize:     s.ZPixelSize,
		FrameDuration:  s.FrameDuration,
		FrameStartTime: s.FrameStartTime,
		DecayCorrFctr:  s.DecayCorrFctr,
	}
	putCString(rec.Annotation[:], s.Annotation)
	return rec
}
