package ecat

// mainHeaderRecord is the on-disk layout of the 512-byte ECAT 7 main header.
type mainHeaderRecord struct {
	MagicNumber           [14]byte
	OriginalFileName      [32]byte
	SWVersion             int16
	SystemType            int16
	FileType              int16
	SerialNumber          [10]byte
	ScanStartTime         uint32
	IsotopeName           [8]byte
	IsotopeHalflife       float32
	Radiopharmaceutical   [32]byte
	GantryTilt            float32
	GantryRotation        float32
	BedElevation          float32
	IntrinsicTilt         float32
	WobbleSpeed           int16
	TransmSourceType      int16
	DistanceScanned       float32
	TransaxialFOV         float32
	AngularCompression    int16
	CoinSampMode          int16
	AxialSampMode         int16
	ECATCalibrationFactor float32
	CalibrationUnits      int16
	CalibrationUnitsLabel int16
	CompressionCode       int16
	StudyType             [12]byte
	PatientID             [16]byte
	PatientName           [32]byte
	PatientSex            byte
	PatientDexterity      byte
	PatientAge            float32
	PatientHeight         float32
	PatientWeight         float32
	PatientBirthDate      int32
	PhysicianName         [32]byte
	OperatorName          [32]byte
	StudyDescription      [32]byte
	AcquisitionType       int16
	PatientOrientation    int16
	FacilityName          [20]byte
	NumPlanes             int16
	NumFrames             int16
	NumGates              int16
	NumBedPos             int16
	InitBedPosition       float32
	BedPosition           [15]float32
	PlaneSeparation       float32
	LwrSctrThres          int16
	LwrTrueThres          int16
	UprTrueThres          int16
	UserProcessCode       [10]byte
	AcquisitionMode       int16
	BinSize               float32
	BranchingFraction     float32
	DoseStartTime         uint32
	Dosage                float32
	WellCounterCorrFactor float32
	DataUnits             [32]byte
	SeptaState            int16
	Fill                  [6]int16
}

// imageSubheaderRecord is the on-disk layout of a 512-byte image subheader.
type imageSubheaderRecord struct {
	DataType              int16
	NumDimensions         int16
	XDimension            int16
	YDimension            int16
	ZDimension            int16
	XOffset               float32
	YOffset               float32
	ZOffset               float32
	ReconZoom             float32
	ScaleFactor           float32
	ImageMin              int16
	ImageMax              int16
	XPixelSize            float32
	YPixelSize            float32
	ZPixelSize            float32
	FrameDuration         int32
	FrameStartTime        int32
	FilterCode            int16
	XResolution           float32
	YResolution           float32
	ZResolution           float32
	NumRElements          float32
	NumAngles             float32
	ZRotationAngle        float32
	DecayCorrFctr         float32
	ProcessingCode        int32
	GateDuration          int32
	RWaveOffset           int32
	NumAcceptedBeats      int32
	FilterCutoffFrequency float32
	FilterResolution      float32
	FilterRampSlope       float32
	FilterOrder           int16
	FilterScatterFraction float32
	FilterScatterSlope    float32
	Annotation            [40]byte
	Fill                  [350]byte
}

// directoryBlock is one 512-byte matrix directory block: a four-word header
// (free entries, next block, previous block, used entries) then 31 entries.
type directoryBlock struct {
	NumFree  int32
	Next     int32
	Previous int32
	NumUsed  int32
	Entries  [31]directoryEntry
}

type directoryEntry struct {
	MatrixID   int32
	StartBlock int32
	EndBlock   int32
	Status     int32
}
