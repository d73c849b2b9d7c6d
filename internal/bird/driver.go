package bird

import "strconv"

// MaxBirds is the number of readings carried by one RawFrame.
const MaxBirds = 126

// DataFormat selects which subset of orientation data the bird reports.
type DataFormat uint8

const (
	DataFormatNoData                DataFormat = 0
	DataFormatPosition              DataFormat = 1
	DataFormatAngles                DataFormat = 2
	DataFormatMatrix                DataFormat = 3
	DataFormatPositionAndAngles     DataFormat = 4
	DataFormatPositionAndMatrix     DataFormat = 5
	DataFormatQuaternion            DataFormat = 7
	DataFormatPositionAndQuaternion DataFormat = 8
)

var dataFormatNames = map[DataFormat]string{
	DataFormatNoData:                "no_data",
	DataFormatPosition:              "position",
	DataFormatAngles:                "angles",
	DataFormatMatrix:                "matrix",
	DataFormatPositionAndAngles:     "position_angles",
	DataFormatPositionAndMatrix:     "position_matrix",
	DataFormatQuaternion:            "quaternion",
	DataFormatPositionAndQuaternion: "position_quaternion",
}

func (f DataFormat) String() string {
	if name, ok := dataFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether f is one of the codes the bird understands.
func (f DataFormat) Valid() bool {
	_, ok := dataFormatNames[f]
	return ok
}

// HasPosition reports whether frames in this format carry position data.
func (f DataFormat) HasPosition() bool {
	switch f {
	case DataFormatPosition, DataFormatPositionAndAngles,
		DataFormatPositionAndMatrix, DataFormatPositionAndQuaternion:
		return true
	}
	return false
}

// HasAngles reports whether frames in this format carry euler angles.
func (f DataFormat) HasAngles() bool {
	return f == DataFormatAngles || f == DataFormatPositionAndAngles
}

// HasMatrix reports whether frames in this format carry the rotation matrix.
func (f DataFormat) HasMatrix() bool {
	return f == DataFormatMatrix || f == DataFormatPositionAndMatrix
}

// HasQuaternion reports whether frames in this format carry a quaternion.
func (f DataFormat) HasQuaternion() bool {
	return f == DataFormatQuaternion || f == DataFormatPositionAndQuaternion
}

// ParseDataFormat accepts either a format name or its numeric code.
func ParseDataFormat(s string) (DataFormat, bool) {
	for f, name := range dataFormatNames {
		if name == s {
			return f, true
		}
	}
	code, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	f := DataFormat(code)
	return f, f.Valid()
}

// SystemConfig mirrors the SDK's system-wide configuration block.
type SystemConfig struct {
	SystemStatus    uint8
	Error           uint8
	NumDevices      uint8
	NumServers      uint8
	XmtrNum         uint8
	XtalFreq        uint16
	MeasurementRate float64
	ChassisNum      uint8
	ChassisDevices  uint8
	FirstDevice     uint8
	SoftwareRev     uint16
	FlockStatus     [MaxBirds]uint8
}

// DeviceConfig mirrors the SDK's per-bird configuration block. Scaling is the
// full-scale position range in inches.
type DeviceConfig struct {
	Status          uint8
	ID              uint8
	SoftwareRev     uint16
	Error           uint8
	Setup           uint8
	DataFormat      DataFormat
	ReportRate      uint8
	Scaling         uint16
	Hemisphere      uint8
	FOBAddress      uint8
	TransmitterType uint8
	AlphaMin        [7]uint16
	AlphaMax        [7]uint16
	VM              [7]uint16
}

// Reading is one bird's sample in the SDK's raw fixed-point units.
type Reading struct {
	Position   [3]int16
	Angles     [3]int16
	Matrix     [3][3]int16
	Quaternion [4]int16
	Buttons    uint16
}

// RawFrame is what GetMostRecentFrame fills in.
type RawFrame struct {
	Time     uint32
	Readings [MaxBirds]Reading
}

// Driver is the vendor SDK function table. Every call reports success as a
// boolean exactly like the SDK does; the SDK keeps no error detail.
type Driver interface {
	RS232WakeUp(groupID int, standAlone bool, ports []uint16, baud uint32, readTimeout, writeTimeout uint32) bool
	ShutDown(groupID int) bool
	FrameReady(groupID int) bool
	GetMostRecentFrame(groupID int, frame *RawFrame)
	StartFrameStream(groupID int) bool
	StopFrameStream(groupID int) bool
	GetSystemConfig(groupID int, cfg *SystemConfig) bool
	SetSystemConfig(groupID int, cfg *SystemConfig) bool
	GetDeviceConfig(groupID int, deviceID int, cfg *DeviceConfig) bool
	SetDeviceConfig(groupID int, deviceID int, cfg *DeviceConfig) bool
}
