package sensor

import "fob_apiserver/internal/bird"

// FrameWrapped is one frame as handed out by a Sensor.
type FrameWrapped struct {
	bird.Frame
	ID         string
	Seq        uint64
	SysTicks   int64
	DeviceTime uint32
	Scale      float64
	Format     bird.DataFormat
}

// Position returns the scaled position in inches.
func (f *FrameWrapped) Position() [3]float64 {
	return f.Frame.Position(f.Scale)
}

type Sensor interface {
	Open() error
	Close() error
	Read() (FrameWrapped, error)
	FrameReady() bool
	StartStreaming() error
	StopStreaming() error
	Streaming() bool
	SetDataFormat(bird.DataFormat) error
	DataFormat() bird.DataFormat
	Settings() bird.Settings
	ID() string
	Seq() uint64
}
