package fob

import (
	"errors"
	"fmt"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/bird/birdsdk"
	"fob_apiserver/internal/bird/sim"
	"fob_apiserver/internal/config"
	"fob_apiserver/internal/sensor"
	log "github.com/sirupsen/logrus"
	"time"
)

var (
	ErrAlreadyOpen = errors.New("the FOB is already open")
	ErrNotOpen     = errors.New("the FOB was never opened")
)

// NewDriver picks the bird.Driver named by opt.Driver.
func NewDriver(opt config.TrackerOpt) (bird.Driver, error) {
	switch opt.Driver {
	case config.DriverSim:
		simOpt := sim.DefaultOptions()
		if opt.SimRate > 0 {
			simOpt.ReportRate = opt.SimRate
		}
		return sim.New(simOpt), nil
	case config.DriverBirdSDK:
		return birdsdk.New()
	default:
		return nil, fmt.Errorf("unknown tracker driver: %q", opt.Driver)
	}
}

// Tracker is a Flock of Birds running in standalone mode: a single sensor at
// address zero. Tracker cannot be accessed by two goroutines at the same time.
type Tracker struct {
	id        string
	opt       config.TrackerOpt
	session   *bird.Session
	data      [bird.NumValues]int16
	scale     float64
	opened    bool
	streaming bool
	seq       uint64
}

func (t *Tracker) ID() string {
	return t.id
}

func (t *Tracker) Seq() uint64 {
	return t.seq
}

func (t *Tracker) Opened() bool {
	return t.opened
}

func (t *Tracker) Streaming() bool {
	return t.streaming
}

// Open wakes up the bird and applies the configured data format.
func (t *Tracker) Open() error {
	if t.opened {
		return ErrAlreadyOpen
	}
	if err := t.session.Open(t.opt.Settings()); err != nil {
		return err
	}
	t.opened = true
	t.seq = 0
	t.streaming = false

	format := bird.DataFormat(t.opt.DataFormat)
	if t.session.DataFormat() != format {
		if err := t.session.SetDataFormat(format); err != nil {
			log.Warnln(err)
			_ = t.Close()
			return err
		}
	}
	log.Debugf("tracker %s open on port %d, data format %v", t.id, t.opt.Port, format)
	return nil
}

// Close shuts the bird down.
func (t *Tracker) Close() error {
	if !t.opened {
		return ErrNotOpen
	}
	t.session.Close()
	t.opened = false
	t.streaming = false
	return nil
}

func (t *Tracker) FrameReady() bool {
	return t.session.FrameReady()
}

// Refresh pulls the most recent frame from the bird. Until Refresh is called
// the accessors keep returning the previous values. Only the fields selected
// by the data format are meaningful.
func (t *Tracker) Refresh() error {
	scale, err := t.session.ReadFrame(t.data[:])
	if err != nil {
		return err
	}
	t.scale = scale
	return nil
}

// Read refreshes and returns the new frame.
func (t *Tracker) Read() (sensor.FrameWrapped, error) {
	if !t.opened {
		return sensor.FrameWrapped{}, ErrNotOpen
	}
	if err := t.Refresh(); err != nil {
		return sensor.FrameWrapped{}, err
	}
	wrapped := sensor.FrameWrapped{
		Frame:      t.Frame(),
		ID:         t.id,
		Seq:        t.seq,
		SysTicks:   time.Now().UnixNano(),
		DeviceTime: t.session.FrameTime(),
		Scale:      t.scale,
		Format:     t.session.DataFormat(),
	}
	t.seq++
	return wrapped, nil
}

// StartStreaming is slow on real hardware, call it rarely.
func (t *Tracker) StartStreaming() error {
	if err := t.session.StartStreaming(); err != nil {
		return err
	}
	t.streaming = true
	return nil
}

func (t *Tracker) StopStreaming() error {
	if err := t.session.StopStreaming(); err != nil {
		return err
	}
	t.streaming = false
	return nil
}

func (t *Tracker) SetDataFormat(format bird.DataFormat) error {
	if !format.Valid() {
		return fmt.Errorf("invalid data format: %d", format)
	}
	return t.session.SetDataFormat(format)
}

func (t *Tracker) DataFormat() bird.DataFormat {
	return t.session.DataFormat()
}

func (t *Tracker) Settings() bird.Settings {
	return t.session.Settings()
}

// Scaling is the scale factor returned by the last Refresh.
func (t *Tracker) Scaling() float64 {
	return t.scale
}

// Frame returns the last refreshed frame.
func (t *Tracker) Frame() bird.Frame {
	return bird.FrameFromBuffer(t.data[:])
}

// Raw returns one raw value by its frame offset.
func (t *Tracker) Raw(offset int) int16 {
	return t.data[offset]
}

func (t *Tracker) RawPosition() [3]int16 {
	return [3]int16{t.data[bird.OffsetX], t.data[bird.OffsetY], t.data[bird.OffsetZ]}
}

func (t *Tracker) RawAngles() [3]int16 {
	return [3]int16{t.data[bird.OffsetAzimuth], t.data[bird.OffsetElevation], t.data[bird.OffsetRoll]}
}

func (t *Tracker) RawQuaternion() [4]int16 {
	return [4]int16{t.data[bird.OffsetQ0], t.data[bird.OffsetQ1], t.data[bird.OffsetQ2], t.data[bird.OffsetQ3]}
}

func (t *Tracker) RawMatrix() [3][3]int16 {
	return t.Frame().Matrix
}

// ScaledPosition is the position vector in inches.
func (t *Tracker) ScaledPosition() [3]float64 {
	f := t.Frame()
	return f.Position(t.scale)
}

func (t *Tracker) AnglesDegrees() [3]float64 {
	f := t.Frame()
	return f.AnglesDegrees()
}

func (t *Tracker) AnglesRadians() [3]float64 {
	f := t.Frame()
	return f.AnglesRadians()
}

func (t *Tracker) ScaledQuaternion() [4]float64 {
	f := t.Frame()
	return f.ScaledQuaternion()
}

func (t *Tracker) ScaledMatrix() [3][3]float64 {
	f := t.Frame()
	return f.ScaledMatrix()
}

var _ sensor.Sensor = &Tracker{}

// NewTracker builds a tracker on driver without opening it.
func NewTracker(opt config.TrackerOpt, driver bird.Driver) *Tracker {
	return &Tracker{
		id:      opt.ID,
		opt:     opt,
		session: bird.NewSession(driver),
	}
}

// NewSensor builds and opens a tracker with the driver named in opt.
func NewSensor(opt config.TrackerOpt) (*Tracker, error) {
	driver, err := NewDriver(opt)
	if err != nil {
		return nil, err
	}
	t := NewTracker(opt, driver)
	if err := t.Open(); err != nil {
		log.Warnln(err)
		return nil, err
	}
	return t, nil
}
