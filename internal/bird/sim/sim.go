// Package sim provides a simulated Flock of Birds that satisfies bird.Driver.
// The simulated sensor circles the transmitter at a fixed radius while
// slowly yawing, so every field of a frame changes between samples.
package sim

import (
	"math"
	"sync"
	"time"

	"fob_apiserver/internal/bird"
)

// Op names a driver call for failure injection.
type Op string

const (
	OpWakeUp          Op = "wakeup"
	OpShutDown        Op = "shutdown"
	OpStartStream     Op = "start_stream"
	OpStopStream      Op = "stop_stream"
	OpGetSystemConfig Op = "get_system_config"
	OpSetSystemConfig Op = "set_system_config"
	OpGetDeviceConfig Op = "get_device_config"
	OpSetDeviceConfig Op = "set_device_config"
)

const (
	DefaultReportRate = 100.0
	DefaultScaling    = 36
	DefaultRadius     = 12.0

	defaultSoftwareRev = 0x0403
)

type Options struct {
	// ReportRate is the number of frames per second while streaming.
	ReportRate float64
	// Scaling is reported in the device configuration, in inches.
	Scaling uint16
	// Radius of the simulated orbit, in inches.
	Radius float64
	// Fail lists driver calls that report failure.
	Fail []Op
}

func DefaultOptions() Options {
	return Options{
		ReportRate: DefaultReportRate,
		Scaling:    DefaultScaling,
		Radius:     DefaultRadius,
	}
}

// Driver is safe for concurrent use.
type Driver struct {
	mu sync.Mutex

	opt    Options
	fail   map[Op]bool
	now    func() time.Time
	calls  map[Op]int
	awake  bool
	stream bool

	ports    []uint16
	baud     uint32
	sysCfg   bird.SystemConfig
	devCfg   bird.DeviceConfig
	start    time.Time
	lastRead time.Time
	sample   uint32
}

func New(opt Options) *Driver {
	if opt.ReportRate <= 0 {
		opt.ReportRate = DefaultReportRate
	}
	if opt.Scaling == 0 {
		opt.Scaling = DefaultScaling
	}
	if opt.Radius <= 0 {
		opt.Radius = DefaultRadius
	}
	d := &Driver{
		opt:   opt,
		fail:  make(map[Op]bool),
		now:   time.Now,
		calls: make(map[Op]int),
	}
	for _, op := range opt.Fail {
		d.fail[op] = true
	}
	return d
}

// SetFail toggles failure injection for op.
func (d *Driver) SetFail(op Op, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[op] = fail
}

// SetClock replaces the time source.
func (d *Driver) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Calls returns how many times op was invoked.
func (d *Driver) Calls(op Op) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

func (d *Driver) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stream
}

func (d *Driver) Awake() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.awake
}

// Ports returns the ports and baud rate of the last wake-up.
func (d *Driver) Ports() ([]uint16, uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint16(nil), d.ports...), d.baud
}

// call must be invoked with mu held.
func (d *Driver) call(op Op) bool {
	d.calls[op]++
	return !d.fail[op]
}

func (d *Driver) RS232WakeUp(groupID int, standAlone bool, ports []uint16, baud uint32, readTimeout, writeTimeout uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpWakeUp) || len(ports) == 0 || baud == 0 {
		return false
	}
	d.ports = append([]uint16(nil), ports...)
	d.baud = baud
	d.awake = true
	d.stream = false
	d.start = d.now()
	d.lastRead = time.Time{}
	d.sample = 0
	d.sysCfg = bird.SystemConfig{
		NumDevices:      1,
		NumServers:      0,
		XmtrNum:         0,
		XtalFreq:        25,
		MeasurementRate: d.opt.ReportRate,
		ChassisNum:      0,
		ChassisDevices:  1,
		FirstDevice:     1,
		SoftwareRev:     defaultSoftwareRev,
	}
	d.sysCfg.FlockStatus[0] = 0x80
	d.devCfg = bird.DeviceConfig{
		Status:      0x80,
		ID:          1,
		SoftwareRev: defaultSoftwareRev,
		DataFormat:  bird.DataFormatPositionAndAngles,
		ReportRate:  1,
		Scaling:     d.opt.Scaling,
		FOBAddress:  0,
	}
	return true
}

func (d *Driver) ShutDown(groupID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	ok := d.call(OpShutDown)
	d.awake = false
	d.stream = false
	return ok
}

func (d *Driver) period() time.Duration {
	return time.Duration(float64(time.Second) / d.opt.ReportRate)
}

func (d *Driver) FrameReady(groupID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.awake || !d.stream {
		return false
	}
	return d.lastRead.IsZero() || d.now().Sub(d.lastRead) >= d.period()
}

func (d *Driver) GetMostRecentFrame(groupID int, frame *bird.RawFrame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.awake {
		return
	}
	now := d.now()
	d.lastRead = now
	d.sample++
	elapsed := now.Sub(d.start).Seconds()
	frame.Time = uint32(now.Sub(d.start).Milliseconds())
	frame.Readings[0] = d.reading(elapsed)
}

// reading samples the orbit at t seconds, filling only what the current data
// format selects.
func (d *Driver) reading(t float64) bird.Reading {
	var r bird.Reading
	format := d.devCfg.DataFormat
	theta := 2 * math.Pi * t / 10

	if format.HasPosition() {
		scale := float64(d.devCfg.Scaling)
		r.Position[0] = toRaw(d.opt.Radius*math.Cos(theta), scale)
		r.Position[1] = toRaw(d.opt.Radius*math.Sin(theta), scale)
		r.Position[2] = toRaw(2*math.Sin(theta*3), scale)
	}

	azimuth := math.Remainder(theta+math.Pi/2, 2*math.Pi)
	elevation := 0.1 * math.Sin(theta)
	roll := 0.0

	if format.HasAngles() {
		r.Angles[0] = toRaw(azimuth, math.Pi)
		r.Angles[1] = toRaw(elevation, math.Pi)
		r.Angles[2] = toRaw(roll, math.Pi)
	}
	if format.HasMatrix() {
		m := rotation(azimuth, elevation, roll)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				r.Matrix[i][j] = toRaw(m[i][j], 1)
			}
		}
	}
	if format.HasQuaternion() {
		q := quaternion(azimuth, elevation, roll)
		for i := 0; i < 4; i++ {
			r.Quaternion[i] = toRaw(q[i], 1)
		}
	}
	return r
}

func toRaw(v, scale float64) int16 {
	raw := math.Round(v / scale * bird.FullScale)
	if raw > math.MaxInt16 {
		return math.MaxInt16
	}
	if raw < math.MinInt16 {
		return math.MinInt16
	}
	return int16(raw)
}

func rotation(az, el, rl float64) [3][3]float64 {
	ca, sa := math.Cos(az), math.Sin(az)
	ce, se := math.Cos(el), math.Sin(el)
	cr, sr := math.Cos(rl), math.Sin(rl)
	return [3][3]float64{
		{ce * ca, ce * sa, -se},
		{-cr*sa + sr*se*ca, cr*ca + sr*se*sa, sr * ce},
		{sr*sa + cr*se*ca, -sr*ca + cr*se*sa, cr * ce},
	}
}

func quaternion(az, el, rl float64) [4]float64 {
	ca, sa := math.Cos(az/2), math.Sin(az/2)
	ce, se := math.Cos(el/2), math.Sin(el/2)
	cr, sr := math.Cos(rl/2), math.Sin(rl/2)
	return [4]float64{
		ca*ce*cr + sa*se*sr,
		ca*ce*sr - sa*se*cr,
		ca*se*cr + sa*ce*sr,
		sa*ce*cr - ca*se*sr,
	}
}

func (d *Driver) StartFrameStream(groupID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpStartStream) || !d.awake {
		return false
	}
	d.stream = true
	return true
}

func (d *Driver) StopFrameStream(groupID int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpStopStream) || !d.awake {
		return false
	}
	d.stream = false
	return true
}

func (d *Driver) GetSystemConfig(groupID int, cfg *bird.SystemConfig) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpGetSystemConfig) || !d.awake {
		return false
	}
	*cfg = d.sysCfg
	return true
}

func (d *Driver) SetSystemConfig(groupID int, cfg *bird.SystemConfig) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpSetSystemConfig) || !d.awake {
		return false
	}
	d.sysCfg = *cfg
	return true
}

func (d *Driver) GetDeviceConfig(groupID int, deviceID int, cfg *bird.DeviceConfig) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpGetDeviceConfig) || !d.awake || deviceID != 0 {
		return false
	}
	*cfg = d.devCfg
	return true
}

func (d *Driver) SetDeviceConfig(groupID int, deviceID int, cfg *bird.DeviceConfig) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.call(OpSetDeviceConfig) || !d.awake || deviceID != 0 || !cfg.DataFormat.Valid() {
		return false
	}
	d.devCfg = *cfg
	return true
}

var _ bird.Driver = &Driver{}
