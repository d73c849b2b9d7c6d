package bird

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultPort         = 1
	DefaultBaudRate     = 115200
	DefaultReadTimeout  = 2000
	DefaultWriteTimeout = 2000

	// DefaultGroupID is the SDK group a standalone bird is woken up in.
	DefaultGroupID = 1
)

// Settings are the RS232 parameters handed to the SDK on wake-up. Timeouts
// are in milliseconds.
type Settings struct {
	Port         int
	BaudRate     int
	ReadTimeout  int
	WriteTimeout int
}

func DefaultSettings() Settings {
	return Settings{
		Port:         DefaultPort,
		BaudRate:     DefaultBaudRate,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// Session binds one standalone bird to a Driver. A Session is not safe for
// concurrent use and does not check call ordering: calls made before Open go
// straight to the driver.
type Session struct {
	driver   Driver
	groupID  int
	deviceID int

	settings Settings
	sysCfg   SystemConfig
	devCfg   DeviceConfig
	frame    RawFrame
	cached   bool
}

func NewSession(driver Driver) *Session {
	return &Session{
		driver:   driver,
		groupID:  DefaultGroupID,
		deviceID: 0,
		settings: DefaultSettings(),
	}
}

// Open wakes up the bird on a single port in standalone mode and caches its
// system and device configuration.
func (s *Session) Open(settings Settings) error {
	s.settings = settings
	s.cached = false
	s.sysCfg = SystemConfig{}
	s.devCfg = DeviceConfig{}

	ports := []uint16{uint16(settings.Port)}
	log.Debugf("waking up bird on port %d at %d baud", settings.Port, settings.BaudRate)
	if !s.driver.RS232WakeUp(s.groupID, true, ports, uint32(settings.BaudRate),
		uint32(settings.ReadTimeout), uint32(settings.WriteTimeout)) {
		return newDeviceError("open", "error waking up the FOB device during open")
	}

	// a bird that woke up must be shut down again, or the port stays held
	var sysCfg SystemConfig
	if !s.driver.GetSystemConfig(s.groupID, &sysCfg) {
		s.shutDown()
		return newDeviceError("open", "error grabbing FOB system configuration during open")
	}
	s.sysCfg = sysCfg

	var devCfg DeviceConfig
	if !s.driver.GetDeviceConfig(s.groupID, s.deviceID, &devCfg) {
		s.shutDown()
		return newDeviceError("open", "error grabbing FOB device configuration during open")
	}
	s.devCfg = devCfg
	s.cached = true
	return nil
}

// Close shuts the bird down and drops the cached configuration. Teardown is
// best effort: a shutdown failure is logged and otherwise ignored.
func (s *Session) Close() {
	s.shutDown()
}

func (s *Session) shutDown() {
	if !s.driver.ShutDown(s.groupID) {
		log.Warnf("bird group %d did not shut down cleanly", s.groupID)
	}
	s.cached = false
	s.sysCfg = SystemConfig{}
	s.devCfg = DeviceConfig{}
}

// FrameReady reports whether a new frame is waiting.
func (s *Session) FrameReady() bool {
	return s.driver.FrameReady(s.groupID)
}

func (s *Session) fetch() Frame {
	s.driver.GetMostRecentFrame(s.groupID, &s.frame)
	return FrameFromReading(&s.frame.Readings[s.deviceID])
}

// ReadFrame fetches the most recent frame into buf at the fixed offsets and
// returns the position scale factor. buf is fully overwritten.
func (s *Session) ReadFrame(buf []int16) (float64, error) {
	if len(buf) < NumValues {
		return 0, newDeviceError("read frame",
			fmt.Sprintf("frame buffer holds %d values, need %d", len(buf), NumValues))
	}
	f := s.fetch()
	f.Flatten(buf)
	return s.ScaleFactor(), nil
}

// ReadFrameRecord is ReadFrame returning a Frame instead of filling a buffer.
func (s *Session) ReadFrameRecord() (Frame, float64) {
	return s.fetch(), s.ScaleFactor()
}

// FrameTime is the SDK timestamp of the last fetched frame.
func (s *Session) FrameTime() uint32 {
	return s.frame.Time
}

func (s *Session) StartStreaming() error {
	if !s.driver.StartFrameStream(s.groupID) {
		return newDeviceError("start streaming", "error when attempting to start the streaming")
	}
	return nil
}

func (s *Session) StopStreaming() error {
	if !s.driver.StopFrameStream(s.groupID) {
		return newDeviceError("stop streaming", "error when attempting to stop the streaming")
	}
	return nil
}

// SetDataFormat updates the cached device configuration and pushes it to the
// bird.
func (s *Session) SetDataFormat(format DataFormat) error {
	s.devCfg.DataFormat = format
	if !s.driver.SetDeviceConfig(s.groupID, s.deviceID, &s.devCfg) {
		return newDeviceError("set data format", "error setting the data format configuration")
	}
	return nil
}

// DataFormat returns the cached data format without asking the bird.
func (s *Session) DataFormat() DataFormat {
	return s.devCfg.DataFormat
}

// ScaleFactor is the cached full-scale position range.
func (s *Session) ScaleFactor() float64 {
	return float64(s.devCfg.Scaling)
}

func (s *Session) Settings() Settings {
	return s.settings
}

// SystemConfig returns the cached system configuration and whether Open
// managed to cache one.
func (s *Session) SystemConfig() (SystemConfig, bool) {
	return s.sysCfg, s.cached
}

// DeviceConfig returns the cached device configuration and whether Open
// managed to cache one.
func (s *Session) DeviceConfig() (DeviceConfig, bool) {
	return s.devCfg, s.cached
}
