//go:build windows && cgo && birdsdk

// Package birdsdk binds bird.Driver to the vendor Flock of Birds SDK. Set
// CGO_CFLAGS / CGO_LDFLAGS so the compiler finds Bird.h and Bird.lib.
package birdsdk

/*
#cgo LDFLAGS: -lBird
#include "shim.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"fob_apiserver/internal/bird"
)

// sdkLock serialises calls into the SDK, which keeps process-wide state.
var sdkLock sync.Mutex

type driver struct{}

// New returns the SDK driver.
func New() (bird.Driver, error) {
	return driver{}, nil
}

func cbool(v C.int) bool { return v != 0 }

func (driver) RS232WakeUp(groupID int, standAlone bool, ports []uint16, baud uint32, readTimeout, writeTimeout uint32) bool {
	if len(ports) == 0 {
		return false
	}
	sdkLock.Lock()
	defer sdkLock.Unlock()
	cPorts := make([]C.ushort, len(ports))
	for i, p := range ports {
		cPorts[i] = C.ushort(p)
	}
	sa := C.int(0)
	if standAlone {
		sa = 1
	}
	return cbool(C.fob_wake_up(C.int(groupID), sa, C.int(len(cPorts)), (*C.ushort)(unsafe.Pointer(&cPorts[0])),
		C.ulong(baud), C.ulong(readTimeout), C.ulong(writeTimeout)))
}

// ShutDown always reports success: the SDK call has no result.
func (driver) ShutDown(groupID int) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	C.fob_shut_down(C.int(groupID))
	return true
}

func (driver) FrameReady(groupID int) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	return cbool(C.fob_frame_ready(C.int(groupID)))
}

func (driver) GetMostRecentFrame(groupID int, frame *bird.RawFrame) {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	var r C.fob_reading
	C.fob_most_recent_frame(C.int(groupID), 0, &r)

	frame.Time = uint32(r.time)
	out := &frame.Readings[0]
	for i := 0; i < 3; i++ {
		out.Position[i] = int16(r.position[i])
		out.Angles[i] = int16(r.angles[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Matrix[i][j] = int16(r.matrix[i*3+j])
		}
	}
	for i := 0; i < 4; i++ {
		out.Quaternion[i] = int16(r.quaternion[i])
	}
	out.Buttons = uint16(r.buttons)
}

func (driver) StartFrameStream(groupID int) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	return cbool(C.fob_start_stream(C.int(groupID)))
}

func (driver) StopFrameStream(groupID int) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	return cbool(C.fob_stop_stream(C.int(groupID)))
}

func (driver) GetSystemConfig(groupID int, cfg *bird.SystemConfig) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	var c C.fob_system_config
	if !cbool(C.fob_get_system_config(C.int(groupID), &c)) {
		return false
	}
	cfg.NumDevices = uint8(c.num_devices)
	cfg.MeasurementRate = float64(c.measurement_rate)
	cfg.SoftwareRev = uint16(c.software_rev)
	return true
}

func (driver) SetSystemConfig(groupID int, cfg *bird.SystemConfig) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	c := C.fob_system_config{
		num_devices:      C.uchar(cfg.NumDevices),
		measurement_rate: C.double(cfg.MeasurementRate),
		software_rev:     C.ushort(cfg.SoftwareRev),
	}
	return cbool(C.fob_set_system_config(C.int(groupID), &c))
}

func (driver) GetDeviceConfig(groupID int, deviceID int, cfg *bird.DeviceConfig) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	var c C.fob_device_config
	if !cbool(C.fob_get_device_config(C.int(groupID), C.int(deviceID), &c)) {
		return false
	}
	cfg.Status = uint8(c.status)
	cfg.ID = uint8(c.id)
	cfg.SoftwareRev = uint16(c.software_rev)
	cfg.Error = uint8(c.error)
	cfg.Setup = uint8(c.setup)
	cfg.DataFormat = bird.DataFormat(c.data_format)
	cfg.ReportRate = uint8(c.report_rate)
	cfg.Scaling = uint16(c.scaling)
	cfg.Hemisphere = uint8(c.hemisphere)
	cfg.FOBAddress = uint8(c.fob_address)
	cfg.TransmitterType = uint8(c.transmitter_type)
	return true
}

func (driver) SetDeviceConfig(groupID int, deviceID int, cfg *bird.DeviceConfig) bool {
	sdkLock.Lock()
	defer sdkLock.Unlock()
	c := C.fob_device_config{
		data_format: C.uchar(cfg.DataFormat),
		report_rate: C.uchar(cfg.ReportRate),
		hemisphere:  C.uchar(cfg.Hemisphere),
	}
	return cbool(C.fob_set_device_config(C.int(groupID), C.int(deviceID), &c))
}
