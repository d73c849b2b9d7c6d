package manager

import (
	"errors"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/sensor"
)

var (
	ErrNotReady   = errors.New("not ready")
	ErrNoNewData  = errors.New("no new data")
	ErrNotRunning = errors.New("manager is not running")
)

type Status struct {
	Running         bool            `json:"running"`
	Faulted         bool            `json:"faulted"`
	ManuallyStopped bool            `json:"manually_stopped"`
	Streaming       bool            `json:"streaming"`
	RunID           string          `json:"run_id"`
	Counter         int64           `json:"counter"`
	DataFormat      bird.DataFormat `json:"data_format"`
	Settings        bird.Settings   `json:"settings"`
}

type Manager interface {
	Start() error
	Stop() error
	Restart() error
	Recover() error
	Read(int64) (int64, []*sensor.FrameWrapped, error)
	Running() bool
	ManuallyStopped() bool
	Faulted() bool
	Status() Status
	SetStreaming(bool) error
	SetDataFormat(bird.DataFormat) error
	DataFormat() (bird.DataFormat, error)
	ListDev() ([]string, error)
	ProbeDev() ([]string, error)
	TrySleep() error
}
