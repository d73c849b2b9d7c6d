package fob

import (
	"context"
	"errors"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/config"
	"fob_apiserver/internal/manager"
	"fob_apiserver/internal/sensor"
	fobsensor "fob_apiserver/internal/sensor/fob"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"math"
	"sync"
	"time"
)

const BufLen = 1024

const defaultPollInterval = time.Millisecond
const defaultFrameTimeout = 5 * time.Second

// SensorFactory opens the tracker a manager runs.
type SensorFactory func(opt config.TrackerOpt) (sensor.Sensor, error)

func openTracker(opt config.TrackerOpt) (sensor.Sensor, error) {
	return fobsensor.NewSensor(opt)
}

type fobManager struct {
	opt              *config.FOBOpt
	newSensor        SensorFactory
	tracker          sensor.Sensor
	ringBuffer       []*sensor.FrameWrapped
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	ctlLock          sync.Mutex
	lock             sync.RWMutex
	counter          int64
	runID            string
	manuallyStopped  bool
	faulted          bool
	lastAccessSecond int64
	pollInterval     time.Duration
	frameTimeout     time.Duration
}

func (m *fobManager) touch() {
	m.lock.Lock()
	m.lastAccessSecond = time.Now().Unix()
	m.lock.Unlock()
}

// TrySleep stops a running manager nobody has read from for a while.
func (m *fobManager) TrySleep() error {
	autoSleep := int64(m.opt.Tracker.AutoSleep)
	if autoSleep <= 0 {
		return nil
	}
	m.lock.Lock()
	idle := time.Now().Unix()-m.lastAccessSecond > autoSleep
	running := m.tracker != nil && !m.faulted
	if running && idle {
		m.lastAccessSecond = math.MaxInt64
	}
	m.lock.Unlock()

	if running && idle {
		log.Infof("timeout after %v seconds, enter sleep mode", autoSleep)
		return m.Stop()
	}
	return nil
}

// ListDev returns the id of the open tracker.
func (m *fobManager) ListDev() ([]string, error) {
	m.touch()
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.tracker == nil {
		return []string{}, nil
	}
	return []string{m.tracker.ID()}, nil
}

func (m *fobManager) ProbeDev() ([]string, error) {
	return ProbePorts(m.opt.Tracker.Baud)
}

func (m *fobManager) Running() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.tracker != nil && !m.faulted
}

func (m *fobManager) Faulted() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.faulted
}

func (m *fobManager) ManuallyStopped() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.manuallyStopped
}

func (m *fobManager) Status() manager.Status {
	m.lock.RLock()
	defer m.lock.RUnlock()
	st := manager.Status{
		Running:         m.tracker != nil && !m.faulted,
		Faulted:         m.faulted,
		ManuallyStopped: m.manuallyStopped,
		RunID:           m.runID,
		Counter:         m.counter,
		Settings:        m.opt.Tracker.Settings(),
		DataFormat:      bird.DataFormat(m.opt.Tracker.DataFormat),
	}
	if m.tracker != nil {
		st.Streaming = m.tracker.Streaming()
		st.DataFormat = m.tracker.DataFormat()
		st.Settings = m.tracker.Settings()
	}
	return st
}

// poll reads every frame the tracker reports ready into the ring buffer.
func (m *fobManager) poll(ctx context.Context, tracker sensor.Sensor) {
	defer m.wg.Done()

	diagLastCheck := time.Now()
	diagLastCounter := int64(0)
	lastFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.lock.Lock()
		ready := tracker.FrameReady()
		streaming := tracker.Streaming()
		if ready {
			frame, err := tracker.Read()
			if err != nil {
				log.Warnf("tracker %v read error: %v", tracker.ID(), err)
				m.faulted = true
				m.lock.Unlock()
				return
			}
			m.ringBuffer[m.counter%BufLen] = &frame
			m.counter++
			lastFrame = time.Now()
		} else if !streaming {
			lastFrame = time.Now()
		} else if time.Since(lastFrame) > m.frameTimeout {
			log.Warnf("tracker %v sent no frame for %v", tracker.ID(), m.frameTimeout)
			m.faulted = true
			m.lock.Unlock()
			return
		}
		counter := m.counter
		m.lock.Unlock()

		if d := time.Since(diagLastCheck).Seconds(); d >= 10 {
			log.Debugf("poll fps: %3.1f", float64(counter-diagLastCounter)/d)
			diagLastCounter = counter
			diagLastCheck = time.Now()
		}

		if !ready {
			time.Sleep(m.pollInterval)
		}
	}
}

// Start opens the tracker, starts streaming and begins polling.
func (m *fobManager) Start() error {
	m.ctlLock.Lock()
	defer m.ctlLock.Unlock()

	m.lock.Lock()
	defer m.lock.Unlock()
	m.lastAccessSecond = time.Now().Unix()

	if m.tracker == nil {
		if err := m.opt.Tracker.Validate(); err != nil {
			return err
		}
		tracker, err := m.newSensor(m.opt.Tracker)
		if err != nil {
			return err
		}
		if err := tracker.StartStreaming(); err != nil {
			_ = tracker.Close()
			return err
		}
		m.tracker = tracker
		m.faulted = false
		m.counter = 0
		m.ringBuffer = make([]*sensor.FrameWrapped, BufLen)
		m.runID = uuid.NewString()
		m.ctx, m.cancel = context.WithCancel(context.Background())
		m.wg.Add(1)
		go m.poll(m.ctx, tracker)
		log.Infof("manager started, run %s", m.runID)
	}
	m.manuallyStopped = false
	return nil
}

// Stop stops polling, stops streaming and closes the tracker. A stopped
// manager is left alone by Daemon until Start is called again.
func (m *fobManager) Stop() error {
	return m.stop(true)
}

// Recover closes a faulted tracker and opens it again. Unlike Stop it does
// not mark the manager as manually stopped, so Daemon keeps retrying when
// the new start fails.
func (m *fobManager) Recover() error {
	if err := m.stop(false); err != nil {
		log.Warnln(err)
	}
	return m.Start()
}

func (m *fobManager) stop(manual bool) error {
	m.ctlLock.Lock()
	defer m.ctlLock.Unlock()

	m.lock.Lock()
	m.lastAccessSecond = time.Now().Unix()
	tracker, cancel := m.tracker, m.cancel
	if manual {
		m.manuallyStopped = true
	}
	m.lock.Unlock()

	if tracker == nil {
		return nil
	}
	cancel()
	m.wg.Wait()

	m.lock.Lock()
	defer m.lock.Unlock()
	var err error
	if tracker.Streaming() {
		if stopErr := tracker.StopStreaming(); stopErr != nil {
			log.Warnln(stopErr)
		}
	}
	if closeErr := tracker.Close(); closeErr != nil {
		err = closeErr
	}
	m.tracker = nil
	m.faulted = false
	m.counter = 0
	m.ringBuffer = make([]*sensor.FrameWrapped, BufLen)
	log.Infof("manager stopped, run %s", m.runID)
	return err
}

// Restart restarts the sensor manager
func (m *fobManager) Restart() error {
	err := m.Stop()
	if err != nil {
		return err
	}
	return m.Start()
}

// SetStreaming starts or stops the frame stream of the running tracker.
func (m *fobManager) SetStreaming(on bool) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.lastAccessSecond = time.Now().Unix()
	if m.tracker == nil || m.faulted {
		return manager.ErrNotRunning
	}
	if on == m.tracker.Streaming() {
		return nil
	}
	if on {
		return m.tracker.StartStreaming()
	}
	return m.tracker.StopStreaming()
}

// SetDataFormat changes the running tracker's data format and remembers it
// for the next start.
func (m *fobManager) SetDataFormat(format bird.DataFormat) error {
	if !format.Valid() {
		return errors.New("invalid data format")
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.lastAccessSecond = time.Now().Unix()
	if m.tracker != nil && !m.faulted {
		if err := m.tracker.SetDataFormat(format); err != nil {
			return err
		}
	}
	m.opt.Tracker.DataFormat = int(format)
	return nil
}

// DataFormat is the tracker's cached format, or the configured one when the
// tracker is not open.
func (m *fobManager) DataFormat() (bird.DataFormat, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.tracker != nil {
		return m.tracker.DataFormat(), nil
	}
	return bird.DataFormat(m.opt.Tracker.DataFormat), nil
}

// Read returns frames after cursor and the cursor of the last one returned.
// A negative cursor asks for the latest frame only. When the reader falls
// more than BufLen frames behind, the oldest frames are skipped.
func (m *fobManager) Read(cursor int64) (int64, []*sensor.FrameWrapped, error) {
	m.touch()
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.tracker == nil {
		return cursor, nil, manager.ErrNotRunning
	}

	if cursor < 0 {
		cursor = m.counter - 1
		if cursor < 0 {
			return cursor, nil, manager.ErrNotReady
		}
		return cursor, []*sensor.FrameWrapped{m.ringBuffer[cursor%BufLen]}, nil
	}

	if cursor+1 >= m.counter {
		return cursor, nil, manager.ErrNoNewData
	}
	next := cursor + 1
	if m.counter-next > BufLen {
		next = m.counter - BufLen
	}
	res := make([]*sensor.FrameWrapped, 0, m.counter-next)
	for ; next < m.counter; next++ {
		res = append(res, m.ringBuffer[next%BufLen])
	}
	return m.counter - 1, res, nil
}

func NewManager(opt *config.FOBOpt) manager.Manager {
	return NewManagerWithFactory(opt, openTracker)
}

func NewManagerWithFactory(opt *config.FOBOpt, factory SensorFactory) manager.Manager {
	return &fobManager{
		opt:              opt,
		newSensor:        factory,
		tracker:          nil,
		ringBuffer:       make([]*sensor.FrameWrapped, BufLen),
		counter:          0,
		manuallyStopped:  false,
		faulted:          false,
		lastAccessSecond: time.Now().Unix(),
		pollInterval:     defaultPollInterval,
		frameTimeout:     defaultFrameTimeout,
	}
}

// Daemon keeps m running until ctx is done: a faulted manager is stopped and
// restarted, an idle one is put to sleep.
func Daemon(ctx context.Context, m manager.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if m.Faulted() {
			log.Infoln("status is faulted, restarting")
			if err := m.Recover(); err != nil {
				log.Errorln(err)
			}
		} else if !m.Running() && !m.ManuallyStopped() {
			if err := m.Start(); err != nil {
				log.Errorln(err)
			}
		}
		_ = m.TrySleep()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
