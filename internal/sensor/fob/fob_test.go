package fob

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/bird/birdsdk"
	"fob_apiserver/internal/bird/sim"
	"fob_apiserver/internal/config"
)

func newSimTracker(t *testing.T, format bird.DataFormat) (*Tracker, *sim.Driver) {
	t.Helper()
	opt := config.NewTrackerOpt()
	opt.DataFormat = int(format)
	d := sim.New(sim.DefaultOptions())
	return NewTracker(opt, d), d
}

func TestOpenCloseGuards(t *testing.T) {
	tr, d := newSimTracker(t, bird.DataFormatPositionAndAngles)

	assert.ErrorIs(t, tr.Close(), ErrNotOpen)
	require.NoError(t, tr.Open())
	assert.True(t, tr.Opened())
	assert.ErrorIs(t, tr.Open(), ErrAlreadyOpen)
	assert.Equal(t, 1, d.Calls(sim.OpWakeUp))

	require.NoError(t, tr.Close())
	assert.False(t, tr.Opened())
	assert.ErrorIs(t, tr.Close(), ErrNotOpen)
}

func TestOpenAppliesDataFormat(t *testing.T) {
	tr, d := newSimTracker(t, bird.DataFormatPositionAndQuaternion)
	require.NoError(t, tr.Open())
	assert.Equal(t, bird.DataFormatPositionAndQuaternion, tr.DataFormat())
	assert.Equal(t, 1, d.Calls(sim.OpSetDeviceConfig))

	same, d2 := newSimTracker(t, bird.DataFormatPositionAndAngles)
	require.NoError(t, same.Open())
	assert.Equal(t, 0, d2.Calls(sim.OpSetDeviceConfig), "format already matches")
}

func TestOpenFailureLeavesClosed(t *testing.T) {
	tr, d := newSimTracker(t, bird.DataFormatMatrix)
	d.SetFail(sim.OpSetDeviceConfig, true)

	err := tr.Open()
	var devErr *bird.DeviceError
	require.True(t, errors.As(err, &devErr))
	assert.False(t, tr.Opened())
	assert.False(t, d.Awake())
}

func TestOpenConfigFailureShutsDown(t *testing.T) {
	for _, op := range []sim.Op{sim.OpGetSystemConfig, sim.OpGetDeviceConfig} {
		tr, d := newSimTracker(t, bird.DataFormatPositionAndAngles)
		d.SetFail(op, true)

		require.Error(t, tr.Open(), op)
		assert.False(t, tr.Opened(), op)
		assert.False(t, d.Awake(), op)
		assert.Equal(t, 1, d.Calls(sim.OpShutDown), op)

		d.SetFail(op, false)
		require.NoError(t, tr.Open(), op)
	}
}

func TestReadBeforeOpen(t *testing.T) {
	tr, _ := newSimTracker(t, bird.DataFormatPosition)
	_, err := tr.Read()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestReadAndAccessors(t *testing.T) {
	tr, d := newSimTracker(t, bird.DataFormatPositionAndAngles)
	start := time.Unix(1700000000, 0)
	d.SetClock(func() time.Time { return start.Add(2500 * time.Millisecond) })
	require.NoError(t, tr.Open())
	require.NoError(t, tr.StartStreaming())
	assert.True(t, tr.Streaming())
	assert.True(t, tr.FrameReady())

	first, err := tr.Read()
	require.NoError(t, err)
	second, err := tr.Read()
	require.NoError(t, err)

	assert.Equal(t, uint64(0), first.Seq)
	assert.Equal(t, uint64(1), second.Seq)
	assert.Equal(t, config.DefaultTrackerID, first.ID)
	assert.Equal(t, float64(sim.DefaultScaling), first.Scale)
	assert.Equal(t, bird.DataFormatPositionAndAngles, first.Format)
	assert.Equal(t, float64(sim.DefaultScaling), tr.Scaling())

	pos := tr.ScaledPosition()
	assert.Equal(t, pos, first.Position())
	assert.Equal(t, tr.RawPosition(), [3]int16{first.X, first.Y, first.Z})
	assert.Equal(t, first.X, tr.Raw(bird.OffsetX))
	assert.Equal(t, tr.RawAngles()[0], first.Azimuth)

	deg := tr.AnglesDegrees()
	rad := tr.AnglesRadians()
	assert.InDelta(t, deg[0]*3.14159265/180, rad[0], 1e-6)

	assert.Equal(t, [4]int16{}, tr.RawQuaternion(), "quaternion not in data format")
	assert.Equal(t, [4]float64{}, tr.ScaledQuaternion())
	assert.Equal(t, [3][3]int16{}, tr.RawMatrix())
	assert.Equal(t, [3][3]float64{}, tr.ScaledMatrix())

	require.NoError(t, tr.StopStreaming())
	assert.False(t, tr.Streaming())
}

func TestStreamingFailure(t *testing.T) {
	tr, d := newSimTracker(t, bird.DataFormatPosition)
	require.NoError(t, tr.Open())
	d.SetFail(sim.OpStartStream, true)
	assert.Error(t, tr.StartStreaming())
	assert.False(t, tr.Streaming())
}

func TestSetDataFormatValidates(t *testing.T) {
	tr, d := newSimTracker(t, bird.DataFormatPosition)
	require.NoError(t, tr.Open())
	assert.Error(t, tr.SetDataFormat(bird.DataFormat(42)))
	assert.Equal(t, 1, d.Calls(sim.OpSetDeviceConfig))
	require.NoError(t, tr.SetDataFormat(bird.DataFormatAngles))
	assert.Equal(t, bird.DataFormatAngles, tr.DataFormat())
}

func TestSettings(t *testing.T) {
	tr, _ := newSimTracker(t, bird.DataFormatPosition)
	require.NoError(t, tr.Open())
	assert.Equal(t, bird.DefaultSettings(), tr.Settings())
}

func TestNewDriver(t *testing.T) {
	opt := config.NewTrackerOpt()
	d, err := NewDriver(opt)
	require.NoError(t, err)
	assert.IsType(t, &sim.Driver{}, d)

	opt.Driver = "nope"
	_, err = NewDriver(opt)
	assert.Error(t, err)
}

func TestNewSensorWithoutSDK(t *testing.T) {
	opt := config.NewTrackerOpt()
	opt.Driver = config.DriverBirdSDK
	_, err := NewSensor(opt)
	assert.ErrorIs(t, err, birdsdk.ErrUnavailable)
}

func TestNewSensorOpens(t *testing.T) {
	tr, err := NewSensor(config.NewTrackerOpt())
	require.NoError(t, err)
	assert.True(t, tr.Opened())
	require.NoError(t, tr.Close())
}
