package server

import (
	"context"
	"fob_apiserver/internal/config"
	managerImpl "fob_apiserver/internal/manager/fob"
	"fob_apiserver/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func newTestApp(t *testing.T) *mainApp {
	t.Helper()
	opt := config.NewFOBOpt()
	opt.Tracker.Driver = config.DriverSim
	opt.Tracker.SimRate = 500
	opt.Recorder.Path = filepath.Join(t.TempDir(), "frames.db")
	return &mainApp{opt: &opt, newManager: managerImpl.NewManager}
}

func TestRecord(t *testing.T) {
	a := newTestApp(t)

	n, err := a.Record(context.Background(), 400*time.Millisecond)
	require.NoError(t, err)
	assert.Greater(t, n, int64(10))

	rec, err := recorder.Open(a.opt.Recorder.Path)
	require.NoError(t, err)
	defer rec.Close()
	count, err := rec.Count()
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestRecordCancelled(t *testing.T) {
	a := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := a.Record(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordBadDriver(t *testing.T) {
	a := newTestApp(t)
	a.opt.Tracker.Driver = "serial"

	_, err := a.Record(context.Background(), time.Second)
	assert.Error(t, err)
}
