package recorder

import (
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/sensor"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "frames.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func sampleFrame(seq uint64) *sensor.FrameWrapped {
	return &sensor.FrameWrapped{
		Frame: bird.Frame{
			X: 100, Y: -200, Z: 300,
			Azimuth: 1000, Elevation: -2000, Roll: 3000,
			Q0: 32767, Q1: 0, Q2: -1, Q3: 5,
			Matrix: [3][3]int16{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
		},
		ID:         "fob_0",
		Seq:        seq,
		SysTicks:   1700000000000000000 + int64(seq),
		DeviceTime: 4000000000,
		Scale:      36,
		Format:     bird.DataFormatPositionAndAngles,
	}
}

func TestWriteAndLoad(t *testing.T) {
	r := openTemp(t)

	want := []sensor.FrameWrapped{*sampleFrame(0), *sampleFrame(1)}
	for i := range want {
		require.NoError(t, r.Write("run-a", &want[i]))
	}
	require.NoError(t, r.Write("run-b", sampleFrame(0)))

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := r.Frames("run-a")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReplacesSameSeq(t *testing.T) {
	r := openTemp(t)
	f := sampleFrame(7)
	require.NoError(t, r.Write("run", f))
	f.X = -1
	require.NoError(t, r.Write("run", f))

	got, err := r.Frames("run")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int16(-1), got[0].X)
}

func TestWriteBatch(t *testing.T) {
	r := openTemp(t)
	var frames []*sensor.FrameWrapped
	for i := uint64(0); i < 50; i++ {
		frames = append(frames, sampleFrame(i))
	}
	require.NoError(t, r.WriteBatch("run", frames))

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	got, err := r.Frames("run")
	require.NoError(t, err)
	assert.Equal(t, uint64(49), got[49].Seq)
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "frames.db"))
	assert.Error(t, err)
}
