package bird

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestFlattenRoundTrip(t *testing.T) {
	r := sampleReading()
	f := FrameFromReading(&r)

	buf := make([]int16, NumValues+3)
	f.Flatten(buf)
	got := FrameFromBuffer(buf)

	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int16(0), buf[NumValues], "values past the frame are untouched")
}

func TestMatrixIsRowMajor(t *testing.T) {
	f := Frame{Matrix: [3][3]int16{{11, 12, 13}, {21, 22, 23}, {31, 32, 33}}}
	buf := make([]int16, NumValues)
	f.Flatten(buf)

	assert.Equal(t, int16(12), buf[OffsetM12])
	assert.Equal(t, int16(21), buf[OffsetM21])
	assert.Equal(t, int16(33), buf[OffsetM33])
}

func TestScaledValues(t *testing.T) {
	f := Frame{
		X: 32767, Y: -16384, Z: 0,
		Azimuth: 16384, Elevation: -32767, Roll: 0,
		Q0: 32767,
		Matrix: [3][3]int16{{32767, 0, 0}, {0, 32767, 0}, {0, 0, 32767}},
	}
	approx := cmpopts.EquateApprox(0, 1e-2)

	if diff := cmp.Diff([3]float64{36, -18, 0}, f.Position(36), approx); diff != "" {
		t.Errorf("position (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([3]float64{90, -180, 0}, f.AnglesDegrees(), approx); diff != "" {
		t.Errorf("degrees (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([3]float64{math.Pi / 2, -math.Pi, 0}, f.AnglesRadians(), approx); diff != "" {
		t.Errorf("radians (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1.0, f.ScaledQuaternion()[0], 1e-9)
	assert.InDelta(t, 1.0, f.ScaledMatrix()[1][1], 1e-9)
}

func TestParseDataFormat(t *testing.T) {
	tests := []struct {
		in   string
		want DataFormat
		ok   bool
	}{
		{"position", DataFormatPosition, true},
		{"position_quaternion", DataFormatPositionAndQuaternion, true},
		{"4", DataFormatPositionAndAngles, true},
		{"6", 0, false},
		{"999", 0, false},
		{"", 0, false},
		{"bogus", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDataFormat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestDataFormatContents(t *testing.T) {
	assert.True(t, DataFormatPositionAndMatrix.HasPosition())
	assert.True(t, DataFormatPositionAndMatrix.HasMatrix())
	assert.False(t, DataFormatPositionAndMatrix.HasAngles())
	assert.False(t, DataFormatNoData.HasPosition())
	assert.True(t, DataFormatQuaternion.HasQuaternion())
	assert.Equal(t, "angles", DataFormatAngles.String())
	assert.Equal(t, "unknown", DataFormat(6).String())
}
