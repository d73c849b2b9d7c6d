package bird

import "math"

// Offsets of each value in a flat frame buffer.
const (
	OffsetX = iota
	OffsetY
	OffsetZ
	OffsetAzimuth
	OffsetElevation
	OffsetRoll
	OffsetQ0
	OffsetQ1
	OffsetQ2
	OffsetQ3
	OffsetM11
	OffsetM12
	OffsetM13
	OffsetM21
	OffsetM22
	OffsetM23
	OffsetM31
	OffsetM32
	OffsetM33

	// NumValues is the minimum length of a flat frame buffer.
	NumValues
)

// FullScale is the raw value that maps to the full-scale range of a reading.
const FullScale = 32767.0

// Frame is one sample from the tracker in raw fixed-point units.
type Frame struct {
	X, Y, Z                  int16
	Azimuth, Elevation, Roll int16
	Q0, Q1, Q2, Q3           int16
	Matrix                   [3][3]int16
}

// FrameFromReading copies an SDK reading into a Frame.
func FrameFromReading(r *Reading) Frame {
	return Frame{
		X:         r.Position[0],
		Y:         r.Position[1],
		Z:         r.Position[2],
		Azimuth:   r.Angles[0],
		Elevation: r.Angles[1],
		Roll:      r.Angles[2],
		Q0:        r.Quaternion[0],
		Q1:        r.Quaternion[1],
		Q2:        r.Quaternion[2],
		Q3:        r.Quaternion[3],
		Matrix:    r.Matrix,
	}
}

// Flatten writes f into buf at the fixed offsets. buf must hold NumValues.
func (f *Frame) Flatten(buf []int16) {
	_ = buf[NumValues-1]
	buf[OffsetX] = f.X
	buf[OffsetY] = f.Y
	buf[OffsetZ] = f.Z
	buf[OffsetAzimuth] = f.Azimuth
	buf[OffsetElevation] = f.Elevation
	buf[OffsetRoll] = f.Roll
	buf[OffsetQ0] = f.Q0
	buf[OffsetQ1] = f.Q1
	buf[OffsetQ2] = f.Q2
	buf[OffsetQ3] = f.Q3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			buf[OffsetM11+i*3+j] = f.Matrix[i][j]
		}
	}
}

// FrameFromBuffer is the inverse of Flatten.
func FrameFromBuffer(buf []int16) Frame {
	_ = buf[NumValues-1]
	f := Frame{
		X:         buf[OffsetX],
		Y:         buf[OffsetY],
		Z:         buf[OffsetZ],
		Azimuth:   buf[OffsetAzimuth],
		Elevation: buf[OffsetElevation],
		Roll:      buf[OffsetRoll],
		Q0:        buf[OffsetQ0],
		Q1:        buf[OffsetQ1],
		Q2:        buf[OffsetQ2],
		Q3:        buf[OffsetQ3],
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			f.Matrix[i][j] = buf[OffsetM11+i*3+j]
		}
	}
	return f
}

// Position returns the position in the units of scale (inches for a bird).
func (f *Frame) Position(scale float64) [3]float64 {
	return [3]float64{
		float64(f.X) * scale / FullScale,
		float64(f.Y) * scale / FullScale,
		float64(f.Z) * scale / FullScale,
	}
}

// AnglesDegrees returns azimuth, elevation and roll in degrees.
func (f *Frame) AnglesDegrees() [3]float64 {
	return [3]float64{
		float64(f.Azimuth) * 180.0 / FullScale,
		float64(f.Elevation) * 180.0 / FullScale,
		float64(f.Roll) * 180.0 / FullScale,
	}
}

// AnglesRadians returns azimuth, elevation and roll in radians.
func (f *Frame) AnglesRadians() [3]float64 {
	return [3]float64{
		float64(f.Azimuth) * math.Pi / FullScale,
		float64(f.Elevation) * math.Pi / FullScale,
		float64(f.Roll) * math.Pi / FullScale,
	}
}

// ScaledQuaternion returns the quaternion components in [-1, 1].
func (f *Frame) ScaledQuaternion() [4]float64 {
	return [4]float64{
		float64(f.Q0) / FullScale,
		float64(f.Q1) / FullScale,
		float64(f.Q2) / FullScale,
		float64(f.Q3) / FullScale,
	}
}

// ScaledMatrix returns the rotation matrix entries in [-1, 1].
func (f *Frame) ScaledMatrix() [3][3]float64 {
	var m [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = float64(f.Matrix[i][j]) / FullScale
		}
	}
	return m
}
