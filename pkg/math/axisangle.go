package math

import "math"

// AxisAngle is a rotation expressed as a unit axis and an angle in radians.
type AxisAngle struct {
	Axis  Vec3
	Angle float32
}

// Quat converts the axis-angle back to a quaternion.
func (a AxisAngle) Quat() Quat {
	return QuatFromAxisAngle(a.Axis, a.Angle)
}

// Vector returns Axis scaled by Angle (rotation vector).
func (a AxisAngle) Vector() Vec3 {
	return a.Axis.Scale(a.Angle)
}

// ToAxisAngle converts q to axis-angle form. The angle lies in [0, 2π).
// For near-identity rotations the raw vector part is returned as the axis.
func (q Quat) ToAxisAngle() AxisAngle {
	if q.W > 1 || q.W < -1 {
		q = q.Normalize()
	}

	var out AxisAngle
	out.Angle = float32(2 * math.Acos(float64(q.W)))

	s := float32(math.Sqrt(float64(1 - q.W*q.W)))
	if s < 0.001 {
		out.Axis = q.Vector()
		return out
	}
	out.Axis = q.Vector().Scale(1 / s).Normalize()
	return out
}

// ShortestPath returns the same rotation with the angle wrapped into (-π, π].
func (a AxisAngle) ShortestPath() AxisAngle {
	if a.Angle > math.Pi {
		a.Angle -= 2 * math.Pi
	}
	return a
}
