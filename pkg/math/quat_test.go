package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	// 90 degrees around Y axis
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	// Should have Y component and W = cos(45deg)
	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}

func TestQuatInverse(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, 0.7)
	got := q.Mul(q.Inverse())
	if math.Abs(float64(got.W-1)) > 0.0001 || math.Abs(float64(got.Z)) > 0.0001 {
		t.Errorf("q * q^-1 should be identity, got %+v", got)
	}
}

func TestQuatRotate(t *testing.T) {
	// 90 degrees around Z turns +X into +Y
	q := QuatFromAxisAngle(Up, float32(math.Pi/2))
	got := q.Rotate(Vec3{X: 1})
	want := Vec3{X: 0, Y: 1, Z: 0}
	if got.Distance(want) > 0.0001 {
		t.Errorf("Rotate: expected %v, got %v", want, got)
	}
}

func TestQuatToAxisAngle(t *testing.T) {
	tests := []struct {
		name  string
		axis  Vec3
		angle float32
	}{
		{"quarter turn Z", Vec3{Z: 1}, math.Pi / 2},
		{"small X", Vec3{X: 1}, 0.05},
		{"three quarter Y", Vec3{Y: 1}, 3 * math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aa := QuatFromAxisAngle(tt.axis, tt.angle).ToAxisAngle()
			if math.Abs(float64(aa.Angle-tt.angle)) > 0.001 {
				t.Errorf("angle: expected %v, got %v", tt.angle, aa.Angle)
			}
			if aa.Axis.Distance(tt.axis) > 0.001 {
				t.Errorf("axis: expected %v, got %v", tt.axis, aa.Axis)
			}
		})
	}
}

func TestAxisAngleShortestPath(t *testing.T) {
	aa := QuatFromAxisAngle(Vec3{Y: 1}, 3*math.Pi/2).ToAxisAngle().ShortestPath()
	if math.Abs(float64(aa.Angle+math.Pi/2)) > 0.001 {
		t.Errorf("expected -pi/2, got %v", aa.Angle)
	}
}

func TestQuatToAxisAngleIdentity(t *testing.T) {
	aa := QuatIdentity().ToAxisAngle()
	if aa.Angle != 0 {
		t.Errorf("identity angle should be 0, got %v", aa.Angle)
	}
	if aa.Axis != (Vec3{}) {
		t.Errorf("identity axis should be zero, got %v", aa.Axis)
	}
}

func TestAverageQuat(t *testing.T) {
	a := QuatFromAxisAngle(Up, 0.2)
	b := QuatFromAxisAngle(Up, 0.4)

	// Sign-flipped copy must not cancel out
	avg := AverageQuat([]Quat{a, b.Neg()})
	want := QuatFromAxisAngle(Up, 0.3)
	if math.Abs(float64(avg.Dot(want))) < 0.9999 {
		t.Errorf("AverageQuat: expected ~%+v, got %+v", want, avg)
	}

	if AverageQuat(nil) != QuatIdentity() {
		t.Error("AverageQuat of nothing should be identity")
	}
}
