// Package camera provides the desktop look camera that stands in for the
// HMD when no headset is attached.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Look is a first-person yaw/pitch camera in a Z-up world. Yaw turns about
// +Z starting from +X; positive pitch looks up.
type Look struct {
	Yaw   float32 // radians
	Pitch float32 // radians

	// Constraints
	MinPitch float32
	MaxPitch float32

	// Sensitivity
	DragSensitivity float32
}

// NewLook creates a look camera facing +X with default settings.
func NewLook() *Look {
	return &Look{
		MinPitch:        -1.4,
		MaxPitch:        1.4,
		DragSensitivity: 0.005,
	}
}

// HandleDrag updates rotation based on mouse drag delta. Dragging right
// turns right; dragging down looks down.
func (c *Look) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch -= deltaY * c.DragSensitivity
	c.clampPitch()
}

// LookAt turns the camera at eye toward target.
func (c *Look) LookAt(eye, target math.Vec3) {
	d := target.Sub(eye)
	if d.IsNearlyZero(1e-6) {
		return
	}
	c.Yaw = float32(gomath.Atan2(float64(d.Y), float64(d.X)))
	c.Pitch = float32(gomath.Atan2(float64(d.Z), float64(d.Horizontal().Length())))
	c.clampPitch()
}

func (c *Look) clampPitch() {
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// Rotation returns the camera orientation. It maps math.Forward to Forward().
func (c *Look) Rotation() math.Quat {
	yaw := math.QuatFromAxisAngle(math.Up, c.Yaw)
	pitch := math.QuatFromAxisAngle(math.Vec3{Y: 1}, -c.Pitch)
	return yaw.Mul(pitch)
}

// Forward returns the unit view direction.
func (c *Look) Forward() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	return math.Vec3{
		X: float32(cp * gomath.Cos(float64(c.Yaw))),
		Y: float32(cp * gomath.Sin(float64(c.Yaw))),
		Z: float32(gomath.Sin(float64(c.Pitch))),
	}
}

// Pose returns the camera pose at eye, usable as a head pose.
func (c *Look) Pose(eye math.Vec3) math.Pose {
	return math.NewPose(eye, c.Rotation())
}

// Move returns a horizontal displacement of distance along the camera's
// forward and right axes, weighted by forward and right input.
func (c *Look) Move(forward, right, distance float32) math.Vec3 {
	sin, cos := gomath.Sincos(float64(c.Yaw))
	dirX, dirY := float32(cos), float32(sin)
	// Right is forward turned a quarter clockwise seen from above.
	rightX, rightY := float32(sin), float32(-cos)

	return math.Vec3{
		X: (dirX*forward + rightX*right) * distance,
		Y: (dirY*forward + rightY*right) * distance,
	}
}
