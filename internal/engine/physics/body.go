package physics

import (
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// RigidBody is a dynamic body integrated by World.Step with semi-implicit
// Euler. Forces and torques accumulate until the next step and are then
// cleared.
type RigidBody struct {
	Mass    float32
	Inertia float32

	LinearDamping  float32
	AngularDamping float32
	Gravity        bool

	position        math.Vec3
	rotation        math.Quat
	velocity        math.Vec3
	angularVelocity math.Vec3

	force  math.Vec3
	torque math.Vec3

	destroyed bool
}

// NewRigidBody creates a body at pose with the given mass.
// A non-positive mass is treated as 1.
func NewRigidBody(pose math.Pose, mass float32) *RigidBody {
	if mass <= 0 {
		mass = 1
	}
	return &RigidBody{
		Mass:     mass,
		Inertia:  mass,
		position: pose.Position,
		rotation: pose.Rotation.Normalize(),
	}
}

func (b *RigidBody) Position() math.Vec3        { return b.position }
func (b *RigidBody) Rotation() math.Quat        { return b.rotation }
func (b *RigidBody) Velocity() math.Vec3        { return b.velocity }
func (b *RigidBody) AngularVelocity() math.Vec3 { return b.angularVelocity }

// Pose returns the body's position and rotation.
func (b *RigidBody) Pose() math.Pose {
	return math.Pose{Position: b.position, Rotation: b.rotation}
}

func (b *RigidBody) SetPosition(p math.Vec3)        { b.position = p }
func (b *RigidBody) SetRotation(r math.Quat)        { b.rotation = r.Normalize() }
func (b *RigidBody) SetVelocity(v math.Vec3)        { b.velocity = v }
func (b *RigidBody) SetAngularVelocity(w math.Vec3) { b.angularVelocity = w }

func (b *RigidBody) ApplyForce(f math.Vec3)  { b.force = b.force.Add(f) }
func (b *RigidBody) ApplyTorque(t math.Vec3) { b.torque = b.torque.Add(t) }

// AccumulatedForce returns the force applied since the last step.
func (b *RigidBody) AccumulatedForce() math.Vec3 { return b.force }

// AccumulatedTorque returns the torque applied since the last step.
func (b *RigidBody) AccumulatedTorque() math.Vec3 { return b.torque }

// IsValid reports whether the body has not been removed from its world.
func (b *RigidBody) IsValid() bool {
	return b != nil && !b.destroyed
}

func (b *RigidBody) integrate(dt float32, gravity math.Vec3) {
	accel := b.force.Scale(1 / b.Mass)
	if b.Gravity {
		accel = accel.Add(gravity)
	}
	b.velocity = b.velocity.Add(accel.Scale(dt))
	if b.LinearDamping > 0 {
		b.velocity = b.velocity.Scale(1 / (1 + b.LinearDamping*dt))
	}
	b.position = b.position.Add(b.velocity.Scale(dt))

	inertia := b.Inertia
	if inertia <= 0 {
		inertia = b.Mass
	}
	b.angularVelocity = b.angularVelocity.Add(b.torque.Scale(dt / inertia))
	if b.AngularDamping > 0 {
		b.angularVelocity = b.angularVelocity.Scale(1 / (1 + b.AngularDamping*dt))
	}
	if speed := b.angularVelocity.Length(); speed > 0 {
		delta := math.QuatFromAxisAngle(b.angularVelocity.Scale(1/speed), speed*dt)
		b.rotation = delta.Mul(b.rotation).Normalize()
	}

	b.force = math.Vec3{}
	b.torque = math.Vec3{}
}
