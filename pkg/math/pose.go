package math

// Pose is a rigid transform: a position and an orientation.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// PoseIdentity returns a pose at the origin with no rotation.
func PoseIdentity() Pose {
	return Pose{Rotation: QuatIdentity()}
}

// NewPose creates a pose from a position and rotation.
func NewPose(pos Vec3, rot Quat) Pose {
	return Pose{Position: pos, Rotation: rot}
}

// ToLocal expresses a world-space pose in p's local frame.
func (p Pose) ToLocal(world Pose) Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(world.Position.Sub(p.Position)),
		Rotation: inv.Mul(world.Rotation),
	}
}

// ToWorld transforms a pose from p's local frame into world space.
func (p Pose) ToWorld(local Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(local.Position)),
		Rotation: p.Rotation.Mul(local.Rotation),
	}
}

// Inverse returns the transform that undoes p.
func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position).Neg(),
		Rotation: inv,
	}
}

// IsFinite reports whether position and rotation are free of NaN/Inf.
func (p Pose) IsFinite() bool {
	return p.Position.IsFinite() && p.Rotation.IsFinite()
}
