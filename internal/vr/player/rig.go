// Package player models the VR player rig: a room-space root in the world
// with the tracked HMD and hands inside it.
package player

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/vr/tracking"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Rig places tracked room-space poses in the world.
type Rig struct {
	root math.Pose
	src  input.Source

	fakeMoving bool
	onTeleport []func()

	log *zap.Logger
}

// NewRig creates a rig whose room origin sits at root.
func NewRig(src input.Source, root math.Pose, log *zap.Logger) *Rig {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rig{root: root, src: src, log: log}
}

// Root returns the room origin in world space.
func (r *Rig) Root() math.Pose {
	return r.root
}

// SetRoot moves the room origin without notifying teleport hooks.
func (r *Rig) SetRoot(root math.Pose) {
	r.root = root
}

// HeadPose returns the HMD pose in world space.
func (r *Rig) HeadPose() (math.Pose, bool) {
	local, ok := r.src.HeadPose()
	if !ok {
		return math.Pose{}, false
	}
	return r.root.ToWorld(local), true
}

// HandPose returns a controller pose in world space.
func (r *Rig) HandPose(h input.Hand) (math.Pose, bool) {
	local, ok := r.src.HandPose(h)
	if !ok {
		return math.Pose{}, false
	}
	return r.root.ToWorld(local), true
}

// Head returns the world HMD pose as a tracking target.
func (r *Rig) Head() tracking.PoseSource {
	return tracking.PoseFunc(r.HeadPose)
}

// Hand returns a world controller pose as a tracking target.
func (r *Rig) Hand(h input.Hand) tracking.PoseSource {
	return tracking.PoseFunc(func() (math.Pose, bool) {
		return r.HandPose(h)
	})
}

// Height returns the HMD height above the room floor.
func (r *Rig) Height() float32 {
	local, ok := r.src.HeadPose()
	if !ok {
		return 0
	}
	return local.Position.Z
}

// localFeet is the HMD projected onto the room floor.
func (r *Rig) localFeet() math.Vec3 {
	local, ok := r.src.HeadPose()
	if !ok {
		return math.Vec3{}
	}
	return local.Position.WithZ(0)
}

// FeetPosition returns the point on the floor under the HMD in world space.
func (r *Rig) FeetPosition() math.Vec3 {
	return r.root.Position.Add(r.root.Rotation.Rotate(r.localFeet()))
}

// SetFeetPosition moves the room so the feet land on p.
func (r *Rig) SetFeetPosition(p math.Vec3) {
	r.root.Position = p.Sub(r.root.Rotation.Rotate(r.localFeet()))
}

// IsFakeMoving implements tracking.MovementState.
func (r *Rig) IsFakeMoving() bool {
	return r.fakeMoving
}

// SetFakeMoving marks whether the rig is being translated this tick.
func (r *Rig) SetFakeMoving(moving bool) {
	r.fakeMoving = moving
}

// MoveBy translates the room by delta as a fake move.
func (r *Rig) MoveBy(delta math.Vec3) {
	r.fakeMoving = !delta.IsNearlyZero(1e-6)
	r.root.Position = r.root.Position.Add(delta)
}

// OnTeleport registers fn to run after every teleport. Controllers whose
// targets live in the rig reset their error history here.
func (r *Rig) OnTeleport(fn func()) {
	r.onTeleport = append(r.onTeleport, fn)
}

// Teleport moves the feet to dest and notifies the teleport hooks.
func (r *Rig) Teleport(dest math.Vec3) {
	from := r.FeetPosition()
	r.SetFeetPosition(dest)
	r.log.Info("player teleported",
		zap.Float32("from_x", from.X), zap.Float32("from_y", from.Y), zap.Float32("from_z", from.Z),
		zap.Float32("to_x", dest.X), zap.Float32("to_y", dest.Y), zap.Float32("to_z", dest.Z))
	for _, fn := range r.onTeleport {
		fn()
	}
}
