// Package tracking drives physics bodies toward moving target poses.
//
// A Controller runs once per fixed physics step. In ModePD and ModePID it
// accumulates a corrective force and torque on its body; in ModeVelocity it
// sets the body's velocities directly. Derivative terms divide by the step
// dt, so Tick must only be called with the fixed timestep, and Reset must be
// called after any discontinuous jump of the target or the body.
package tracking

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// PoseSource provides a target pose. ok is false while the target is absent.
type PoseSource interface {
	Pose() (pose math.Pose, ok bool)
}

// PoseFunc adapts a function to PoseSource.
type PoseFunc func() (math.Pose, bool)

// Pose implements PoseSource.
func (f PoseFunc) Pose() (math.Pose, bool) { return f() }

// StaticTarget is a fixed pose target.
type StaticTarget math.Pose

// Pose implements PoseSource.
func (t StaticTarget) Pose() (math.Pose, bool) { return math.Pose(t), true }

// MovementState reports whether the owning player is being moved
// kinematically this tick.
type MovementState interface {
	IsFakeMoving() bool
}

// Snap places the body kinematically instead of applying forces while the
// player is fake-moving. The body lands where a sphere swept from just below
// the head toward the target stops, so it never ends up inside geometry.
type Snap struct {
	Movement MovementState
	Head     PoseSource
	Tracer   physics.Tracer
	Filter   physics.Filter

	// HeadDrop lowers the sweep origin below the head.
	HeadDrop float32
	// Radius of the swept sphere.
	Radius float32
}

// Default snap projection parameters.
const (
	DefaultSnapHeadDrop = 12
	DefaultSnapRadius   = 3
)

// Output is what one tick did to the body.
type Output struct {
	Force  math.Vec3
	Torque math.Vec3

	Velocity        math.Vec3
	AngularVelocity math.Vec3

	// Snapped is set when the body was placed at SnapPose.
	Snapped  bool
	SnapPose math.Pose
}

func (o Output) finite() bool {
	return o.Force.IsFinite() && o.Torque.IsFinite() &&
		o.Velocity.IsFinite() && o.AngularVelocity.IsFinite()
}

// history is the error state carried between ticks.
type history struct {
	prevPos math.Vec3
	prevRot math.Vec3
	posI    math.Vec3
}

// Controller drives one body toward one target.
type Controller struct {
	settings Settings
	body     physics.Body
	target   PoseSource
	snap     *Snap

	state history

	log *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSnap enables snap mode.
func WithSnap(s Snap) Option {
	return func(c *Controller) {
		if s.HeadDrop == 0 {
			s.HeadDrop = DefaultSnapHeadDrop
		}
		if s.Radius == 0 {
			s.Radius = DefaultSnapRadius
		}
		c.snap = &s
	}
}

// New creates a controller driving body toward target. The body is borrowed;
// the caller keeps ownership.
func New(body physics.Body, target PoseSource, settings Settings, opts ...Option) *Controller {
	c := &Controller{
		settings: settings,
		body:     body,
		target:   target,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Settings returns the controller settings.
func (c *Controller) Settings() Settings { return c.settings }

// Body returns the driven body.
func (c *Controller) Body() physics.Body { return c.body }

// Target returns the current target source.
func (c *Controller) Target() PoseSource { return c.target }

// SetTarget switches to a new target. The error history is cleared since the
// new target is unrelated to the previous error.
func (c *Controller) SetTarget(t PoseSource) {
	c.target = t
	c.Reset()
}

// Reset clears the error history and integral.
func (c *Controller) Reset() {
	c.state = history{}
}

// PrevPositionError returns the stored previous position error.
func (c *Controller) PrevPositionError() math.Vec3 { return c.state.prevPos }

// PrevRotationError returns the stored previous rotation error.
func (c *Controller) PrevRotationError() math.Vec3 { return c.state.prevRot }

// Integral returns the accumulated position integral.
func (c *Controller) Integral() math.Vec3 { return c.state.posI }

// OnEnabled implements scheduler.Enabler.
func (c *Controller) OnEnabled() {
	c.Reset()
}

// FixedUpdate implements scheduler.FixedTicker.
func (c *Controller) FixedUpdate(dt float32) {
	c.Tick(dt)
}

// Tick runs one control step and applies its output to the body.
// It reports false, leaving body and history untouched, when the body or
// target is absent or dt is not positive.
func (c *Controller) Tick(dt float32) (Output, bool) {
	if dt <= 0 || c.body == nil || !c.body.IsValid() || c.target == nil {
		return Output{}, false
	}
	target, ok := c.target.Pose()
	if !ok || !target.IsFinite() {
		return Output{}, false
	}

	if c.snapping() {
		return c.snapTo(target), true
	}

	current := math.NewPose(c.body.Position(), c.body.Rotation())
	out := c.Compute(current, target, dt)
	if !out.finite() {
		c.log.Warn("non-finite controller output, resetting",
			zap.Stringer("mode", c.settings.Mode),
			zap.Float32("dt", dt))
		c.Reset()
		return Output{}, false
	}

	if c.settings.Mode == ModeVelocity {
		c.body.SetVelocity(out.Velocity)
		c.body.SetAngularVelocity(out.AngularVelocity)
	} else {
		c.body.ApplyForce(out.Force)
		c.body.ApplyTorque(out.Torque)
	}
	return out, true
}

// Compute returns the output that drives current toward target over dt and
// advances the error history. It does not touch the body.
func (c *Controller) Compute(current, target math.Pose, dt float32) Output {
	switch c.settings.Mode {
	case ModeVelocity:
		return c.velocity(current, target, dt)
	case ModePID:
		return Output{
			Force:  c.positionPID(current.Position, target.Position, dt),
			Torque: c.rotationPD(current.Rotation, target.Rotation, dt),
		}
	default:
		return Output{
			Force:  c.positionPD(current.Position, target.Position, dt),
			Torque: c.rotationPD(current.Rotation, target.Rotation, dt),
		}
	}
}

func (c *Controller) positionPD(current, target math.Vec3, dt float32) math.Vec3 {
	g := c.settings.Gains
	p := target.Sub(current)
	d := p.Sub(c.state.prevPos).Div(dt)
	c.state.prevPos = p
	return p.Scale(g.PosKp).Add(d.Scale(g.PosKd))
}

func (c *Controller) positionPID(current, target math.Vec3, dt float32) math.Vec3 {
	g := c.settings.Gains
	l := c.settings.Limits

	p := clampLength(target.Sub(current), l.MaxPosError)
	c.state.posI = clampLength(c.state.posI.Add(p.Scale(dt)), l.MaxIntegral)
	d := p.Sub(c.state.prevPos).Div(dt)
	c.state.prevPos = clampLength(p, l.MaxPrevPosError)

	return p.Scale(g.PosKp).Add(c.state.posI.Scale(g.PosKi)).Add(d.Scale(g.PosKd))
}

// rotationPD linearizes the rotation error as the vector part of the
// relative quaternion scaled by its scalar part and dt. This only tracks
// small per-step rotation deltas.
func (c *Controller) rotationPD(current, target math.Quat, dt float32) math.Vec3 {
	g := c.settings.Gains
	rot := target.Mul(current.Inverse())
	p := rot.Vector().Scale(rot.W * dt)
	d := p.Sub(c.state.prevRot).Div(dt)
	c.state.prevRot = p
	return p.Scale(g.RotKp).Add(d.Scale(g.RotKd))
}

func (c *Controller) velocity(current, target math.Pose, dt float32) Output {
	f := c.settings.Velocity
	err := target.Rotation.Mul(current.Rotation.Inverse()).ToAxisAngle().ShortestPath()
	return Output{
		Velocity:        target.Position.Sub(current.Position).Scale(f.Position * dt),
		AngularVelocity: err.Vector().Scale(f.Rotation * dt),
	}
}

func (c *Controller) snapping() bool {
	return c.snap != nil && c.snap.Movement != nil && c.snap.Movement.IsFakeMoving()
}

// snapTo places the body kinematically and clears the history, since the
// jump would otherwise show up in the next derivative.
func (c *Controller) snapTo(target math.Pose) Output {
	pos := c.projectedPosition(target.Position)

	c.body.SetPosition(pos)
	c.body.SetRotation(target.Rotation)
	c.body.SetVelocity(math.Vec3{})
	c.body.SetAngularVelocity(math.Vec3{})
	c.Reset()

	return Output{Snapped: true, SnapPose: math.NewPose(pos, target.Rotation)}
}

func (c *Controller) projectedPosition(target math.Vec3) math.Vec3 {
	s := c.snap
	if s.Head == nil || s.Tracer == nil {
		return c.body.Position()
	}
	head, ok := s.Head.Pose()
	if !ok {
		return c.body.Position()
	}

	from := head.Position
	from.Z -= s.HeadDrop
	res := s.Tracer.Trace(physics.NewTrace(from, target, physics.Sphere(s.Radius), s.Filter))
	return res.EndPosition
}

func clampLength(v math.Vec3, max float32) math.Vec3 {
	if max <= 0 {
		return v
	}
	return v.ClampLength(max)
}
