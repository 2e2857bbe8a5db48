// Package hand implements the VR hands: a physics body that follows the
// tracked controller, and the grip logic that grabs and releases pickups.
package hand

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/internal/vr/player"
	"github.com/Faultbox/midgard-vr/internal/vr/tracking"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// PhysicsHand drives a hand body toward the tracked controller pose. While
// the rig is fake-moving the body is snapped instead, projected from the
// head so it does not end up inside walls.
type PhysicsHand struct {
	hand       input.Hand
	body       physics.Body
	controller *tracking.Controller
}

// NewPhysicsHand creates a physics hand for h. snap supplies the projection
// filter and shape; its movement, head and tracer are taken from rig and
// tracer. The filter should ignore the player's own solids.
func NewPhysicsHand(h input.Hand, body physics.Body, rig *player.Rig, tracer physics.Tracer,
	settings tracking.Settings, snap tracking.Snap, log *zap.Logger) *PhysicsHand {
	if log == nil {
		log = zap.NewNop()
	}
	snap.Movement = rig
	snap.Head = rig.Head()
	snap.Tracer = tracer
	ctrl := tracking.New(body, rig.Hand(h), settings,
		tracking.WithLogger(log.With(zap.Stringer("hand", h))),
		tracking.WithSnap(snap))
	return &PhysicsHand{hand: h, body: body, controller: ctrl}
}

// Hand returns which hand this is.
func (p *PhysicsHand) Hand() input.Hand { return p.hand }

// Body returns the hand body.
func (p *PhysicsHand) Body() physics.Body { return p.body }

// Controller returns the hand's tracking controller.
func (p *PhysicsHand) Controller() *tracking.Controller { return p.controller }

// Pose implements tracking.PoseSource with the hand body pose.
func (p *PhysicsHand) Pose() (math.Pose, bool) {
	if p.body == nil || !p.body.IsValid() {
		return math.Pose{}, false
	}
	return math.NewPose(p.body.Position(), p.body.Rotation()), true
}

// FixedUpdate implements scheduler.FixedTicker.
func (p *PhysicsHand) FixedUpdate(dt float32) {
	p.controller.Tick(dt)
}

// OnEnabled implements scheduler.Enabler.
func (p *PhysicsHand) OnEnabled() {
	p.controller.Reset()
}

// Reset clears the controller history, e.g. after a teleport.
func (p *PhysicsHand) Reset() {
	p.controller.Reset()
}
