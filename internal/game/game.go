// Package game implements the headless simulation loop that ties the
// player rig, physics hands, pickups and teleport together.
package game

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/config"
	"github.com/Faultbox/midgard-vr/internal/engine/debug"
	"github.com/Faultbox/midgard-vr/internal/engine/handle"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/internal/engine/scheduler"
	"github.com/Faultbox/midgard-vr/internal/vr/hand"
	"github.com/Faultbox/midgard-vr/internal/vr/pickup"
	"github.com/Faultbox/midgard-vr/internal/vr/player"
	"github.com/Faultbox/midgard-vr/internal/vr/teleport"
	"github.com/Faultbox/midgard-vr/internal/vr/tracking"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// PlayerTag marks solids that belong to the player.
const PlayerTag = "player"

// frameEnder is implemented by input sources that latch per-frame edges.
type frameEnder interface {
	EndFrame()
}

// Game is one simulation instance.
type Game struct {
	cfg *config.Config
	src input.Source

	world     *physics.World
	sched     *scheduler.Scheduler
	rig       *player.Rig
	coord     *pickup.Coordinator
	validator *teleport.Validator
	aim       *player.TeleportAim
	overlay   debug.Overlay

	hands [len(input.Hands)]*hand.PhysicsHand
	grabs [len(input.Hands)]*hand.GrabHand

	elapsed time.Duration
	frames  uint64

	log *zap.Logger
}

// New creates a simulation driven by src. The world starts empty; add
// geometry with AddSolid and pickups with AddPickup.
func New(cfg *config.Config, src input.Source, log *zap.Logger) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("initializing simulation",
		zap.Int("fixed_rate", cfg.Simulation.FixedRate),
		zap.Int("frame_rate", cfg.Simulation.FrameRate),
		zap.Bool("vr", src.VR()),
	)

	g := &Game{
		cfg:     cfg,
		src:     src,
		world:   physics.NewWorld(log.Named("physics")),
		sched:   scheduler.New(cfg.Simulation.FixedDelta(), scheduler.WithLogger(log.Named("scheduler"))),
		overlay: debug.Nop{},
		log:     log,
	}
	if cfg.Diagnostics.TeleportDebug || cfg.Diagnostics.Gizmos {
		g.overlay = debug.NewLogged(log.Named("debug"))
	}

	ownFilter := physics.Filter{WithoutTags: []string{PlayerTag}}

	g.rig = player.NewRig(src, math.PoseIdentity(), log.Named("player"))
	g.coord = pickup.New(cfg.Pickup,
		pickup.WithLogger(log.Named("pickup")),
		pickup.WithTracer(g.world, ownFilter))

	var teleportOverlay debug.Overlay = debug.Nop{}
	if cfg.Diagnostics.TeleportDebug {
		teleportOverlay = g.overlay
	}
	g.validator = teleport.New(g.world, cfg.Teleport,
		teleport.WithLogger(log.Named("teleport")),
		teleport.WithOverlay(teleportOverlay))

	snap := tracking.Snap{
		Filter:   ownFilter,
		HeadDrop: cfg.Tracking.Snap.HeadDrop,
		Radius:   cfg.Tracking.Snap.Radius,
	}
	for i, h := range input.Hands {
		start, ok := g.rig.HandPose(h)
		if !ok {
			start = g.rig.Root()
		}
		body := physics.NewRigidBody(start, cfg.Tracking.HandMass)
		g.world.AddBody(body)

		g.hands[i] = hand.NewPhysicsHand(h, body, g.rig, g.world, cfg.Tracking.Hand, snap, log.Named("hand"))
		g.grabs[i] = hand.NewGrabHand(h, src, g.coord, cfg.Player.GripThreshold, log.Named("hand"))
		g.coord.AddHand(h, g.hands[i])
	}

	g.aim = player.NewTeleportAim(g.rig, src, g.world, g.validator, cfg.Player.Aim, ownFilter, g.overlay, log.Named("aim"))
	g.rig.OnTeleport(g.resetControllers)

	// Fixed phase: hands chase their targets, held objects chase the hands,
	// then the world integrates everything.
	for _, ph := range g.hands {
		g.sched.Register(ph)
	}
	g.sched.Register(g.coord)
	g.sched.Register(worldStepper{g.world})

	// Variable phase: input edges.
	for _, gh := range g.grabs {
		g.sched.Register(gh)
	}
	g.sched.Register(g.aim)

	log.Info("simulation initialized")
	return g, nil
}

// worldStepper adapts the physics world to the fixed phase.
type worldStepper struct {
	world *physics.World
}

func (w worldStepper) FixedUpdate(dt float32) { w.world.Step(dt) }

// Frame advances the simulation by one variable frame of dt seconds and
// returns the number of fixed steps it ran.
func (g *Game) Frame(dt float32) int {
	steps := g.sched.Advance(dt)
	g.rig.SetFakeMoving(false)
	if fe, ok := g.src.(frameEnder); ok {
		fe.EndFrame()
	}
	g.frames++
	g.elapsed += time.Duration(float64(dt) * float64(time.Second))
	return steps
}

// Run steps frames at the configured frame rate until duration of simulated
// time has passed or ctx is done. Each frame calls script first so callers
// can feed input. Simulation runs as fast as possible, not in real time.
func (g *Game) Run(ctx context.Context, duration time.Duration, script func(g *Game, now time.Duration)) error {
	dt := g.cfg.Simulation.FrameDelta()
	end := g.elapsed + duration

	g.log.Info("starting simulation loop", zap.Duration("duration", duration))

	for g.elapsed < end {
		if err := ctx.Err(); err != nil {
			return err
		}
		if script != nil {
			script(g, g.elapsed)
		}
		g.Frame(dt)
	}

	g.log.Info("simulation loop finished",
		zap.Uint64("frames", g.frames),
		zap.Uint64("fixed_steps", g.sched.FixedTicks()),
		zap.Duration("elapsed", g.elapsed),
	)
	return nil
}

// Close releases everything the simulation holds.
func (g *Game) Close() {
	g.log.Info("closing simulation")
	for _, h := range input.Hands {
		g.coord.ReleaseHand(h)
	}
}

// AddSolid adds static geometry to the world.
func (g *Game) AddSolid(box math.BBox, tags ...string) handle.Handle {
	return g.world.AddSolid(box, tags...)
}

// AddPickup adds a grabbable body at pose. bounds are relative to the body
// origin.
func (g *Game) AddPickup(name string, pose math.Pose, mass float32, bounds math.BBox) handle.Handle {
	body := physics.NewRigidBody(pose, mass)
	g.world.AddBody(body)
	return g.coord.AddObject(name, body, bounds)
}

// MovePlayer translates the rig. Hands snap instead of chasing for the
// fixed steps of the next frame.
func (g *Game) MovePlayer(delta math.Vec3) {
	g.rig.MoveBy(delta)
}

// Elapsed returns the simulated time so far.
func (g *Game) Elapsed() time.Duration { return g.elapsed }

// World returns the physics world.
func (g *Game) World() *physics.World { return g.world }

// Rig returns the player rig.
func (g *Game) Rig() *player.Rig { return g.rig }

// Pickups returns the pickup coordinator.
func (g *Game) Pickups() *pickup.Coordinator { return g.coord }

// Aim returns the desktop teleport aim.
func (g *Game) Aim() *player.TeleportAim { return g.aim }

// Validator returns the teleport validator.
func (g *Game) Validator() *teleport.Validator { return g.validator }

// Scheduler returns the behavior scheduler.
func (g *Game) Scheduler() *scheduler.Scheduler { return g.sched }

// Hand returns the physics hand for h.
func (g *Game) Hand(h input.Hand) *hand.PhysicsHand {
	for i, hh := range input.Hands {
		if hh == h {
			return g.hands[i]
		}
	}
	return nil
}

func (g *Game) resetControllers() {
	for _, ph := range g.hands {
		ph.Reset()
	}
	g.coord.ResetControllers()
}
