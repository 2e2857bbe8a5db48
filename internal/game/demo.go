package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/camera"
	"github.com/Faultbox/midgard-vr/internal/engine/input"
	"github.com/Faultbox/midgard-vr/internal/vr/pickup"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Cue is one scripted input change.
type Cue struct {
	At   time.Duration
	Name string
	Do   func(g *Game)
}

// Script fires cues in order as simulated time reaches them.
type Script struct {
	cues []Cue
	next int
	log  *zap.Logger
}

// NewScript creates a script. cues must be sorted by At.
func NewScript(log *zap.Logger, cues ...Cue) *Script {
	if log == nil {
		log = zap.NewNop()
	}
	return &Script{cues: cues, log: log}
}

// Step fires every cue due at now. It has the signature Run expects.
func (s *Script) Step(g *Game, now time.Duration) {
	for s.next < len(s.cues) && s.cues[s.next].At <= now {
		c := s.cues[s.next]
		s.log.Debug("cue", zap.String("name", c.Name), zap.Duration("at", now))
		c.Do(g)
		s.next++
	}
}

// Done reports whether every cue has fired.
func (s *Script) Done() bool {
	return s.next >= len(s.cues)
}

// Demo scene layout.
var (
	demoHead      = math.Vec3{Z: 60}
	demoLeftHand  = math.Vec3{X: 15, Y: -12, Z: 40}
	demoRightHand = math.Vec3{X: 15, Y: 12, Z: 40}
	demoCrate     = math.Vec3{X: 15, Y: 16, Z: 40}
	demoLedgeTop  = math.Vec3{X: 307, Z: 40}
)

// LoadDemo builds a small course: a floor, a curb, a mantle ledge and a
// wall ahead of the player, plus a crate next to the right hand.
func LoadDemo(g *Game) {
	g.AddSolid(math.NewBBox(math.Vec3{X: -2000, Y: -2000, Z: -10}, math.Vec3{X: 2000, Y: 2000}), "world")
	g.AddSolid(math.NewBBox(math.Vec3{X: 100, Y: -200, Z: 0}, math.Vec3{X: 140, Y: 200, Z: 12}), "world", "curb")
	g.AddSolid(math.NewBBox(math.Vec3{X: 260, Y: -200, Z: 0}, math.Vec3{X: 400, Y: 200, Z: 40}), "world", "ledge")
	g.AddSolid(math.NewBBox(math.Vec3{X: 600, Y: -200, Z: 0}, math.Vec3{X: 620, Y: 200, Z: 300}), "world", "wall")

	g.AddPickup("crate", math.NewPose(demoCrate, math.QuatIdentity()), 2,
		math.NewBBox(math.Vec3{X: -2, Y: -2, Z: -2}, math.Vec3{X: 2, Y: 2, Z: 2}))
}

// DemoScript drives src through a grab, a carry, a release, a teleport
// toward the ledge and a short fake move.
func DemoScript(src *input.Scripted, log *zap.Logger) *Script {
	src.SetHeadPose(math.NewPose(demoHead, math.QuatIdentity()))
	src.SetHandPose(input.HandLeft, math.NewPose(demoLeftHand, math.QuatIdentity()))
	src.SetHandPose(input.HandRight, math.NewPose(demoRightHand, math.QuatIdentity()))

	grip := func(on bool) func(*Game) {
		return func(*Game) {
			switch {
			case src.VR() && on:
				src.SetGrip(input.HandRight, 1)
			case src.VR():
				src.SetGrip(input.HandRight, 0)
			case on:
				src.Press(input.ActionUse)
			default:
				src.Release(input.ActionUse)
			}
		}
	}
	look := camera.NewLook()
	carry := func(*Game) {
		src.SetHandPose(input.HandRight, math.NewPose(demoRightHand.Add(math.Vec3{X: 10, Z: 8}), math.QuatIdentity()))
	}
	lookAtLedge := func(*Game) {
		look.LookAt(demoHead, demoLedgeTop)
		src.SetHeadPose(look.Pose(demoHead))
		src.Press(input.ActionTeleport)
	}
	lookAhead := func(*Game) {
		look.Pitch = 0
		src.SetHeadPose(look.Pose(demoHead))
		src.Release(input.ActionTeleport)
	}
	strafeLeft := func(g *Game) {
		g.MovePlayer(look.Move(0, -1, 24))
	}

	return NewScript(log,
		Cue{At: 500 * time.Millisecond, Name: "grip", Do: grip(true)},
		Cue{At: 800 * time.Millisecond, Name: "carry", Do: carry},
		Cue{At: 1500 * time.Millisecond, Name: "release", Do: grip(false)},
		Cue{At: 2000 * time.Millisecond, Name: "aim", Do: lookAtLedge},
		Cue{At: 2500 * time.Millisecond, Name: "teleport", Do: lookAhead},
		Cue{At: 3000 * time.Millisecond, Name: "strafe", Do: strafeLeft},
	)
}

// Report is the end-of-run summary.
type Report struct {
	Elapsed    time.Duration         `yaml:"elapsed"`
	FixedSteps uint64                `yaml:"fixed_steps"`
	Feet       [3]float32            `yaml:"feet"`
	Held       []pickup.SyncEntry    `yaml:"held"`
	Hands      map[string][3]float32 `yaml:"hands"`
}

// Report summarizes the current simulation state.
func (g *Game) Report() Report {
	feet := g.rig.FeetPosition()
	r := Report{
		Elapsed:    g.elapsed,
		FixedSteps: g.sched.FixedTicks(),
		Feet:       [3]float32{feet.X, feet.Y, feet.Z},
		Held:       g.coord.SyncState(),
		Hands:      make(map[string][3]float32, len(g.hands)),
	}
	for _, ph := range g.hands {
		if p, ok := ph.Pose(); ok {
			r.Hands[ph.Hand().String()] = [3]float32{p.Position.X, p.Position.Y, p.Position.Z}
		}
	}
	return r
}
