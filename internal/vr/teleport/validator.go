// Package teleport decides whether a teleport destination is reachable.
//
// The Validator walks a crouching player volume from the start toward the
// target in fixed horizontal steps. Each step sweeps up by the step height,
// across to the next sample and down onto the ground, so small
// irregularities are climbed for free while taller obstacles block. A
// blocked step may still succeed as a mantle onto a ledge. The walk ends
// with one of the EndCondition values, or with an ErrTraversalFault when it
// cannot terminate.
package teleport

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/debug"
	"github.com/Faultbox/midgard-vr/internal/engine/handle"
	"github.com/Faultbox/midgard-vr/internal/engine/physics"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

var (
	// ErrTraversalFault means the walk could not terminate normally.
	// It indicates degenerate input or geometry, never a plausible result.
	ErrTraversalFault = errors.New("teleport traversal fault")

	ErrIterationLimit      = fmt.Errorf("%w: iteration limit reached", ErrTraversalFault)
	ErrDegenerateDirection = fmt.Errorf("%w: degenerate direction", ErrTraversalFault)
)

// arrivalFactor scales StepLength into the arrival radius.
const arrivalFactor = 1.5

// EndCondition classifies how a walk ended.
type EndCondition uint8

const (
	// Success means the target was reached horizontally.
	Success EndCondition = iota
	// Blocked means an obstacle could be neither stepped over nor mantled,
	// or the destination has no room to stand.
	Blocked
	// Fell means no ground was found within MaxDropHeight.
	Fell
	// Edge means the ground found is steeper than MaxGroundAngle.
	Edge
	// MaxDistanceExceeded means the walk traveled farther than allowed.
	MaxDistanceExceeded
)

// String implements fmt.Stringer.
func (c EndCondition) String() string {
	switch c {
	case Success:
		return "success"
	case Blocked:
		return "blocked"
	case Fell:
		return "fell"
	case Edge:
		return "edge"
	case MaxDistanceExceeded:
		return "max distance exceeded"
	default:
		return "unknown"
	}
}

// Request is one validation call.
type Request struct {
	Start  math.Vec3
	Target math.Vec3
	// MaxDistance overrides Settings.MaxDistance when positive.
	MaxDistance float32
}

// Result is the outcome of a walk. EndPos is the last position the player
// could stand on.
type Result struct {
	EndPos    math.Vec3
	Condition EndCondition
	Steps     int
	Mantles   int
}

// Succeeded reports whether the target was reached.
func (r Result) Succeeded() bool {
	return r.Condition == Success
}

// Validator walks teleport paths against a Tracer.
type Validator struct {
	settings Settings
	tracer   physics.Tracer
	owner    handle.Handle
	overlay  debug.Overlay

	capsule    physics.Shape
	minGroundZ float32

	log *zap.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// WithOverlay draws every step: white on success, red on failure and green
// at the final position.
func WithOverlay(o debug.Overlay) Option {
	return func(v *Validator) {
		if o != nil {
			v.overlay = o
		}
	}
}

// WithOwner ignores solids belonging to the player's own hierarchy.
func WithOwner(h handle.Handle) Option {
	return func(v *Validator) {
		v.owner = h
	}
}

// New creates a validator tracing against tracer.
func New(tracer physics.Tracer, settings Settings, opts ...Option) *Validator {
	// A ground normal is standable while its Z component is at least the
	// cosine of the maximum ground angle.
	minGroundZ := float32(gomath.Cos(float64(settings.MaxGroundAngle) * gomath.Pi / 180))

	v := &Validator{
		settings:   settings,
		tracer:     tracer,
		overlay:    debug.Nop{},
		capsule:    physics.Capsule(settings.Radius, settings.CrouchHeight),
		minGroundZ: minGroundZ,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Settings returns the validator settings.
func (v *Validator) Settings() Settings {
	return v.settings
}

// Validate walks from req.Start toward req.Target. Only horizontal arrival
// matters; the height of EndPos comes from the last ground found.
// A non-nil error wraps ErrTraversalFault and the Result must not be used
// as a destination.
func (v *Validator) Validate(req Request) (Result, error) {
	s := v.settings
	start, target := req.Start, req.Target

	maxDist := req.MaxDistance
	if maxDist <= 0 {
		maxDist = s.MaxDistance
	}
	arrive := s.StepLength * arrivalFactor

	// A step that cannot advance would spin until the iteration limit.
	if !start.IsFinite() || !target.IsFinite() || !(s.StepLength > 0) {
		return Result{EndPos: start}, v.fault(ErrDegenerateDirection, req, 0)
	}
	dir := target.Sub(start).Horizontal().Normalize()

	res := Result{EndPos: start}
	current := start

	for i := 0; ; i++ {
		if i >= s.MaxIterations {
			return res, v.fault(ErrIterationLimit, req, i)
		}

		if current.HorizontalDistance(target) <= arrive {
			return v.finish(res, current, Success), nil
		}
		if current.HorizontalDistance(start) > maxDist {
			return v.finish(res, current, MaxDistanceExceeded), nil
		}

		next := current.Add(dir.Scale(s.StepLength))
		landed, cond := v.step(current, next)
		if cond == Blocked {
			if ledge, ok := v.mantle(current, next, target); ok {
				landed, cond = ledge, Success
				res.Mantles++
			}
		}

		if cond != Success {
			v.overlay.Box(v.bounds(next), debug.Red)
			return v.finish(res, current, cond), nil
		}
		v.overlay.Box(v.bounds(landed), debug.White)

		current = landed
		res.EndPos = current
		res.Steps++
	}
}

// step performs the normal up, across, down move from current to next.
func (v *Validator) step(current, next math.Vec3) (math.Vec3, EndCondition) {
	s := v.settings

	up := v.trace(current, current.Add(math.Up.Scale(s.StepHeight)))
	if up.StartedSolid {
		return current, Blocked
	}
	raised := up.EndPosition

	across := v.trace(raised, next.WithZ(raised.Z))
	if across.Hit {
		return current, Blocked
	}

	drop := s.StepHeight + s.MaxDropHeight
	down := v.trace(across.EndPosition, across.EndPosition.Add(math.Down.Scale(drop)))
	switch {
	case down.StartedSolid:
		return current, Blocked
	case !down.Hit:
		return current, Fell
	case down.Normal.Z < v.minGroundZ:
		return current, Edge
	}
	return down.EndPosition, Success
}

// mantle looks for a ledge at next no higher than MantleHeight above
// current and checks that the player can climb onto it.
func (v *Validator) mantle(current, next, target math.Vec3) (math.Vec3, bool) {
	s := v.settings

	top := next.WithZ(current.Z + s.MantleHeight)
	hits := v.tracer.TraceAll(physics.NewTrace(top, next.WithZ(current.Z), v.capsule, v.filter()))
	if len(hits) == 0 {
		return current, false
	}
	for _, h := range hits {
		if h.StartedSolid {
			return current, false
		}
	}

	ledge := hits[0]
	if ledge.Normal.Z < v.minGroundZ {
		return current, false
	}
	if ledge.EndPosition.Z > target.Z+s.MantleTolerance {
		v.log.Debug("mantle rejected above target",
			zap.Float32("ledge_z", ledge.EndPosition.Z),
			zap.Float32("target_z", target.Z))
		return current, false
	}

	climb := ledge.EndPosition.Z + 1
	up := v.trace(current, current.WithZ(climb))
	if up.Hit {
		return current, false
	}
	across := v.trace(up.EndPosition, ledge.EndPosition.WithZ(climb))
	if across.Hit {
		return current, false
	}
	return ledge.EndPosition, true
}

// finish applies the headroom check to a successful walk and records the
// final position.
func (v *Validator) finish(res Result, pos math.Vec3, cond EndCondition) Result {
	s := v.settings
	if cond == Success && s.CheckHeadroom && s.StandHeight > s.CrouchHeight {
		head := v.trace(pos, pos.Add(math.Up.Scale(s.StandHeight-s.CrouchHeight)))
		if head.Hit {
			cond = Blocked
		}
	}

	res.EndPos = pos
	res.Condition = cond
	if cond == Success {
		v.overlay.Box(v.bounds(pos), debug.Green)
	}
	v.log.Debug("teleport validated",
		zap.Stringer("condition", cond),
		zap.Int("steps", res.Steps),
		zap.Int("mantles", res.Mantles),
		zap.Float32("end_x", pos.X),
		zap.Float32("end_y", pos.Y),
		zap.Float32("end_z", pos.Z))
	return res
}

func (v *Validator) fault(err error, req Request, iterations int) error {
	v.log.Error("teleport traversal aborted",
		zap.Error(err),
		zap.Int("iterations", iterations),
		zap.Any("start", req.Start),
		zap.Any("target", req.Target))
	return fmt.Errorf("teleport from %v to %v: %w", req.Start, req.Target, err)
}

func (v *Validator) trace(from, to math.Vec3) physics.TraceResult {
	return v.tracer.Trace(physics.NewTrace(from, to, v.capsule, v.filter()))
}

func (v *Validator) filter() physics.Filter {
	s := v.settings
	return physics.Filter{
		IgnoreOwner:       v.owner,
		WithoutTags:       s.IgnoreTags,
		UseCollisionRules: s.UseCollisionRules,
		Tags:              s.Tags,
	}
}

func (v *Validator) bounds(pos math.Vec3) math.BBox {
	return v.capsule.Extents().Translate(pos)
}
