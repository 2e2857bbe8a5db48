// Package physics defines the collaborator contracts the VR components need
// from a physics engine (sweep traces, rigid bodies) and provides an
// in-memory World implementing them over static axis-aligned solids.
package physics

import (
	"github.com/Faultbox/midgard-vr/internal/engine/handle"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// ShapeKind identifies the swept shape of a trace.
type ShapeKind uint8

const (
	ShapeRay ShapeKind = iota
	ShapeSphere
	ShapeBox
	ShapeCapsule
)

// String implements fmt.Stringer.
func (k ShapeKind) String() string {
	switch k {
	case ShapeRay:
		return "ray"
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapeCapsule:
		return "capsule"
	default:
		return "unknown"
	}
}

// Shape is the volume moved along a trace.
type Shape struct {
	Kind   ShapeKind
	Radius float32
	Height float32
	Bounds math.BBox // used by ShapeBox
}

// Ray returns a zero-size trace shape.
func Ray() Shape {
	return Shape{Kind: ShapeRay}
}

// Sphere returns a sphere of the given radius centered on the trace line.
func Sphere(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Box returns a box shape with bounds relative to the trace position.
func Box(bounds math.BBox) Shape {
	return Shape{Kind: ShapeBox, Bounds: bounds}
}

// Capsule returns an upright capsule whose origin sits at its base.
func Capsule(radius, height float32) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, Height: height}
}

// Extents returns the local axis-aligned bounds of the shape.
func (s Shape) Extents() math.BBox {
	switch s.Kind {
	case ShapeSphere:
		r := s.Radius
		return math.BBox{Min: math.Vec3{X: -r, Y: -r, Z: -r}, Max: math.Vec3{X: r, Y: r, Z: r}}
	case ShapeBox:
		return s.Bounds
	case ShapeCapsule:
		return math.CylinderBounds(s.Radius, s.Height)
	default:
		return math.BBox{}
	}
}

// Filter selects which solids a trace may hit.
type Filter struct {
	// IgnoreOwner skips every solid owned by this handle (self hierarchy).
	IgnoreOwner handle.Handle
	// WithoutTags skips solids carrying any of these tags.
	WithoutTags []string
	// UseCollisionRules applies the world's collision rules to Tags
	// instead of WithoutTags.
	UseCollisionRules bool
	// Tags of the object doing the trace, used with collision rules.
	Tags []string
}

// TraceQuery describes one sweep.
type TraceQuery struct {
	Start  math.Vec3
	End    math.Vec3
	Shape  Shape
	Filter Filter
}

// NewTrace builds a query sweeping shape from start to end.
func NewTrace(start, end math.Vec3, shape Shape, filter Filter) TraceQuery {
	return TraceQuery{Start: start, End: end, Shape: shape, Filter: filter}
}

// TraceResult reports the outcome of a sweep.
type TraceResult struct {
	Hit          bool
	StartedSolid bool

	StartPosition math.Vec3
	// EndPosition is where the shape origin stopped.
	EndPosition math.Vec3
	// HitPosition is the contact point on the obstruction.
	HitPosition math.Vec3
	Normal      math.Vec3

	Fraction float32
	Distance float32

	Solid handle.Handle
	Tags  []string
}

// Tracer runs sweep traces against the scene.
type Tracer interface {
	// Trace returns the first obstruction along the query.
	Trace(q TraceQuery) TraceResult
	// TraceAll returns every obstruction along the query ordered by distance.
	TraceAll(q TraceQuery) []TraceResult
}

// Body is a simulated rigid body a controller can drive.
type Body interface {
	Position() math.Vec3
	Rotation() math.Quat
	SetPosition(p math.Vec3)
	SetRotation(r math.Quat)
	SetVelocity(v math.Vec3)
	SetAngularVelocity(w math.Vec3)
	// ApplyForce accumulates a force for the current physics step.
	ApplyForce(f math.Vec3)
	// ApplyTorque accumulates a torque for the current physics step.
	ApplyTorque(t math.Vec3)
	// IsValid reports whether the body still exists in its world.
	IsValid() bool
}

// IsBoxVisible reports whether any corner of box can be seen from point
// along an unobstructed ray.
func IsBoxVisible(t Tracer, from math.Vec3, box math.BBox, filter Filter) bool {
	for _, corner := range box.Corners() {
		if !t.Trace(NewTrace(from, corner, Ray(), filter)).Hit {
			return true
		}
	}
	return false
}
