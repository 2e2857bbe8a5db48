package physics

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/internal/engine/handle"
	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Solid is static axis-aligned collision geometry.
type Solid struct {
	Box   math.BBox
	Tags  []string
	Owner handle.Handle
}

// HasTag reports whether the solid carries tag.
func (s *Solid) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CollisionRules maps a tag to the tags it does not collide with.
type CollisionRules map[string][]string

// Ignores reports whether an object tagged with any of from skips a solid.
func (r CollisionRules) Ignores(from []string, s *Solid) bool {
	for _, tag := range from {
		for _, ignored := range r[tag] {
			if s.HasTag(ignored) {
				return true
			}
		}
	}
	return false
}

// World is an in-memory scene: static solids that traces run against, and
// rigid bodies that integrate accumulated forces each step.
// Rigid bodies are not traced.
type World struct {
	solids  *handle.Arena[*Solid]
	bodies  *handle.Arena[*RigidBody]
	rules   CollisionRules
	gravity math.Vec3

	log *zap.Logger
}

// NewWorld creates an empty world.
func NewWorld(log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		solids: handle.NewArena[*Solid](),
		bodies: handle.NewArena[*RigidBody](),
		rules:  CollisionRules{},
		log:    log,
	}
}

// SetGravity sets the acceleration applied to bodies with gravity enabled.
func (w *World) SetGravity(g math.Vec3) {
	w.gravity = g
}

// SetCollisionRules replaces the project collision rules.
func (w *World) SetCollisionRules(rules CollisionRules) {
	if rules == nil {
		rules = CollisionRules{}
	}
	w.rules = rules
}

// AddSolid adds static geometry and returns its handle.
func (w *World) AddSolid(box math.BBox, tags ...string) handle.Handle {
	return w.solids.Insert(&Solid{Box: box, Tags: tags})
}

// AddOwnedSolid adds static geometry belonging to owner's hierarchy.
func (w *World) AddOwnedSolid(owner handle.Handle, box math.BBox, tags ...string) handle.Handle {
	return w.solids.Insert(&Solid{Box: box, Tags: tags, Owner: owner})
}

// RemoveSolid removes static geometry.
func (w *World) RemoveSolid(h handle.Handle) bool {
	return w.solids.Remove(h)
}

// AddBody registers a rigid body with the world.
func (w *World) AddBody(b *RigidBody) handle.Handle {
	b.destroyed = false
	return w.bodies.Insert(b)
}

// Body returns the body for h if it is still alive.
func (w *World) Body(h handle.Handle) (*RigidBody, bool) {
	return w.bodies.Get(h)
}

// RemoveBody destroys a body. Existing references observe IsValid() == false.
func (w *World) RemoveBody(h handle.Handle) bool {
	b, ok := w.bodies.Get(h)
	if !ok {
		return false
	}
	b.destroyed = true
	w.log.Debug("body removed", zap.Stringer("body", h))
	return w.bodies.Remove(h)
}

// Step integrates every body by dt seconds.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}
	w.bodies.Each(func(_ handle.Handle, b *RigidBody) bool {
		b.integrate(dt, w.gravity)
		return true
	})
}

// Trace implements Tracer.
func (w *World) Trace(q TraceQuery) TraceResult {
	hits := w.sweep(q, true)
	if len(hits) == 0 {
		return TraceResult{
			StartPosition: q.Start,
			EndPosition:   q.End,
			Fraction:      1,
			Distance:      q.End.Distance(q.Start),
		}
	}
	return hits[0]
}

// TraceAll implements Tracer.
func (w *World) TraceAll(q TraceQuery) []TraceResult {
	return w.sweep(q, false)
}

func (w *World) sweep(q TraceQuery, firstOnly bool) []TraceResult {
	extents := q.Shape.Extents()
	delta := q.End.Sub(q.Start)
	length := delta.Length()

	var results []TraceResult
	w.solids.Each(func(h handle.Handle, s *Solid) bool {
		if w.filtered(q.Filter, s) {
			return true
		}
		hit, ok := sweepBox(q.Start, q.End, extents, s.Box)
		if !ok {
			return true
		}

		frac := float32(hit.t)
		end := q.Start.Add(delta.Scale(frac))
		res := TraceResult{
			Hit:           true,
			StartedSolid:  hit.startedSolid,
			StartPosition: q.Start,
			EndPosition:   end,
			HitPosition:   closestPoint(s.Box, end.Add(extents.Center())),
			Normal:        hit.normal,
			Fraction:      frac,
			Distance:      length * frac,
			Solid:         h,
			Tags:          s.Tags,
		}
		results = append(results, res)
		return true
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Fraction < results[j].Fraction
	})
	if firstOnly && len(results) > 1 {
		results = results[:1]
	}
	return results
}

func (w *World) filtered(f Filter, s *Solid) bool {
	if !f.IgnoreOwner.IsNil() && s.Owner == f.IgnoreOwner {
		return true
	}
	if f.UseCollisionRules {
		return w.rules.Ignores(f.Tags, s)
	}
	for _, tag := range f.WithoutTags {
		if s.HasTag(tag) {
			return true
		}
	}
	return false
}
