package physics

import (
	gomath "math"

	"github.com/Faultbox/midgard-vr/pkg/math"
)

// contactEpsilon is the distance under which shapes are considered touching
// rather than overlapping. Resting contact never blocks movement along or
// away from the touching face.
const contactEpsilon = 0.01

type sweepHit struct {
	t            float64
	normal       math.Vec3
	startedSolid bool
}

type vec3d [3]float64

func toD(v math.Vec3) vec3d {
	return vec3d{float64(v.X), float64(v.Y), float64(v.Z)}
}

// sweepBox sweeps a box (shape bounds around the trace origin) from start to
// end against a static solid, using the slab method on the solid expanded by
// the shape (Minkowski sum).
func sweepBox(start, end math.Vec3, shape, solid math.BBox) (sweepHit, bool) {
	lo := toD(solid.Min.Sub(shape.Max))
	hi := toD(solid.Max.Sub(shape.Min))
	o := toD(start)
	e := toD(end)
	d := vec3d{e[0] - o[0], e[1] - o[1], e[2] - o[2]}
	length := gomath.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])

	inside := true
	for a := 0; a < 3; a++ {
		if o[a] <= lo[a]+contactEpsilon || o[a] >= hi[a]-contactEpsilon {
			inside = false
			break
		}
	}
	if inside {
		return sweepHit{t: 0, startedSolid: true}, true
	}
	if length == 0 {
		return sweepHit{}, false
	}

	tEnter := gomath.Inf(-1)
	tExit := gomath.Inf(1)
	var normal math.Vec3

	for a := 0; a < 3; a++ {
		if gomath.Abs(d[a]) < 1e-9 {
			// Parallel to this slab: must be strictly within it
			if o[a] <= lo[a]+contactEpsilon || o[a] >= hi[a]-contactEpsilon {
				return sweepHit{}, false
			}
			continue
		}

		var near, far float64
		var n math.Vec3
		if d[a] > 0 {
			near = (lo[a] - o[a]) / d[a]
			far = (hi[a] - o[a]) / d[a]
			n = axisNormal(a, -1)
		} else {
			near = (hi[a] - o[a]) / d[a]
			far = (lo[a] - o[a]) / d[a]
			n = axisNormal(a, 1)
		}

		if near > tEnter {
			tEnter = near
			normal = n
		}
		if far < tExit {
			tExit = far
		}
	}

	if tEnter > tExit || tEnter > 1 {
		return sweepHit{}, false
	}
	// Leaving or grazing the solid
	if tExit*length <= contactEpsilon {
		return sweepHit{}, false
	}
	if tEnter < 0 {
		tEnter = 0
	}
	return sweepHit{t: tEnter, normal: normal}, true
}

func axisNormal(axis int, sign float32) math.Vec3 {
	switch axis {
	case 0:
		return math.Vec3{X: sign}
	case 1:
		return math.Vec3{Y: sign}
	default:
		return math.Vec3{Z: sign}
	}
}

// closestPoint clamps p into box.
func closestPoint(box math.BBox, p math.Vec3) math.Vec3 {
	return math.Vec3{
		X: clamp(p.X, box.Min.X, box.Max.X),
		Y: clamp(p.Y, box.Min.Y, box.Max.Y),
		Z: clamp(p.Z, box.Min.Z, box.Max.Z),
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
