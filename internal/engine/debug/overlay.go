package debug

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-vr/pkg/math"
)

// Color is an RGBA color.
type Color [4]float32

var (
	White = Color{1, 1, 1, 1}
	Red   = Color{1, 0, 0, 1}
	Green = Color{0, 1, 0, 1}
)

// String implements fmt.Stringer.
func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Red:
		return "red"
	case Green:
		return "green"
	}
	return fmt.Sprintf("rgba(%.2f,%.2f,%.2f,%.2f)", c[0], c[1], c[2], c[3])
}

// Overlay draws diagnostic shapes in world space.
type Overlay interface {
	Box(box math.BBox, c Color)
	Sphere(center math.Vec3, radius float32, c Color)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Box(math.BBox, Color)             {}
func (Nop) Sphere(math.Vec3, float32, Color) {}

// BoxShape is a recorded box.
type BoxShape struct {
	Box      math.BBox
	Color    Color
	Vertices []float32
}

// SphereShape is a recorded sphere.
type SphereShape struct {
	Center math.Vec3
	Radius float32
	Color  Color
}

// Recorder keeps every shape drawn, with box wireframes ready for a line
// renderer.
type Recorder struct {
	Boxes   []BoxShape
	Spheres []SphereShape
}

// Box implements Overlay.
func (r *Recorder) Box(box math.BBox, c Color) {
	r.Boxes = append(r.Boxes, BoxShape{Box: box, Color: c, Vertices: WireframeVertices(box)})
}

// Sphere implements Overlay.
func (r *Recorder) Sphere(center math.Vec3, radius float32, c Color) {
	r.Spheres = append(r.Spheres, SphereShape{Center: center, Radius: radius, Color: c})
}

// Reset clears recorded shapes.
func (r *Recorder) Reset() {
	r.Boxes = r.Boxes[:0]
	r.Spheres = r.Spheres[:0]
}

// Logged writes shapes to a logger at debug level.
type Logged struct {
	log *zap.Logger
}

// NewLogged creates an overlay that logs shapes.
func NewLogged(log *zap.Logger) *Logged {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logged{log: log}
}

// Box implements Overlay.
func (l *Logged) Box(box math.BBox, c Color) {
	l.log.Debug("overlay box",
		zap.Any("min", box.Min),
		zap.Any("max", box.Max),
		zap.Stringer("color", c),
	)
}

// Sphere implements Overlay.
func (l *Logged) Sphere(center math.Vec3, radius float32, c Color) {
	l.log.Debug("overlay sphere",
		zap.Any("center", center),
		zap.Float32("radius", radius),
		zap.Stringer("color", c),
	)
}
