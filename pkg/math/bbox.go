package math

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max Vec3
}

// NewBBox creates a box from two corners, ordering each axis.
func NewBBox(a, b Vec3) BBox {
	box := BBox{Min: a, Max: b}
	if box.Min.X > box.Max.X {
		box.Min.X, box.Max.X = box.Max.X, box.Min.X
	}
	if box.Min.Y > box.Max.Y {
		box.Min.Y, box.Max.Y = box.Max.Y, box.Min.Y
	}
	if box.Min.Z > box.Max.Z {
		box.Min.Z, box.Max.Z = box.Max.Z, box.Min.Z
	}
	return box
}

// CylinderBounds returns the box of a standing body of the given radius and
// height with its origin at the feet.
func CylinderBounds(radius, height float32) BBox {
	return BBox{
		Min: Vec3{-radius, -radius, 0},
		Max: Vec3{radius, radius, height},
	}
}

// Translate returns the box moved by offset.
func (b BBox) Translate(offset Vec3) BBox {
	return BBox{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

// Size returns the extent along each axis.
func (b BBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box midpoint.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Contains reports whether p lies inside the box (inclusive).
func (b BBox) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Corners returns the eight corners of the box.
func (b BBox) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
	}
}
