package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap on all three axes
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Union returns the smallest AABB containing both a and other
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], other.Min[0]), math.Min(a.Min[1], other.Min[1]), math.Min(a.Min[2], other.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], other.Max[0]), math.Max(a.Max[1], other.Max[1]), math.Max(a.Max[2], other.Max[2])},
	}
}
