// Package gjk implements the Gilbert-Johnson-Keerthi overlap test between convex geoms.
//
// GJK decides whether two convex shapes overlap by checking whether their Minkowski
// difference contains the origin, growing a simplex of support points toward it.
// A successful test leaves a tetrahedron enclosing the origin, which the epa
// package expands into a penetration depth and contact normal.
package gjk

import (
	"sync"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// maxIterations bounds the refinement loop; convex pairs converge in a handful of steps.
const maxIterations = 32

// Simplex represents a set of 1-4 points in the Minkowski difference space.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport returns the support point of A - B in direction:
// furthest(A, direction) - furthest(B, -direction).
func MinkowskiSupport(a, b *actor.Geom, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.SupportWorld(direction)
	supportB := b.SupportWorld(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// GJK reports whether the two geoms overlap. The simplex is modified in place;
// on overlap it usually holds the 4 points EPA starts from.
func GJK(a, b *actor.Geom, simplex *Simplex) bool {
	// Start toward B from A, it usually saves iterations
	direction := b.WorldTransform().Position.Sub(a.WorldTransform().Position)
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		// Shapes exactly touching at a point
		return true
	}

	for i := 0; i < maxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin: the shapes are separated
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin reduces the simplex to the feature closest to the origin and
// updates the search direction. Only a tetrahedron can contain the origin.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// line handles a 2-point simplex, A being the most recent point.
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	// Origin behind A: keep A alone
	if ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-8 {
		// Origin lies on the segment
		return true
	}

	*direction = abPerp
	return false
}

// triangle handles a 3-point simplex, A being the most recent point.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)

	// Collinear points: fall back to the AB segment
	if abc.LenSqr() < 1e-10 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		return line(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// Below the triangle, flip the winding to keep the normal toward the origin
		simplex.Points[0] = a
		simplex.Points[1] = c
		simplex.Points[2] = b
		simplex.Count = 3
		*direction = abc.Mul(-1)
	}

	return false
}

// tetrahedron handles a 4-point simplex, A being the most recent point.
// Face normals are oriented away from the opposite vertex.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3]
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		return reduceToTriangle(simplex, c, b, a, direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		return reduceToTriangle(simplex, c, b, a, direction)
	case acd.Dot(ao) > 0:
		return reduceToTriangle(simplex, d, c, a, direction)
	case adb.Dot(ao) > 0:
		return reduceToTriangle(simplex, b, d, a, direction)
	}

	return true
}

func outward(normal, toOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(toOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}

func reduceToTriangle(simplex *Simplex, p0, p1, p2 mgl64.Vec3, direction *mgl64.Vec3) bool {
	simplex.Points[0] = p0
	simplex.Points[1] = p1
	simplex.Points[2] = p2
	simplex.Count = 3
	return triangle(simplex, direction)
}
