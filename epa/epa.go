// Package epa computes penetration depth and contact manifolds for geoms
// that GJK found intersecting.
//
// The polytope starts from the GJK tetrahedron and is expanded toward the
// surface of the Minkowski difference until the face closest to the origin
// stops moving. Its normal and distance give the separation direction and
// depth; the manifold is then built by clipping the contact features of both
// shapes.
package epa

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/constraint"
	"github.com/akmonengine/tabletop/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations bounds the polytope expansion.
	EPAMaxIterations = 32

	// EPAConvergenceTolerance stops the expansion once a new support point
	// improves the closest distance by less than this.
	EPAConvergenceTolerance = 0.001

	// EPAMinFaceDistance is the floor for face distances; closer faces are
	// treated as degenerate.
	EPAMinFaceDistance = 0.0001

	// NormalSnapThreshold clamps near-zero normal components to zero.
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when the simplex
	// is too small to measure one.
	DegeneratePenetrationEstimate = 0.01

	polytopeInitialCapacity = 16
)

// ErrNotConverged is returned when the polytope did not settle within EPAMaxIterations.
var ErrNotConverged = errors.New("epa: not converged")

// EPA returns the contact between two intersecting geoms. The normal points
// from a toward b and every point carries the positive penetration depth.
func EPA(a, b *actor.Geom, simplex *gjk.Simplex) (constraint.ContactConstraint, error) {
	if simplex.Count < 4 {
		return handleDegenerateSimplex(a, b, simplex), nil
	}

	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)
	p.reset()

	if err := p.init(simplex); err != nil {
		return constraint.ContactConstraint{}, err
	}

	for i := 0; i < EPAMaxIterations; i++ {
		if len(p.faces) == 0 {
			break
		}

		closest := p.closest()
		face := p.faces[closest]

		support := gjk.MinkowskiSupport(a, b, face.Normal)
		distance := support.Dot(face.Normal)

		if distance-face.Distance < EPAConvergenceTolerance {
			return newContact(a, b, face.Normal, face.Distance), nil
		}

		p.expand(support, closest)
	}

	return constraint.ContactConstraint{}, fmt.Errorf("%w after %d iterations", ErrNotConverged, EPAMaxIterations)
}

func newContact(a, b *actor.Geom, normal mgl64.Vec3, depth float64) constraint.ContactConstraint {
	return constraint.ContactConstraint{
		BodyA:  a.Body,
		BodyB:  b.Body,
		Points: GenerateManifold(a, b, normal, depth),
		Normal: normal,
	}
}

// handleDegenerateSimplex estimates a contact when GJK terminated with fewer
// than 4 points, which happens for shapes barely touching.
func handleDegenerateSimplex(a, b *actor.Geom, simplex *gjk.Simplex) constraint.ContactConstraint {
	if simplex.Count >= 2 {
		p0 := simplex.Points[0]
		p1 := simplex.Points[1]

		closest := p0
		if p1.Len() < p0.Len() {
			closest = p1
		}
		depth := closest.Len()
		if depth < NormalSnapThreshold {
			return newContact(a, b, centerNormal(a, b), DegeneratePenetrationEstimate)
		}

		return newContact(a, b, closest.Mul(1.0/depth), depth)
	}

	return newContact(a, b, centerNormal(a, b), DegeneratePenetrationEstimate)
}

// centerNormal points from the center of a toward the center of b, or up if they coincide.
func centerNormal(a, b *actor.Geom) mgl64.Vec3 {
	normal := b.WorldTransform().Position.Sub(a.WorldTransform().Position)
	length := normal.Len()
	if length < NormalSnapThreshold {
		return mgl64.Vec3{0, 0, 1}
	}
	return normal.Mul(1.0 / length)
}

// snapNormalToAxis clamps tiny components to zero and renormalizes, so that
// axis-aligned contacts do not drift tangentially.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for i := range normal {
		if math.Abs(normal[i]) < NormalSnapThreshold {
			normal[i] = 0
		}
	}

	length := normal.Len()
	if length <= 1e-8 {
		return mgl64.Vec3{0, 0, 1}
	}
	return normal.Mul(1.0 / length)
}
