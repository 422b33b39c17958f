package tabletop

import (
	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/constraint"
	"github.com/akmonengine/tabletop/epa"
	"github.com/akmonengine/tabletop/gjk"
)

// DefaultMaxContacts is the manifold size used when none is configured.
const DefaultMaxContacts = 4

// collider computes the contact between two geoms, the normal pointing from a to b.
type collider func(a, b *actor.Geom) (constraint.ContactConstraint, bool)

type shapePair struct {
	a, b actor.ShapeType
}

// colliders is the narrow-phase dispatch table. There is no entry for two
// cylinders: that pair produces no contact.
var colliders = map[shapePair]collider{}

func init() {
	convex := []actor.ShapeType{
		actor.ShapeTypeSphere,
		actor.ShapeTypeBox,
		actor.ShapeTypeCapsule,
		actor.ShapeTypeCylinder,
	}

	for _, a := range convex {
		for _, b := range convex {
			if a == actor.ShapeTypeCylinder && b == actor.ShapeTypeCylinder {
				continue
			}
			colliders[shapePair{a, b}] = collideConvex
		}
		colliders[shapePair{actor.ShapeTypePlane, a}] = collidePlaneConvex
		colliders[shapePair{a, actor.ShapeTypePlane}] = collideConvexPlane
	}
}

// HasCollider reports whether the narrow phase handles the pair of shapes.
func HasCollider(a, b actor.ShapeType) bool {
	_, ok := colliders[shapePair{a, b}]
	return ok
}

// Collide runs the narrow phase on two geoms. The contact keeps at most
// maxContacts points (DefaultMaxContacts when maxContacts <= 0). It returns
// false when the geoms do not touch or the pair of shapes is not supported.
func Collide(a, b *actor.Geom, maxContacts int) (constraint.ContactConstraint, bool) {
	collide, ok := colliders[shapePair{a.Shape.Type(), b.Shape.Type()}]
	if !ok {
		return constraint.ContactConstraint{}, false
	}

	contact, ok := collide(a, b)
	if !ok || len(contact.Points) == 0 {
		return constraint.ContactConstraint{}, false
	}

	if maxContacts <= 0 {
		maxContacts = DefaultMaxContacts
	}
	if len(contact.Points) > maxContacts {
		contact.Points = contact.Points[:maxContacts]
	}
	return contact, true
}

func collideConvex(a, b *actor.Geom) (constraint.ContactConstraint, bool) {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(a, b, simplex) {
		return constraint.ContactConstraint{}, false
	}

	contact, err := epa.EPA(a, b, simplex)
	if err != nil {
		return constraint.ContactConstraint{}, false
	}
	return contact, true
}

func collidePlaneConvex(plane, object *actor.Geom) (constraint.ContactConstraint, bool) {
	p := plane.Shape.(*actor.Plane)
	points := planeContactPoints(p, object)
	if len(points) == 0 {
		return constraint.ContactConstraint{}, false
	}

	return constraint.ContactConstraint{
		BodyA:  plane.Body,
		BodyB:  object.Body,
		Points: points,
		Normal: p.Normal,
	}, true
}

func collideConvexPlane(object, plane *actor.Geom) (constraint.ContactConstraint, bool) {
	p := plane.Shape.(*actor.Plane)
	points := planeContactPoints(p, object)
	if len(points) == 0 {
		return constraint.ContactConstraint{}, false
	}

	return constraint.ContactConstraint{
		BodyA:  object.Body,
		BodyB:  plane.Body,
		Points: points,
		Normal: p.Normal.Mul(-1),
	}, true
}

// planeContactPoints returns the points of the object's feature facing the
// plane that lie below it. Depth is the distance below the plane.
func planeContactPoints(plane *actor.Plane, object *actor.Geom) []constraint.ContactPoint {
	down := plane.Normal.Mul(-1)
	t := object.WorldTransform()

	var points []constraint.ContactPoint
	for _, local := range object.Shape.GetContactFeature(t.InverseRotation.Rotate(down)) {
		point := t.Apply(local)
		if depth := -plane.SignedDistance(point); depth > 0 {
			points = append(points, constraint.ContactPoint{Position: point, Penetration: depth})
		}
	}

	if len(points) == 0 {
		// The feature can miss a tilted corner
		deepest := object.SupportWorld(down)
		if depth := -plane.SignedDistance(deepest); depth > 0 {
			points = append(points, constraint.ContactPoint{Position: deepest, Penetration: depth})
		}
	}

	return points
}
