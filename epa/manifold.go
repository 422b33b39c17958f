package epa

import (
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// GenerateManifold returns up to 4 contact points between a and b. The
// feature of each shape facing the other is clipped against the one with
// more vertices (Sutherland-Hodgman), and only points behind the reference
// face are kept.
func GenerateManifold(a, b *actor.Geom, normal mgl64.Vec3, depth float64) []constraint.ContactPoint {
	worldFeatureA := worldFeature(a, normal)
	worldFeatureB := worldFeature(b, normal.Mul(-1))

	// facing points out of the reference feature toward the incident one
	incident, reference, facing := worldFeatureB, worldFeatureA, normal
	if len(worldFeatureB) > len(worldFeatureA) {
		incident, reference, facing = worldFeatureA, worldFeatureB, normal.Mul(-1)
	}

	if len(incident) == 1 {
		return []constraint.ContactPoint{{
			Position:    incident[0],
			Penetration: depth,
		}}
	}

	clipped := clipIncidentAgainstReference(incident, reference, normal)

	var contactPoints []constraint.ContactPoint
	if len(clipped) > 0 && len(reference) >= 3 {
		refNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0]))
		if refNormal.Len() < 1e-10 {
			refNormal = facing
		}
		refNormal = refNormal.Normalize()
		if refNormal.Dot(facing) < 0 {
			refNormal = refNormal.Mul(-1)
		}
		offset := reference[0].Dot(refNormal)

		for _, point := range clipped {
			if point.Dot(refNormal)-offset <= 1e-6 {
				contactPoints = append(contactPoints, constraint.ContactPoint{
					Position:    point,
					Penetration: depth,
				})
			}
		}
	} else {
		for _, point := range clipped {
			contactPoints = append(contactPoints, constraint.ContactPoint{
				Position:    point,
				Penetration: depth,
			})
		}
	}

	if len(contactPoints) == 0 {
		contactPoints = append(contactPoints, constraint.ContactPoint{
			Position:    b.SupportWorld(normal.Mul(-1)),
			Penetration: depth,
		})
	}

	if len(contactPoints) > 4 {
		contactPoints = reduceTo4Points(contactPoints, normal)
	}

	return contactPoints
}

// worldFeature returns the contact feature of g facing direction, in world space.
func worldFeature(g *actor.Geom, direction mgl64.Vec3) []mgl64.Vec3 {
	if plane, ok := g.Shape.(*actor.Plane); ok {
		// Planes live in world space already
		return plane.GetContactFeature(direction)
	}

	t := g.WorldTransform()
	feature := g.Shape.GetContactFeature(t.InverseRotation.Rotate(direction))

	result := make([]mgl64.Vec3, len(feature))
	for i, point := range feature {
		result[i] = t.Apply(point)
	}
	return result
}

// clipIncidentAgainstReference clips the incident polygon against the side
// planes of the reference polygon. Plane references and references with
// fewer than 2 points do not clip.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 2 || isLargePlane(reference) {
		return incident
	}

	if len(reference) == 2 {
		// A segment only bounds along its own axis
		axis := reference[1].Sub(reference[0])
		output := clipPolygonAgainstPlane(incident, reference[0], axis)
		return clipPolygonAgainstPlane(output, reference[1], axis.Mul(-1))
	}

	output := incident
	center := computeCenter(reference)

	for i := 0; i < len(reference); i++ {
		if len(output) == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%len(reference)]

		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.Len() < 1e-10 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipPolygonAgainstPlane implements Sutherland-Hodgman for a single plane
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	var output []mgl64.Vec3
	var intersection mgl64.Vec3
	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		const tolerance = 1e-6

		// Current is inside
		if currentDist >= -tolerance {
			output = append(output, current)

			// Next is outside → add intersection
			if nextDist < -tolerance {
				intersection = lineIntersectPlane(current, next, planePoint, planeNormal)
				output = append(output, intersection)
			}
		} else {
			// Current is outside, next is inside → add intersection
			if nextDist >= -tolerance {
				intersection = lineIntersectPlane(current, next, planePoint, planeNormal)
				output = append(output, intersection)
			}
		}
	}

	return output
}

// lineIntersectPlane calculates the intersection between a line segment and a plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	dist := p1.Sub(planePoint).Dot(planeNormal)
	denom := dir.Dot(planeNormal)

	if math.Abs(denom) < 1e-10 {
		return p1 // Segment parallel to plane
	}

	t := -dist / denom
	t = math.Max(0, math.Min(1, t)) // Clamp to segment

	return p1.Add(dir.Mul(t))
}

// computeCenter calculates the centroid of a set of points
func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{0, 0, 0}
	}

	sum := mgl64.Vec3{0, 0, 0}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// isLargePlane detects if a feature represents an infinite plane
func isLargePlane(feature []mgl64.Vec3) bool {
	if len(feature) != 4 {
		return false
	}

	// Check if distances between points are very large (> 100)
	for i := 0; i < len(feature); i++ {
		for j := i + 1; j < len(feature); j++ {
			if feature[i].Sub(feature[j]).Len() > 100 {
				return true
			}
		}
	}
	return false
}

func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

func reduceTo4Points(points []constraint.ContactPoint, normal mgl64.Vec3) []constraint.ContactPoint {
	tangent1, tangent2 := getTangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	minXval, maxXval := math.Inf(1), math.Inf(-1)
	minYval, maxYval := math.Inf(1), math.Inf(-1)

	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)

		if x < minXval {
			minXval, minX = x, i
		}
		if x > maxXval {
			maxXval, maxX = x, i
		}
		if y < minYval {
			minYval, minY = y, i
		}
		if y > maxYval {
			maxYval, maxY = y, i
		}
	}

	indices := map[int]bool{minX: true, maxX: true, minY: true, maxY: true}

	result := make([]constraint.ContactPoint, 0, 4)
	for idx := range indices {
		result = append(result, points[idx])
	}

	return result
}
