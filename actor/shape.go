package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCapsule
	ShapeTypeCylinder
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeSphere:
		return "sphere"
	case ShapeTypeBox:
		return "box"
	case ShapeTypePlane:
		return "plane"
	case ShapeTypeCapsule:
		return "capsule"
	case ShapeTypeCylinder:
		return "cylinder"
	}
	return fmt.Sprintf("shape(%d)", int(t))
}

// ErrUnsupportedShape is returned when an operation has no implementation for a shape class.
var ErrUnsupportedShape = errors.New("unsupported shape")

// ShapeInterface is the interface that all collision shapes must implement.
// Shapes are expressed in their local frame; Z is the axis of revolution for
// capsules and cylinders.
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform) AABB
	// ComputeMass calculates the mass of the shape given a density
	ComputeMass(density float64) float64
	// ComputeInertia returns the inertia tensor around the shape's center
	ComputeInertia(mass float64) mgl64.Mat3
	Support(direction mgl64.Vec3) mgl64.Vec3
	GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3
}

// CloneShape returns an independent copy of a built-in shape.
func CloneShape(shape ShapeInterface) (ShapeInterface, error) {
	switch s := shape.(type) {
	case *Sphere:
		c := *s
		return &c, nil
	case *Box:
		c := *s
		return &c, nil
	case *Plane:
		c := *s
		return &c, nil
	case *Capsule:
		c := *s
		return &c, nil
	case *Cylinder:
		c := *s
		return &c, nil
	}
	return nil, fmt.Errorf("clone %T: %w", shape, ErrUnsupportedShape)
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-depth, half-height)
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) AABB {
	// Project the rotated half extents on each world axis
	r := transform.Rotation.Mat4().Mat3()
	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			extent[i] += math.Abs(r.At(i, j)) * b.HalfExtents[j]
		}
	}

	return AABB{
		Min: transform.Position.Sub(extent),
		Max: transform.Position.Add(extent),
	}
}

// ComputeMass calculates mass for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	return density * 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	support := b.HalfExtents
	for i := 0; i < 3; i++ {
		if direction[i] < 0 {
			support[i] = -support[i]
		}
	}
	return support
}

// GetContactFeature returns the face whose normal is the most aligned with direction,
// as a closed polygon in local space.
func (b *Box) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(direction[i]) > math.Abs(direction[axis]) {
			axis = i
		}
	}
	sign := 1.0
	if direction[axis] < 0 {
		sign = -1.0
	}

	u := (axis + 1) % 3
	v := (axis + 2) % 3
	h := b.HalfExtents

	corners := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	face := make([]mgl64.Vec3, 4)
	for i, c := range corners {
		var p mgl64.Vec3
		p[axis] = sign * h[axis]
		p[u] = c[0] * h[u]
		p[v] = c[1] * h[v]
		face[i] = p
	}

	return face
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) AABB {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	return AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

// ComputeMass calculates mass for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	return density * (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r², same on all axes
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius
	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return mgl64.Vec3{0, 0, s.Radius}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	return []mgl64.Vec3{s.Support(direction)}
}

// Plane represents an infinite plane collision shape, expressed in world space.
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
}

const (
	planeThickness = 1.0
	planeHalfSize  = 1000.0
	infinity       = 1e10
)

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

// ComputeAABB ignores the transform: planes live in world space.
func (p *Plane) ComputeAABB(_ Transform) AABB {
	// Point on the plane closest to the origin
	planePoint := p.Point()

	min := planePoint.Sub(p.Normal.Mul(planeThickness))
	max := planePoint

	// Extend the AABB to infinity on the axes the normal is not aligned with
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
		if math.Abs(p.Normal[i]) < 1.0 {
			min[i] = -infinity
			max[i] = infinity
		}
	}

	return AABB{Min: min, Max: max}
}

// Point returns the point of the plane closest to the origin.
func (p *Plane) Point() mgl64.Vec3 {
	return p.Normal.Mul(-p.Distance)
}

// SignedDistance returns the distance of point above the plane (negative below).
func (p *Plane) SignedDistance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.Distance
}

// ComputeMass returns an infinite mass: planes are always static
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Support treats the plane as a large slab below its surface.
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tangent1, tangent2 := getTangentBasis(p.Normal)
	support := p.Point()

	if direction.Dot(tangent1) < 0 {
		support = support.Sub(tangent1.Mul(planeHalfSize))
	} else {
		support = support.Add(tangent1.Mul(planeHalfSize))
	}
	if direction.Dot(tangent2) < 0 {
		support = support.Sub(tangent2.Mul(planeHalfSize))
	} else {
		support = support.Add(tangent2.Mul(planeHalfSize))
	}
	if direction.Dot(p.Normal) < 0 {
		support = support.Sub(p.Normal.Mul(planeThickness))
	}

	return support
}

// GetContactFeature returns 4 points forming a large square on the plane surface
func (p *Plane) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	tangent1, tangent2 := getTangentBasis(p.Normal)
	center := p.Point()

	return []mgl64.Vec3{
		center.Add(tangent1.Mul(-planeHalfSize)).Add(tangent2.Mul(-planeHalfSize)),
		center.Add(tangent1.Mul(-planeHalfSize)).Add(tangent2.Mul(planeHalfSize)),
		center.Add(tangent1.Mul(planeHalfSize)).Add(tangent2.Mul(planeHalfSize)),
		center.Add(tangent1.Mul(planeHalfSize)).Add(tangent2.Mul(-planeHalfSize)),
	}
}

// Helper to generate the tangent basis
func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
