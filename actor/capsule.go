package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Capsule is a segment of Length along local Z swept by a sphere of Radius.
// The total height is Length + 2*Radius.
type Capsule struct {
	Radius float64
	Length float64
}

func (c *Capsule) Type() ShapeType { return ShapeTypeCapsule }

func (c *Capsule) ComputeAABB(transform Transform) AABB {
	axis := transform.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
	halfLength := c.Length / 2

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		extent[i] = math.Abs(axis[i])*halfLength + c.Radius
	}

	return AABB{
		Min: transform.Position.Sub(extent),
		Max: transform.Position.Add(extent),
	}
}

func (c *Capsule) ComputeMass(density float64) float64 {
	r := c.Radius
	return density * (math.Pi*r*r*c.Length + (4.0/3.0)*math.Pi*r*r*r)
}

func (c *Capsule) ComputeInertia(mass float64) mgl64.Mat3 {
	r, l := c.Radius, c.Length

	// Split the mass between the cylinder body and the two hemispherical caps
	cylinderVolume := math.Pi * r * r * l
	sphereVolume := (4.0 / 3.0) * math.Pi * r * r * r
	total := cylinderVolume + sphereVolume
	if total <= 0 {
		return mgl64.Mat3{}
	}
	m1 := mass * cylinderVolume / total
	m2 := mass * sphereVolume / total

	side := m1*(0.25*r*r+l*l/12.0) + m2*(0.4*r*r+0.375*r*l+0.25*l*l)
	axial := (0.5*m1 + 0.4*m2) * r * r
	return mgl64.Diag3(mgl64.Vec3{side, side, axial})
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	center := mgl64.Vec3{0, 0, c.Length / 2}
	if direction.Z() < 0 {
		center[2] = -center[2]
	}
	if direction.LenSqr() < 1e-16 {
		return center
	}
	return center.Add(direction.Normalize().Mul(c.Radius))
}

// GetContactFeature returns the side segment when direction is nearly perpendicular
// to the axis, and a single point otherwise.
func (c *Capsule) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return []mgl64.Vec3{c.Support(direction)}
	}
	dir := direction.Normalize()
	if math.Abs(dir.Z()) > 0.1 {
		return []mgl64.Vec3{c.Support(dir)}
	}

	radial := mgl64.Vec3{dir.X(), dir.Y(), 0}.Normalize().Mul(c.Radius)
	halfLength := c.Length / 2
	return []mgl64.Vec3{
		radial.Add(mgl64.Vec3{0, 0, -halfLength}),
		radial.Add(mgl64.Vec3{0, 0, halfLength}),
	}
}
