package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// capSegments is the number of vertices used to approximate a cylinder cap in contact features.
const capSegments = 8

// Cylinder is a flat-capped cylinder centered on its origin, with its axis along local Z.
type Cylinder struct {
	Radius float64
	Height float64
}

func (c *Cylinder) Type() ShapeType { return ShapeTypeCylinder }

func (c *Cylinder) ComputeAABB(transform Transform) AABB {
	axis := transform.Rotation.Rotate(mgl64.Vec3{0, 0, 1})
	halfHeight := c.Height / 2

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		a := math.Abs(axis[i])
		extent[i] = a*halfHeight + c.Radius*math.Sqrt(math.Max(0, 1-a*a))
	}

	return AABB{
		Min: transform.Position.Sub(extent),
		Max: transform.Position.Add(extent),
	}
}

func (c *Cylinder) ComputeMass(density float64) float64 {
	return density * math.Pi * c.Radius * c.Radius * c.Height
}

func (c *Cylinder) ComputeInertia(mass float64) mgl64.Mat3 {
	r2 := c.Radius * c.Radius
	side := mass * (0.25*r2 + c.Height*c.Height/12.0)
	return mgl64.Diag3(mgl64.Vec3{side, side, 0.5 * mass * r2})
}

func (c *Cylinder) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var support mgl64.Vec3

	radial := math.Hypot(direction.X(), direction.Y())
	if radial > 1e-12 {
		support[0] = c.Radius * direction.X() / radial
		support[1] = c.Radius * direction.Y() / radial
	}
	if direction.Z() < 0 {
		support[2] = -c.Height / 2
	} else {
		support[2] = c.Height / 2
	}

	return support
}

// GetContactFeature returns the cap polygon when direction is closer to the axis
// than to the side, and the side segment otherwise.
func (c *Cylinder) GetContactFeature(direction mgl64.Vec3) []mgl64.Vec3 {
	if direction.LenSqr() < 1e-16 {
		return []mgl64.Vec3{c.Support(direction)}
	}
	dir := direction.Normalize()
	halfHeight := c.Height / 2

	if math.Abs(dir.Z()) > math.Sqrt2/2 {
		z := halfHeight
		if dir.Z() < 0 {
			z = -halfHeight
		}

		ring := make([]mgl64.Vec3, capSegments)
		for i := range ring {
			angle := 2 * math.Pi * float64(i) / capSegments
			ring[i] = mgl64.Vec3{c.Radius * math.Cos(angle), c.Radius * math.Sin(angle), z}
		}
		return ring
	}

	angle := math.Atan2(dir.Y(), dir.X())
	x, y := c.Radius*math.Cos(angle), c.Radius*math.Sin(angle)
	return []mgl64.Vec3{
		{x, y, -halfHeight},
		{x, y, halfHeight},
	}
}
