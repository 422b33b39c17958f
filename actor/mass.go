package actor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Mass describes the mass distribution of a body. Inertia is expressed around
// the body's point of reference (its origin), Center is the center of mass in
// the body frame.
type Mass struct {
	Mass    float64
	Center  mgl64.Vec3
	Inertia mgl64.Mat3
}

// ShapeMass computes the mass distribution of shape centered on its own origin.
// Only closed solids are supported.
func ShapeMass(shape ShapeInterface, density float64) (Mass, error) {
	switch shape.(type) {
	case *Sphere, *Box, *Capsule, *Cylinder:
	default:
		return Mass{}, fmt.Errorf("mass of %T: %w", shape, ErrUnsupportedShape)
	}

	mass := shape.ComputeMass(density)
	return Mass{
		Mass:    mass,
		Inertia: shape.ComputeInertia(mass),
	}, nil
}

// Rotate rotates the distribution by q around the point of reference.
func (m *Mass) Rotate(q mgl64.Quat) {
	r := q.Normalize().Mat4().Mat3()
	m.Inertia = r.Mul3(m.Inertia).Mul3(r.Transpose())
	m.Center = r.Mul3x1(m.Center)
}

// Translate moves the distribution by offset relative to the point of reference,
// updating the inertia with the parallel axis theorem.
func (m *Mass) Translate(offset mgl64.Vec3) {
	moved := m.Center.Add(offset)
	delta := pointInertia(moved).Sub(pointInertia(m.Center)).Mul(m.Mass)
	m.Inertia = m.Inertia.Add(delta)
	m.Center = moved
}

// Add accumulates other into m.
func (m *Mass) Add(other Mass) {
	total := m.Mass + other.Mass
	if total > 0 {
		m.Center = m.Center.Mul(m.Mass).Add(other.Center.Mul(other.Mass)).Mul(1.0 / total)
	}
	m.Mass = total
	m.Inertia = m.Inertia.Add(other.Inertia)
}

// Adjust rescales the distribution so the total mass equals mass.
// Ratios between inertia components are preserved.
func (m *Mass) Adjust(mass float64) {
	if m.Mass <= 0 {
		return
	}
	scale := mass / m.Mass
	m.Inertia = m.Inertia.Mul(scale)
	m.Mass = mass
}

// pointInertia returns |c|²·E − c·cᵀ, the inertia of a unit point mass at c.
func pointInertia(c mgl64.Vec3) mgl64.Mat3 {
	var out mgl64.Mat3
	lenSqr := c.LenSqr()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			v := -c[row] * c[col]
			if row == col {
				v += lenSqr
			}
			out.Set(row, col, v)
		}
	}
	return out
}
