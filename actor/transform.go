package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// NewTransformAt creates a transform at position with the given rotation
func NewTransformAt(position mgl64.Vec3, rotation mgl64.Quat) Transform {
	rotation = rotation.Normalize()
	return Transform{
		Position:        position,
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// Mul composes t with a transform expressed in t's local frame.
func (t Transform) Mul(local Transform) Transform {
	return NewTransformAt(
		t.Position.Add(t.Rotation.Rotate(local.Position)),
		t.Rotation.Mul(local.Rotation),
	)
}

// Inverse returns the transform mapping world space into t's local frame.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	return NewTransformAt(inv.Rotate(t.Position.Mul(-1)), inv)
}

// Apply maps a local point into world space.
func (t Transform) Apply(point mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(point))
}

// Yaw returns the heading of the transform around the world Z axis, in radians.
func (t Transform) Yaw() float64 {
	return QuatYaw(t.Rotation)
}

// QuatYaw extracts the rotation around Z from q.
func QuatYaw(q mgl64.Quat) float64 {
	x, y, z := q.V.X(), q.V.Y(), q.V.Z()
	return math.Atan2(2*(q.W*z+x*y), 1-2*(y*y+z*z))
}

// YawQuat builds a rotation of angle radians around the world Z axis.
func YawQuat(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, mgl64.Vec3{0, 0, 1})
}
