package constraint

import (
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is solved once per substep: positions first, then velocities
// once the bodies have derived their new velocities.
type Constraint interface {
	SolvePosition(dt float64)
	SolveVelocity(dt float64)
}

// Group collects the constraints created for one substep. It is emptied
// before the next collision pass.
type Group struct {
	constraints []Constraint
}

// Add appends a constraint; nil constraints are ignored.
func (g *Group) Add(c Constraint) {
	if c == nil {
		return
	}
	g.constraints = append(g.constraints, c)
}

// Empty drops every constraint, keeping the backing storage.
func (g *Group) Empty() {
	clear(g.constraints)
	g.constraints = g.constraints[:0]
}

func (g *Group) Len() int {
	return len(g.constraints)
}

// Constraints returns the constraints in insertion order.
func (g *Group) Constraints() []Constraint {
	return g.constraints
}

// Contacts returns the contact constraints of the group, in insertion order.
func (g *Group) Contacts() []*ContactConstraint {
	var contacts []*ContactConstraint
	for _, c := range g.constraints {
		if contact, ok := c.(*ContactConstraint); ok {
			contacts = append(contacts, contact)
		}
	}
	return contacts
}

func ComputeRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

func ComputeStaticFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.StaticFriction * matB.StaticFriction)
}

func ComputeDynamicFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.DynamicFriction * matB.DynamicFriction)
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{0, 0, 0}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{0, 0, 0}
	}
}

func inactive(rb *actor.RigidBody) bool {
	return rb.IsSleeping || rb.BodyType == actor.BodyTypeStatic
}

// rotate applies a small rotation vector to a dynamic body.
func rotate(rb *actor.RigidBody, delta mgl64.Vec3) {
	if rb.BodyType == actor.BodyTypeStatic || delta.Len() < 1e-10 {
		return
	}
	qDelta := mgl64.Quat{W: 1.0, V: delta.Mul(0.5)}.Normalize()
	rb.Transform.Rotation = qDelta.Mul(rb.Transform.Rotation).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()
}

// translate moves a dynamic body.
func translate(rb *actor.RigidBody, delta mgl64.Vec3) {
	if rb.BodyType == actor.BodyTypeStatic {
		return
	}
	rb.Transform.Position = rb.Transform.Position.Add(delta)
}
