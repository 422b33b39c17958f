package constraint

import (
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultCompliance controls contact stiffness: lower is stiffer.
	DefaultCompliance = 1e-7
)

type ContactPoint struct {
	Position    mgl64.Vec3
	Penetration float64
}

// ContactConstraint pushes BodyB away from BodyA along Normal.
type ContactConstraint struct {
	BodyA  *actor.RigidBody
	BodyB  *actor.RigidBody
	Points []ContactPoint
	Normal mgl64.Vec3
}

// asleep reports whether neither body can move this substep.
func (c *ContactConstraint) asleep() bool {
	return inactive(c.BodyA) && inactive(c.BodyB)
}

// SolvePosition resolves penetration with one global XPBD correction over
// every point of the manifold.
func (c *ContactConstraint) SolvePosition(dt float64) {
	if len(c.Points) == 0 || c.asleep() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	IA_inv := bodyA.GetInverseInertiaWorld()
	IB_inv := bodyB.GetInverseInertiaWorld()

	var totalWeight float64
	var totalPenetration float64

	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}

		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		rA_cross_n := rA.Cross(c.Normal)
		rB_cross_n := rB.Cross(c.Normal)

		wA := invMassA + IA_inv.Mul3x1(rA_cross_n).Dot(rA_cross_n)
		wB := invMassB + IB_inv.Mul3x1(rB_cross_n).Dot(rB_cross_n)
		totalWeight += wA + wB

		totalPenetration += point.Penetration
	}

	if totalWeight <= 1e-8 {
		return
	}

	alphaTilde := DefaultCompliance / (dt * dt)
	deltaLambda := -totalPenetration / (totalWeight + alphaTilde)

	totalImpulse := c.Normal.Mul(deltaLambda)

	// Torques use the contact arms before the linear correction
	var totalTorqueA, totalTorqueB mgl64.Vec3
	for _, point := range c.Points {
		if point.Penetration <= 1e-8 {
			continue
		}

		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		totalTorqueA = totalTorqueA.Add(rA.Cross(totalImpulse))
		totalTorqueB = totalTorqueB.Add(rB.Cross(totalImpulse.Mul(-1)))
	}

	translate(bodyA, totalImpulse.Mul(invMassA))
	translate(bodyB, totalImpulse.Mul(-invMassB))

	rotate(bodyA, IA_inv.Mul3x1(totalTorqueA))
	rotate(bodyB, IB_inv.Mul3x1(totalTorqueB))
}

// SolveVelocity applies restitution and Coulomb friction.
func (c *ContactConstraint) SolveVelocity(dt float64) {
	if len(c.Points) == 0 || c.asleep() {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	IA_inv := bodyA.GetInverseInertiaWorld()
	IB_inv := bodyB.GetInverseInertiaWorld()

	restitution := ComputeRestitution(bodyA.Material, bodyB.Material)
	staticFriction := ComputeStaticFriction(bodyA.Material, bodyB.Material)
	dynamicFriction := ComputeDynamicFriction(bodyA.Material, bodyB.Material)

	var totalLinearImpulseA, totalLinearImpulseB mgl64.Vec3
	var totalAngularImpulseA, totalAngularImpulseB mgl64.Vec3

	apply := func(impulse, rA, rB mgl64.Vec3) {
		totalLinearImpulseA = totalLinearImpulseA.Sub(impulse.Mul(invMassA))
		totalLinearImpulseB = totalLinearImpulseB.Add(impulse.Mul(invMassB))
		totalAngularImpulseA = totalAngularImpulseA.Add(IA_inv.Mul3x1(rA.Cross(impulse.Mul(-1))))
		totalAngularImpulseB = totalAngularImpulseB.Add(IB_inv.Mul3x1(rB.Cross(impulse)))
	}

	for _, point := range c.Points {
		rA := point.Position.Sub(bodyA.Transform.Position)
		rB := point.Position.Sub(bodyB.Transform.Position)

		vA := bodyA.Velocity.Add(bodyA.AngularVelocity.Cross(rA))
		vB := bodyB.Velocity.Add(bodyB.AngularVelocity.Cross(rB))
		relativeVel := vB.Sub(vA)
		normalVel := relativeVel.Dot(c.Normal)

		vA_prev := bodyA.PresolveVelocity.Add(bodyA.PresolveAngularVelocity.Cross(rA))
		vB_prev := bodyB.PresolveVelocity.Add(bodyB.PresolveAngularVelocity.Cross(rB))
		normalVelPrev := vB_prev.Sub(vA_prev).Dot(c.Normal)

		rA_cross_n := rA.Cross(c.Normal)
		rB_cross_n := rB.Cross(c.Normal)
		effectiveMassNormal := invMassA + invMassB +
			IA_inv.Mul3x1(rA_cross_n).Dot(rA_cross_n) +
			IB_inv.Mul3x1(rB_cross_n).Dot(rB_cross_n)
		if effectiveMassNormal < 1e-10 {
			continue
		}

		targetVel := -restitution * normalVelPrev
		lambdaNormal := (targetVel - normalVel) / effectiveMassNormal

		// Contacts push, never pull
		if lambdaNormal <= 0 {
			continue
		}
		apply(c.Normal.Mul(lambdaNormal), rA, rB)

		tangentVel := relativeVel.Sub(c.Normal.Mul(normalVel))
		tangentSpeed := tangentVel.Len()
		if tangentSpeed <= 1e-6 {
			continue
		}
		tangentDir := tangentVel.Mul(1.0 / tangentSpeed)

		rA_cross_t := rA.Cross(tangentDir)
		rB_cross_t := rB.Cross(tangentDir)
		effectiveMassTangent := invMassA + invMassB +
			IA_inv.Mul3x1(rA_cross_t).Dot(rA_cross_t) +
			IB_inv.Mul3x1(rB_cross_t).Dot(rB_cross_t)
		if effectiveMassTangent < 1e-10 {
			continue
		}

		lambdaTangent := -tangentSpeed / effectiveMassTangent

		// Coulomb: |F_t| <= mu * |F_n|
		var frictionImpulse mgl64.Vec3
		if math.Abs(lambdaTangent) <= staticFriction*lambdaNormal {
			frictionImpulse = tangentDir.Mul(lambdaTangent)
		} else {
			frictionImpulse = tangentDir.Mul(-dynamicFriction * lambdaNormal)
		}
		apply(frictionImpulse, rA, rB)
	}

	bodyA.Velocity = bodyA.Velocity.Add(totalLinearImpulseA)
	bodyB.Velocity = bodyB.Velocity.Add(totalLinearImpulseB)
	bodyA.AngularVelocity = bodyA.AngularVelocity.Add(totalAngularImpulseA)
	bodyB.AngularVelocity = bodyB.AngularVelocity.Add(totalAngularImpulseB)

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)
}
