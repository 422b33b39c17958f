package constraint

import (
	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// SliderConstraint leaves BodyB a single degree of freedom relative to
// BodyA: translation along Axis. The offset across the axis and the relative
// rotation are locked to their values at creation.
type SliderConstraint struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
	Axis  mgl64.Vec3

	restOffset   mgl64.Vec3
	restRotation mgl64.Quat
}

// NewVerticalSlider creates a slider along world up (+Z).
func NewVerticalSlider(bodyA, bodyB *actor.RigidBody) *SliderConstraint {
	return NewSlider(bodyA, bodyB, mgl64.Vec3{0, 0, 1})
}

// NewSlider creates a slider along axis, in world space.
func NewSlider(bodyA, bodyB *actor.RigidBody, axis mgl64.Vec3) *SliderConstraint {
	s := &SliderConstraint{
		BodyA: bodyA,
		BodyB: bodyB,
		Axis:  axis.Normalize(),
	}
	s.restOffset = s.lateral(bodyB.Transform.Position.Sub(bodyA.Transform.Position))
	s.restRotation = bodyA.Transform.InverseRotation.Mul(bodyB.Transform.Rotation).Normalize()
	return s
}

// lateral removes the component of v along the slider axis.
func (s *SliderConstraint) lateral(v mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(s.Axis.Mul(v.Dot(s.Axis)))
}

func (s *SliderConstraint) SolvePosition(dt float64) {
	bodyA := s.BodyA
	bodyB := s.BodyB
	if inactive(bodyA) && inactive(bodyB) {
		return
	}

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	totalMass := invMassA + invMassB
	if totalMass <= 1e-12 {
		return
	}

	offset := s.lateral(bodyB.Transform.Position.Sub(bodyA.Transform.Position))
	correction := offset.Sub(s.restOffset)
	translate(bodyA, correction.Mul(invMassA/totalMass))
	translate(bodyB, correction.Mul(-invMassB/totalMass))

	// Rotation error as a rotation vector taking B to its locked orientation
	target := bodyA.Transform.Rotation.Mul(s.restRotation)
	qError := target.Mul(bodyB.Transform.Rotation.Conjugate()).Normalize()
	if qError.W < 0 {
		qError = qError.Scale(-1)
	}
	theta := qError.V.Mul(2)
	if theta.Len() < 1e-10 {
		return
	}

	direction := theta.Normalize()
	wA := bodyA.GetInverseInertiaWorld().Mul3x1(direction).Dot(direction)
	wB := bodyB.GetInverseInertiaWorld().Mul3x1(direction).Dot(direction)
	if wA+wB <= 1e-12 {
		return
	}
	rotate(bodyA, theta.Mul(-wA/(wA+wB)))
	rotate(bodyB, theta.Mul(wB/(wA+wB)))
}

// SolveVelocity cancels the relative velocity across the axis and the
// relative angular velocity.
func (s *SliderConstraint) SolveVelocity(dt float64) {
	bodyA := s.BodyA
	bodyB := s.BodyB
	if inactive(bodyA) && inactive(bodyB) {
		return
	}

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	if totalMass := invMassA + invMassB; totalMass > 1e-12 {
		relative := s.lateral(bodyB.Velocity.Sub(bodyA.Velocity))
		if bodyA.BodyType != actor.BodyTypeStatic {
			bodyA.Velocity = bodyA.Velocity.Add(relative.Mul(invMassA / totalMass))
		}
		if bodyB.BodyType != actor.BodyTypeStatic {
			bodyB.Velocity = bodyB.Velocity.Sub(relative.Mul(invMassB / totalMass))
		}
	}

	relativeAngular := bodyB.AngularVelocity.Sub(bodyA.AngularVelocity)
	if relativeAngular.Len() < 1e-10 {
		return
	}
	direction := relativeAngular.Normalize()
	wA := bodyA.GetInverseInertiaWorld().Mul3x1(direction).Dot(direction)
	wB := bodyB.GetInverseInertiaWorld().Mul3x1(direction).Dot(direction)
	if wA+wB <= 1e-12 {
		return
	}
	if bodyA.BodyType != actor.BodyTypeStatic {
		bodyA.AngularVelocity = bodyA.AngularVelocity.Add(relativeAngular.Mul(wA / (wA + wB)))
	}
	if bodyB.BodyType != actor.BodyTypeStatic {
		bodyB.AngularVelocity = bodyB.AngularVelocity.Sub(relativeAngular.Mul(wB / (wA + wB)))
	}
}
