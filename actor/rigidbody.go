package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., table, borders)
	BodyTypeStatic
)

type Material struct {
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	StaticFriction  float64
	DynamicFriction float64
	LinearDamping   float64 // 0.0 - 1.0, typical: 0.01
	AngularDamping  float64 // 0.0 - 1.0, typical: 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear motion
	PresolveVelocity mgl64.Vec3
	Velocity         mgl64.Vec3 // Linear velocity (m/s)

	// Angular motion
	PresolveAngularVelocity mgl64.Vec3
	AngularVelocity         mgl64.Vec3 // rad/s

	// Inertia tensor in local space
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64

	// Physical properties
	Material Material
	BodyType BodyType // Dynamic or Static
}

// NewRigidBody creates a dynamic body of unit mass. Use SetMass to give it its real distribution.
func NewRigidBody(transform Transform) *RigidBody {
	rb := &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		BodyType:          BodyTypeDynamic,
	}
	rb.SetMass(Mass{Mass: 1, Inertia: mgl64.Ident3()})

	return rb
}

// NewStaticBody creates an immovable body with infinite mass.
func NewStaticBody(transform Transform) *RigidBody {
	return &RigidBody{
		PreviousTransform: transform,
		Transform:         transform,
		BodyType:          BodyTypeStatic,
		Material:          Material{mass: math.Inf(1)},
	}
}

// SetMass applies a mass distribution to a dynamic body.
func (rb *RigidBody) SetMass(m Mass) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.Material.mass = m.Mass
	rb.InertiaLocal = m.Inertia
	rb.InverseInertiaLocal = m.Inertia.Inv()
}

// SetTransform teleports the body, discarding the previous pose.
func (rb *RigidBody) SetTransform(t Transform) {
	rb.Transform = t
	rb.PreviousTransform = t
	rb.Awake()
}

// SetVelocity sets the linear velocity and wakes the body up.
func (rb *RigidBody) SetVelocity(v mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.Velocity = v
	rb.Awake()
}

// SetAngularVelocity sets the angular velocity and wakes the body up.
func (rb *RigidBody) SetAngularVelocity(w mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	rb.AngularVelocity = w
	rb.Awake()
}

func (rb *RigidBody) TrySleep(dt float64, timeThreshold float64, velocityThreshold float64) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timeThreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.PreviousTransform.Position = rb.Transform.Position
	rb.PreviousTransform.Rotation = rb.Transform.Rotation

	// Linear: gravity plus accumulated forces
	acceleration := gravity.Add(rb.accumulatedForce.Mul(1.0 / rb.Material.GetMass()))
	rb.Velocity = rb.Velocity.Add(acceleration.Mul(dt))
	rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	// Angular
	angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
	rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))

	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.PresolveVelocity = rb.Velocity
	rb.PresolveAngularVelocity = rb.AngularVelocity

	rb.ClearForces()
}

// Update derives velocities from the solved positions.
func (rb *RigidBody) Update(dt float64) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	rb.Velocity = rb.Transform.Position.Sub(rb.PreviousTransform.Position).Mul(1.0 / dt)
	qDelta := rb.Transform.Rotation.Mul(rb.PreviousTransform.Rotation.Conjugate())
	qDelta = qDelta.Normalize()
	if qDelta.W >= 0.0 {
		rb.AngularVelocity = qDelta.V.Mul(2.0 / dt)
	} else {
		rb.AngularVelocity = qDelta.V.Mul(-2.0 / dt)
	}
}

// AddForce in N, applied at the center of mass during the next integration
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque in N⋅m
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType != BodyTypeStatic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// InverseMass returns 0 for static bodies.
func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType == BodyTypeStatic {
		return 0
	}
	return 1.0 / rb.Material.GetMass()
}

// GetInertiaWorld returns the inertia tensor in world space
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	// I_world = R * I_local * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// GetInverseInertiaWorld returns the inverse inertia tensor in world space
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Mat3{}
	}

	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}
