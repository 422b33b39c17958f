package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newUnitBody() *RigidBody {
	return NewRigidBody(NewTransform())
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewRigidBody_Dynamic(t *testing.T) {
	rb := newUnitBody()

	if rb.BodyType != BodyTypeDynamic {
		t.Errorf("BodyType = %v, want dynamic", rb.BodyType)
	}
	if rb.Material.GetMass() != 1 {
		t.Errorf("mass = %v, want 1", rb.Material.GetMass())
	}
	if rb.InverseMass() != 1 {
		t.Errorf("inverse mass = %v, want 1", rb.InverseMass())
	}
	if rb.IsSleeping {
		t.Error("a new body should be awake")
	}
}

func TestNewStaticBody(t *testing.T) {
	rb := NewStaticBody(NewTransformAt(mgl64.Vec3{1, 2, 0}, mgl64.QuatIdent()))

	if !math.IsInf(rb.Material.GetMass(), 1) {
		t.Errorf("static mass = %v, want +Inf", rb.Material.GetMass())
	}
	if rb.InverseMass() != 0 {
		t.Errorf("static inverse mass = %v, want 0", rb.InverseMass())
	}
	if rb.GetInverseInertiaWorld() != (mgl64.Mat3{}) {
		t.Errorf("static inverse inertia = %v, want zero", rb.GetInverseInertiaWorld())
	}

	rb.SetMass(Mass{Mass: 5, Inertia: mgl64.Ident3()})
	if rb.InverseMass() != 0 {
		t.Error("SetMass should not make a static body dynamic")
	}

	rb.SetVelocity(mgl64.Vec3{1, 0, 0})
	rb.SetAngularVelocity(mgl64.Vec3{0, 0, 1})
	if rb.Velocity != (mgl64.Vec3{}) || rb.AngularVelocity != (mgl64.Vec3{}) {
		t.Errorf("static body got velocities %v, %v", rb.Velocity, rb.AngularVelocity)
	}
}

func TestRigidBody_SetMass(t *testing.T) {
	body := NewRigidBody(NewTransform())
	body.SetMass(Mass{Mass: 4, Inertia: mgl64.Diag3(mgl64.Vec3{2, 2, 2})})

	if body.Material.GetMass() != 4 {
		t.Errorf("mass = %v, want 4", body.Material.GetMass())
	}
	if !floatEqual(body.InverseMass(), 0.25, 1e-12) {
		t.Errorf("inverse mass = %v, want 0.25", body.InverseMass())
	}
	if !floatEqual(body.InverseInertiaLocal.At(1, 1), 0.5, 1e-12) {
		t.Errorf("inverse inertia = %v", body.InverseInertiaLocal)
	}

	static := NewStaticBody(NewTransform())
	static.SetMass(Mass{Mass: 4})
	if static.InverseMass() != 0 || !math.IsInf(static.Material.GetMass(), 1) {
		t.Error("static body must keep an infinite mass")
	}
}

func TestRigidBody_IntegrateGravity(t *testing.T) {
	body := NewRigidBody(NewTransformAt(mgl64.Vec3{0, 0, 1}, mgl64.QuatIdent()))
	gravity := mgl64.Vec3{0, 0, -10}

	body.Integrate(0.1, gravity)
	body.Update(0.1)

	if !floatEqual(body.Velocity.Z(), -1, 1e-9) {
		t.Errorf("velocity = %v, want -1 on Z", body.Velocity)
	}
	if !floatEqual(body.Transform.Position.Z(), 0.9, 1e-9) {
		t.Errorf("position = %v, want 0.9 on Z", body.Transform.Position)
	}
}

func TestRigidBody_StaticDoesNotMove(t *testing.T) {
	body := NewStaticBody(NewTransform())
	body.SetVelocity(mgl64.Vec3{1, 0, 0})
	body.Integrate(0.1, mgl64.Vec3{0, 0, -10})

	if body.Transform.Position != (mgl64.Vec3{}) {
		t.Errorf("static body moved to %v", body.Transform.Position)
	}
}

func TestRigidBody_SleepAndWake(t *testing.T) {
	body := NewRigidBody(NewTransform())
	for i := 0; i < 10; i++ {
		body.TrySleep(0.05, 0.1, 0.05)
	}
	if !body.IsSleeping {
		t.Fatal("resting body should fall asleep")
	}

	body.SetVelocity(mgl64.Vec3{1, 0, 0})
	if body.IsSleeping {
		t.Error("setting a velocity must wake the body up")
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

func TestIntegrate_Force(t *testing.T) {
	rb := newUnitBody()
	rb.SetMass(Mass{Mass: 2, Inertia: mgl64.Ident3()})
	rb.AddForce(mgl64.Vec3{0, 0, 4})

	rb.Integrate(0.5, mgl64.Vec3{})

	if !rb.Velocity.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("velocity = %v, want (0, 0, 1)", rb.Velocity)
	}
	if !rb.Transform.Position.ApproxEqualThreshold(mgl64.Vec3{0, 0, 0.5}, 1e-12) {
		t.Errorf("position = %v, want (0, 0, 0.5)", rb.Transform.Position)
	}

	// Forces only last one integration
	rb.Integrate(0.5, mgl64.Vec3{})
	if !rb.Velocity.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("velocity after cleared force = %v, want (0, 0, 1)", rb.Velocity)
	}
}

func TestIntegrate_LinearDamping(t *testing.T) {
	tests := []struct {
		name    string
		damping float64
	}{
		{"no damping", 0},
		{"light damping", 0.5},
		{"heavy damping", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newUnitBody()
			rb.Material.LinearDamping = tt.damping
			rb.Velocity = mgl64.Vec3{1, 0, 0}

			rb.Integrate(0.1, mgl64.Vec3{})

			want := math.Exp(-tt.damping * 0.1)
			if math.Abs(rb.Velocity.X()-want) > 1e-12 {
				t.Errorf("velocity = %v, want %v", rb.Velocity.X(), want)
			}
			if math.Abs(rb.Transform.Position.X()-want*0.1) > 1e-12 {
				t.Errorf("position = %v, want %v", rb.Transform.Position.X(), want*0.1)
			}
		})
	}
}

func TestIntegrate_AngularVelocity(t *testing.T) {
	rb := newUnitBody()
	rb.AngularVelocity = mgl64.Vec3{0, 0, 1}

	for range 100 {
		rb.Integrate(0.01, mgl64.Vec3{})
	}

	if yaw := rb.Transform.Yaw(); math.Abs(yaw-1) > 1e-3 {
		t.Errorf("yaw after 1s at 1 rad/s = %v, want 1", yaw)
	}
	if l := rb.Transform.Rotation.Len(); math.Abs(l-1) > 1e-9 {
		t.Errorf("rotation is not normalized: |q| = %v", l)
	}
	if !rb.Transform.InverseRotation.ApproxEqualThreshold(rb.Transform.Rotation.Inverse(), 1e-12) {
		t.Error("inverse rotation was not refreshed")
	}
}

func TestIntegrate_Sleeping(t *testing.T) {
	rb := newUnitBody()
	rb.Sleep()

	rb.Integrate(0.1, mgl64.Vec3{0, 0, -9.81})

	if rb.Transform.Position != (mgl64.Vec3{}) {
		t.Errorf("sleeping body moved to %v", rb.Transform.Position)
	}
}

func TestUpdate_DerivesVelocities(t *testing.T) {
	rb := newUnitBody()
	rb.Transform.Position = mgl64.Vec3{0.1, 0, -0.05}

	rb.Update(0.1)

	if !rb.Velocity.ApproxEqualThreshold(mgl64.Vec3{1, 0, -0.5}, 1e-12) {
		t.Errorf("velocity = %v, want (1, 0, -0.5)", rb.Velocity)
	}
	if rb.AngularVelocity.Len() > 1e-12 {
		t.Errorf("angular velocity = %v, want zero", rb.AngularVelocity)
	}

	rb.PreviousTransform = rb.Transform
	rb.Transform.Rotation = YawQuat(0.01)
	rb.Update(0.1)
	if math.Abs(rb.AngularVelocity.Z()-0.1) > 1e-6 {
		t.Errorf("angular velocity = %v, want 0.1 around Z", rb.AngularVelocity)
	}
}

// =============================================================================
// Sleep Tests
// =============================================================================

func TestTrySleep(t *testing.T) {
	rb := newUnitBody()
	rb.Velocity = mgl64.Vec3{0.001, 0, 0}

	rb.TrySleep(0.2, 0.5, 0.01)
	rb.TrySleep(0.2, 0.5, 0.01)
	if rb.IsSleeping {
		t.Fatal("body slept before the time threshold")
	}

	rb.TrySleep(0.2, 0.5, 0.01)
	if !rb.IsSleeping {
		t.Fatal("body should sleep once still for the time threshold")
	}
	if rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("sleeping velocity = %v, want zero", rb.Velocity)
	}

	rb.SetVelocity(mgl64.Vec3{1, 0, 0})
	if rb.IsSleeping {
		t.Error("SetVelocity should wake the body")
	}

	rb.TrySleep(0.2, 0.5, 0.01)
	if rb.SleepTimer != 0 {
		t.Errorf("a moving body keeps its sleep timer at 0, got %v", rb.SleepTimer)
	}
}

// =============================================================================
// Inertia Tests
// =============================================================================

func TestGetInertiaWorld_Yawed(t *testing.T) {
	rb := newUnitBody()
	rb.SetMass(Mass{Mass: 1, Inertia: mgl64.Diag3(mgl64.Vec3{1, 2, 3})})
	rb.SetTransform(NewTransformAt(mgl64.Vec3{}, YawQuat(math.Pi/2)))

	got := rb.GetInertiaWorld()
	want := mgl64.Diag3(mgl64.Vec3{2, 1, 3})
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("world inertia = %v, want %v", got, want)
	}

	inverse := rb.GetInverseInertiaWorld()
	if !got.Mul3(inverse).ApproxEqualThreshold(mgl64.Ident3(), 1e-9) {
		t.Errorf("inertia times inverse = %v, want identity", got.Mul3(inverse))
	}
}

// =============================================================================
// Transform & Geom Tests
// =============================================================================

func TestTransform_MulInverse(t *testing.T) {
	parent := NewTransformAt(mgl64.Vec3{1, 2, 3}, YawQuat(0.7))
	local := NewTransformAt(mgl64.Vec3{0.5, 0, 0.1}, YawQuat(-0.2))

	world := parent.Mul(local)
	back := parent.Inverse().Mul(world)

	if !vec3Equal(back.Position, local.Position, 1e-12) {
		t.Errorf("round-trip position = %v, want %v", back.Position, local.Position)
	}
	if !floatEqual(world.Yaw(), 0.5, 1e-12) {
		t.Errorf("composed yaw = %v, want 0.5", world.Yaw())
	}
}

func TestGeom_WorldTransform(t *testing.T) {
	body := NewRigidBody(NewTransformAt(mgl64.Vec3{1, 0, 0}, YawQuat(math.Pi/2)))
	geom := NewGeom(&Sphere{Radius: 0.1}, NewTransformAt(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent()))
	geom.Body = body
	geom.Update()

	if got := geom.WorldTransform().Position; !vec3Equal(got, mgl64.Vec3{1, 1, 0}, 1e-12) {
		t.Errorf("world position = %v, want (1 1 0)", got)
	}
	if got := geom.GetAABB().Min; !vec3Equal(got, mgl64.Vec3{0.9, 0.9, -0.1}, 1e-12) {
		t.Errorf("AABB min = %v", got)
	}

	target := NewTransformAt(mgl64.Vec3{3, 3, 3}, mgl64.QuatIdent())
	geom.SetWorldTransform(target)
	if got := geom.WorldTransform().Position; !vec3Equal(got, target.Position, 1e-12) {
		t.Errorf("world position after SetWorldTransform = %v, want %v", got, target.Position)
	}
	if body.Transform.Position != (mgl64.Vec3{1, 0, 0}) {
		t.Error("SetWorldTransform must not move the body")
	}
}

func TestGeom_SupportWorld(t *testing.T) {
	geom := NewGeom(&Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, NewTransformAt(mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent()))

	if got := geom.SupportWorld(mgl64.Vec3{1, 1, 1}); !vec3Equal(got, mgl64.Vec3{6, 1, 1}, 1e-12) {
		t.Errorf("SupportWorld = %v, want (6 1 1)", got)
	}
}
