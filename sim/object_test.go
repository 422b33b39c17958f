package sim

import (
	"math"
	"testing"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oddShape is a shape the engine does not know how to clone or weigh.
type oddShape struct {
	actor.Sphere
}

func newBox(t *testing.T, p *Physics, half mgl64.Vec3, mass float64) *Object {
	t.Helper()

	o := NewObject(p)
	_, err := o.AddGeom(&actor.Box{HalfExtents: half}, actor.NewTransform())
	require.NoError(t, err)
	require.NoError(t, o.SetMass(mass))
	require.NoError(t, o.Init())
	return o
}

func TestObject_Lifecycle(t *testing.T) {
	p := newTestPhysics(t)
	o := NewObject(p)

	_, err := o.Position()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, o.AddToWorld(), ErrNotInitialized)
	assert.ErrorIs(t, o.SetCategory(CategoryRobot, CategoryAll), ErrNotInitialized)
	assert.ErrorIs(t, o.Init(), ErrNoGeoms)

	_, err = o.AddGeom(&actor.Sphere{Radius: 0.1}, actor.NewTransform())
	require.NoError(t, err)
	require.NoError(t, o.SetMass(2))
	require.NoError(t, o.Init())

	assert.ErrorIs(t, o.Init(), ErrAlreadyInitialized)
	_, err = o.AddGeom(&actor.Sphere{Radius: 0.1}, actor.NewTransform())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.ErrorIs(t, o.SetMass(3), ErrAlreadyInitialized)

	assert.True(t, o.Initialized())
	assert.False(t, o.IsStatic())
	assert.InDelta(t, 2.0, o.Mass(), 1e-12)
	assert.Same(t, o, o.Geoms()[0].UserData)
	assert.Same(t, o.Body(), o.Geoms()[0].Body)

	found, ok := p.Object(o.ID())
	require.True(t, ok)
	assert.Same(t, o, found)
	found, ok = p.ObjectOf(o.Body())
	require.True(t, ok)
	assert.Same(t, o, found)

	require.NoError(t, o.AddToWorld())
	require.NoError(t, o.AddToWorld())
	assert.True(t, o.InWorld())
	assert.Len(t, p.World().Bodies, 1)
	assert.Len(t, p.World().Geoms, 1)

	o.Destroy()
	assert.Empty(t, p.World().Bodies)
	assert.Empty(t, p.World().Geoms)
	assert.Empty(t, p.Objs())
	_, err = o.Position()
	assert.ErrorIs(t, err, ErrDestroyed)
	o.Destroy()
}

func TestObject_MassAndBodyExclusive(t *testing.T) {
	p := newTestPhysics(t)

	o := NewObject(p)
	require.NoError(t, o.SetMass(1))
	assert.ErrorIs(t, o.SetBody(actor.NewRigidBody(actor.NewTransform())), ErrMassAndBody)

	o = NewObject(p)
	require.NoError(t, o.SetBody(actor.NewRigidBody(actor.NewTransform())))
	assert.ErrorIs(t, o.SetMass(1), ErrMassAndBody)
}

func TestObject_InvalidMass(t *testing.T) {
	p := newTestPhysics(t)

	for _, mass := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, NewObject(p).SetMass(mass), ErrInvalidMass, "mass %v", mass)
	}
}

func TestObject_ExternalBody(t *testing.T) {
	p := newTestPhysics(t)
	body := actor.NewRigidBody(actor.NewTransform())

	o := NewObject(p)
	_, err := o.AddGeom(&actor.Sphere{Radius: 0.1}, actor.NewTransform())
	require.NoError(t, err)
	require.NoError(t, o.SetBody(body))
	require.NoError(t, o.Init())

	assert.Same(t, body, o.Body())
	assert.False(t, o.IsStatic())
	category, mask := o.Category()
	assert.Equal(t, CategoryDynamic, category)
	assert.Equal(t, CategoryAll, mask)
}

func TestObject_StaticExternalBody(t *testing.T) {
	p := newTestPhysics(t)

	o := NewObject(p)
	_, err := o.AddGeom(&actor.Sphere{Radius: 0.1}, actor.NewTransform())
	require.NoError(t, err)
	assert.ErrorIs(t, o.SetBody(actor.NewStaticBody(actor.NewTransform())), ErrStaticBody)

	// still usable, and static by default
	require.NoError(t, o.Init())
	assert.True(t, o.IsStatic())
	category, mask := o.Category()
	assert.Equal(t, CategoryNone, category)
	assert.Equal(t, CategoryDynamic, mask)
}

func TestObject_StaticByDefault(t *testing.T) {
	p := newTestPhysics(t)
	o := newBox(t, p, mgl64.Vec3{0.1, 0.1, 0.1}, 0)

	assert.True(t, o.IsStatic())
	assert.Equal(t, actor.BodyTypeStatic, o.Body().BodyType)
	category, mask := o.Category()
	assert.Equal(t, CategoryNone, category)
	assert.Equal(t, CategoryDynamic, mask)
}

func TestObject_MassAggregation(t *testing.T) {
	p := newTestPhysics(t)
	half := mgl64.Vec3{0.5, 0.5, 0.5}

	o := NewObject(p)
	_, err := o.AddGeom(&actor.Box{HalfExtents: half}, actor.NewTransformAt(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent()))
	require.NoError(t, err)
	_, err = o.AddGeom(&actor.Box{HalfExtents: half}, actor.NewTransformAt(mgl64.Vec3{-1, 0, 0}, mgl64.QuatIdent()))
	require.NoError(t, err)
	require.NoError(t, o.SetMass(10))
	require.NoError(t, o.Init())

	body := o.Body()
	assert.InDelta(t, 10.0, body.Material.GetMass(), 1e-12)

	// Two unit cubes: Ixx = 2/6, Iyy = Izz = 2/6 + 2 around the origin, scaled by 10/2
	inertia := body.InertiaLocal
	assert.InDelta(t, 5.0/3.0, inertia.At(0, 0), 1e-9)
	assert.InDelta(t, 35.0/3.0, inertia.At(1, 1), 1e-9)
	assert.InDelta(t, 35.0/3.0, inertia.At(2, 2), 1e-9)
	assert.InDelta(t, 7.0, inertia.At(1, 1)/inertia.At(0, 0), 1e-9)
	assert.InDelta(t, 0.0, inertia.At(0, 1), 1e-12)
}

func TestObject_PlaneWithMass(t *testing.T) {
	p := newTestPhysics(t)

	o := NewObject(p)
	_, err := o.AddGeom(&actor.Plane{Normal: mgl64.Vec3{0, 0, 1}}, actor.NewTransform())
	require.NoError(t, err)
	require.NoError(t, o.SetMass(1))

	assert.ErrorIs(t, o.Init(), actor.ErrUnsupportedShape)
	assert.False(t, o.Initialized())
}

func TestObject_Pose(t *testing.T) {
	p := newTestPhysics(t)
	o := newBox(t, p, mgl64.Vec3{0.1, 0.1, 0.1}, 1)

	require.NoError(t, o.SetPosition(mgl64.Vec3{1, 2, 3}))
	position, err := o.Position()
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, position)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, o.Geoms()[0].WorldTransform().Position)

	require.NoError(t, o.SetYaw(math.Pi/2))
	yaw, err := o.Yaw()
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, yaw, 1e-9)

	rotation, err := o.Rotation()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rotation.Len(), 1e-9)
}

func TestObject_PlaceOnTable(t *testing.T) {
	p := newTestPhysics(t)

	o := NewObject(p)
	_, err := o.AddGeom(&actor.Box{HalfExtents: mgl64.Vec3{0.1, 0.1, 0.2}}, actor.NewTransformAt(mgl64.Vec3{0, 0, 0.1}, mgl64.QuatIdent()))
	require.NoError(t, err)
	require.NoError(t, o.SetMass(1))
	require.NoError(t, o.Init())

	require.NoError(t, o.PlaceOnTable(0.5, -0.25))

	position, err := o.Position()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, position.X(), 1e-12)
	assert.InDelta(t, -0.25, position.Y(), 1e-12)
	assert.InDelta(t, 0.101, position.Z(), 1e-12)

	lowest := o.Geoms()[0].SupportWorld(mgl64.Vec3{0, 0, -1}).Z()
	assert.InDelta(t, p.Config().DropEpsilon, lowest, 1e-12)
}

func TestObject_Duplicate(t *testing.T) {
	p := newTestPhysics(t)
	o := newBox(t, p, mgl64.Vec3{0.1, 0.2, 0.3}, 2)
	require.NoError(t, o.SetCategory(CategoryElement|CategoryDynamic, CategoryAll))
	require.NoError(t, o.SetMaterial(0.3, 0.6, 0.4))
	require.NoError(t, o.SetPosition(mgl64.Vec3{1, 1, 1}))
	require.NoError(t, o.AddToWorld())

	dup, err := o.Duplicate()
	require.NoError(t, err)

	assert.NotEqual(t, o.ID(), dup.ID())
	assert.False(t, dup.InWorld())
	assert.InDelta(t, 2.0, dup.Mass(), 1e-12)
	assert.Equal(t, o.Body().Material, dup.Body().Material)
	assert.NotSame(t, o.Body(), dup.Body())
	assert.NotSame(t, o.Geoms()[0].Shape, dup.Geoms()[0].Shape)

	category, mask := dup.Category()
	assert.Equal(t, CategoryElement|CategoryDynamic, category)
	assert.Equal(t, CategoryAll, mask)

	position, err := dup.Position()
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, position)
	assert.Len(t, p.Objs(), 2)
}

func TestObject_DuplicateUnsupportedShape(t *testing.T) {
	p := newTestPhysics(t)

	o := NewObject(p)
	_, err := o.AddGeom(&oddShape{Sphere: actor.Sphere{Radius: 0.1}}, actor.NewTransform())
	require.NoError(t, err)
	require.NoError(t, o.Init())

	_, err = o.Duplicate()
	assert.ErrorIs(t, err, actor.ErrUnsupportedShape)
}

func TestObject_TickCallback(t *testing.T) {
	p := newTestPhysics(t)
	o := newBox(t, p, mgl64.Vec3{0.1, 0.1, 0.1}, 0)

	ticks := 0
	require.NoError(t, o.SetTickCallback(func(got *Object) {
		assert.Same(t, o, got)
		ticks++
	}))

	p.Step()
	p.Step()
	require.NoError(t, o.SetTickCallback(nil))
	p.Step()

	assert.Equal(t, 2, ticks)
}

func TestNewGround(t *testing.T) {
	p := newTestPhysics(t)

	ground, err := NewGround(p)
	require.NoError(t, err)

	assert.True(t, ground.IsStatic())
	assert.True(t, ground.InWorld())
	assert.True(t, ground.Geoms()[0].IsPlane())
	category, mask := ground.Category()
	assert.Equal(t, CategoryGround, category)
	assert.Equal(t, CategoryAll, mask)
}
