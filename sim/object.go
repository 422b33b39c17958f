package sim

import (
	"fmt"
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// TickCallback is called once per step, after the scheduled tasks.
type TickCallback func(o *Object)

// Object is a set of geoms sharing one rigid body. After Init it always owns
// a body: dynamic when a mass or an external body was given, static otherwise.
type Object struct {
	id      uuid.UUID
	physics *Physics

	geoms []*actor.Geom
	body  *actor.RigidBody
	mass  float64
	// externalBody is set by SetBody, until Init
	externalBody *actor.RigidBody

	initialized bool
	destroyed   bool
	inWorld     bool

	tick TickCallback
}

func NewObject(p *Physics) *Object {
	return &Object{
		id:      uuid.New(),
		physics: p,
	}
}

func (o *Object) ID() uuid.UUID {
	return o.id
}

// AddGeom adds a shape at a local offset. It fails once the object is initialized.
func (o *Object) AddGeom(shape actor.ShapeInterface, offset actor.Transform) (*actor.Geom, error) {
	if err := o.checkMutable(); err != nil {
		return nil, err
	}

	g := actor.NewGeom(shape, offset)
	g.UserData = o
	o.geoms = append(o.geoms, g)
	return g, nil
}

// SetBody makes the object dynamic on an existing body. Static bodies are
// rejected: an object with neither mass nor body is already static.
func (o *Object) SetBody(body *actor.RigidBody) error {
	if err := o.checkMutable(); err != nil {
		return err
	}
	if o.mass != 0 {
		return ErrMassAndBody
	}
	if body != nil && body.BodyType == actor.BodyTypeStatic {
		return ErrStaticBody
	}
	o.externalBody = body
	return nil
}

// SetMass requests a total mass, in kg. Zero keeps the object static.
func (o *Object) SetMass(mass float64) error {
	if err := o.checkMutable(); err != nil {
		return err
	}
	if o.externalBody != nil {
		return ErrMassAndBody
	}
	if mass < 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}
	o.mass = mass
	return nil
}

func (o *Object) checkMutable() error {
	if o.destroyed {
		return ErrDestroyed
	}
	if o.initialized {
		return ErrAlreadyInitialized
	}
	return nil
}

func (o *Object) checkInitialized() error {
	if o.destroyed {
		return ErrDestroyed
	}
	if !o.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Init computes the mass distribution, binds the geoms to the body and
// registers the object in its Physics.
func (o *Object) Init() error {
	if err := o.checkMutable(); err != nil {
		return err
	}
	if len(o.geoms) == 0 {
		return ErrNoGeoms
	}

	switch {
	case o.externalBody != nil:
		o.body = o.externalBody
	case o.mass > 0:
		m, err := o.aggregateMass()
		if err != nil {
			return err
		}
		o.body = actor.NewRigidBody(actor.NewTransform())
		o.body.SetMass(m)
	default:
		o.body = actor.NewStaticBody(actor.NewTransform())
	}
	o.externalBody = nil

	// Offsets were recorded relative to the object origin, which is the body origin
	for _, g := range o.geoms {
		g.Body = o.body
		g.Update()
	}

	if o.IsStatic() {
		o.applyCategory(CategoryNone, CategoryDynamic)
	} else {
		o.applyCategory(CategoryDynamic, CategoryAll)
	}

	o.initialized = true
	o.physics.register(o)
	return nil
}

// aggregateMass sums the unit density mass of every geom at its offset, then
// rescales the sum to the requested mass.
func (o *Object) aggregateMass() (actor.Mass, error) {
	var total actor.Mass
	for _, g := range o.geoms {
		m, err := actor.ShapeMass(g.Shape, 1)
		if err != nil {
			return actor.Mass{}, fmt.Errorf("object %s: %w", o.id, err)
		}
		m.Rotate(g.Offset.Rotation)
		m.Translate(g.Offset.Position)
		total.Add(m)
	}
	total.Adjust(o.mass)
	return total, nil
}

func (o *Object) applyCategory(category, mask Category) {
	for _, g := range o.geoms {
		g.Category = uint32(category)
		g.CollideMask = uint32(mask)
	}
}

// SetCategory overrides the category and collide mask of every geom.
func (o *Object) SetCategory(category, mask Category) error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	o.applyCategory(category, mask)
	return nil
}

// Category returns the category and mask of the first geom.
func (o *Object) Category() (Category, Category) {
	if len(o.geoms) == 0 {
		return CategoryNone, CategoryNone
	}
	return categoryOf(o.geoms[0]), maskOf(o.geoms[0])
}

// SetMaterial sets the contact and damping coefficients of the body.
func (o *Object) SetMaterial(restitution, staticFriction, dynamicFriction float64) error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	o.body.Material.Restitution = restitution
	o.body.Material.StaticFriction = staticFriction
	o.body.Material.DynamicFriction = dynamicFriction
	return nil
}

func (o *Object) SetDamping(linear, angular float64) error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	o.body.Material.LinearDamping = linear
	o.body.Material.AngularDamping = angular
	return nil
}

func (o *Object) Body() *actor.RigidBody {
	return o.body
}

func (o *Object) Geoms() []*actor.Geom {
	return o.geoms
}

// Mass returns the requested mass, or the body mass for an external body.
func (o *Object) Mass() float64 {
	if o.body != nil && !o.IsStatic() {
		return o.body.Material.GetMass()
	}
	return o.mass
}

func (o *Object) IsStatic() bool {
	if o.body != nil {
		return o.body.BodyType == actor.BodyTypeStatic
	}
	return o.externalBody == nil && o.mass == 0
}

func (o *Object) Initialized() bool {
	return o.initialized
}

func (o *Object) Position() (mgl64.Vec3, error) {
	if err := o.checkInitialized(); err != nil {
		return mgl64.Vec3{}, err
	}
	return o.body.Transform.Position, nil
}

func (o *Object) SetPosition(position mgl64.Vec3) error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	o.body.SetTransform(actor.NewTransformAt(position, o.body.Transform.Rotation))
	o.updateGeoms()
	return nil
}

func (o *Object) Rotation() (mgl64.Quat, error) {
	if err := o.checkInitialized(); err != nil {
		return mgl64.QuatIdent(), err
	}
	return o.body.Transform.Rotation, nil
}

func (o *Object) SetRotation(rotation mgl64.Quat) error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	o.body.SetTransform(actor.NewTransformAt(o.body.Transform.Position, rotation.Normalize()))
	o.updateGeoms()
	return nil
}

// Yaw returns the heading around +Z, in radians.
func (o *Object) Yaw() (float64, error) {
	if err := o.checkInitialized(); err != nil {
		return 0, err
	}
	return o.body.Transform.Yaw(), nil
}

// SetYaw replaces the orientation by a rotation of angle around +Z.
func (o *Object) SetYaw(angle float64) error {
	return o.SetRotation(actor.YawQuat(angle))
}

// PlaceOnTable moves the object above (x, y) so that its lowest point is
// DropEpsilon above the table.
func (o *Object) PlaceOnTable(x, y float64) error {
	if err := o.SetPosition(mgl64.Vec3{x, y, 0}); err != nil {
		return err
	}

	lowest := math.Inf(1)
	for _, g := range o.geoms {
		if g.IsPlane() {
			continue
		}
		lowest = math.Min(lowest, g.SupportWorld(mgl64.Vec3{0, 0, -1}).Z())
	}
	if math.IsInf(lowest, 1) {
		return nil
	}

	return o.SetPosition(mgl64.Vec3{x, y, o.physics.cfg.DropEpsilon - lowest})
}

func (o *Object) updateGeoms() {
	for _, g := range o.geoms {
		g.Update()
	}
}

// AddToWorld makes the object part of the simulation. It is a no-op if it already is.
func (o *Object) AddToWorld() error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	if o.inWorld {
		return nil
	}

	world := o.physics.world
	world.AddBody(o.body)
	for _, g := range o.geoms {
		world.AddGeom(g)
	}
	o.inWorld = true
	return nil
}

func (o *Object) RemoveFromWorld() error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	if !o.inWorld {
		return nil
	}

	world := o.physics.world
	for _, g := range o.geoms {
		world.RemoveGeom(g)
	}
	world.RemoveBody(o.body)
	o.inWorld = false
	return nil
}

func (o *Object) InWorld() bool {
	return o.inWorld
}

// SetTickCallback registers fn to be called once per step; nil unregisters.
func (o *Object) SetTickCallback(fn TickCallback) error {
	if err := o.checkInitialized(); err != nil {
		return err
	}
	o.tick = fn
	o.physics.setTicking(o, fn != nil)
	return nil
}

// Duplicate creates an initialized copy of the object with cloned shapes,
// at the same pose, outside of the world.
func (o *Object) Duplicate() (*Object, error) {
	if err := o.checkInitialized(); err != nil {
		return nil, err
	}

	dup := NewObject(o.physics)
	for _, g := range o.geoms {
		shape, err := actor.CloneShape(g.Shape)
		if err != nil {
			return nil, fmt.Errorf("duplicate object %s: %w", o.id, err)
		}
		if _, err = dup.AddGeom(shape, g.Offset); err != nil {
			return nil, err
		}
	}
	if !o.IsStatic() {
		if err := dup.SetMass(o.Mass()); err != nil {
			return nil, err
		}
	}
	if err := dup.Init(); err != nil {
		return nil, err
	}

	for i, g := range o.geoms {
		dup.geoms[i].Category = g.Category
		dup.geoms[i].CollideMask = g.CollideMask
	}
	dup.body.Material = o.body.Material
	dup.body.SetTransform(o.body.Transform)
	dup.updateGeoms()

	return dup, nil
}

// Destroy removes the object from the world and from its Physics. The object
// cannot be used afterwards.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	if o.initialized {
		_ = o.RemoveFromWorld()
		o.physics.unregister(o)
	}

	o.destroyed = true
	o.tick = nil
	o.geoms = nil
	o.body = nil
}

// NewGround creates the table surface: a static plane at z = 0 in the world.
func NewGround(p *Physics) (*Object, error) {
	o := NewObject(p)
	if _, err := o.AddGeom(&actor.Plane{Normal: mgl64.Vec3{0, 0, 1}, Distance: 0}, actor.NewTransform()); err != nil {
		return nil, err
	}
	if err := o.Init(); err != nil {
		return nil, err
	}
	if err := o.SetCategory(CategoryGround, CategoryAll); err != nil {
		return nil, err
	}
	if err := o.AddToWorld(); err != nil {
		return nil, err
	}
	return o, nil
}
