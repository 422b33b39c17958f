package actor

import "github.com/go-gl/mathgl/mgl64"

// Geom binds a collision shape to a body at a local offset. A geom without a
// body is placed in world space by its offset.
//
// Category and CollideMask are opaque bit sets; the engine only carries them,
// filtering is left to the world's near callback.
type Geom struct {
	Shape       ShapeInterface
	Offset      Transform
	Body        *RigidBody
	Category    uint32
	CollideMask uint32
	// UserData points back to the owner of the geom, if any.
	UserData any

	aabb AABB
}

// NewGeom creates a geom at the given local offset.
func NewGeom(shape ShapeInterface, offset Transform) *Geom {
	g := &Geom{
		Shape:  shape,
		Offset: offset,
	}
	g.Update()
	return g
}

// WorldTransform returns the geom pose in world space.
func (g *Geom) WorldTransform() Transform {
	if g.Body == nil {
		return g.Offset
	}
	return g.Body.Transform.Mul(g.Offset)
}

// SetWorldTransform moves the geom so that its world pose equals t, keeping its body in place.
func (g *Geom) SetWorldTransform(t Transform) {
	if g.Body == nil {
		g.Offset = t
	} else {
		g.Offset = g.Body.Transform.Inverse().Mul(t)
	}
	g.Update()
}

// Update refreshes the cached bounding box.
func (g *Geom) Update() {
	g.aabb = g.Shape.ComputeAABB(g.WorldTransform())
}

func (g *Geom) GetAABB() AABB {
	return g.aabb
}

// IsPlane reports whether the geom is an infinite plane.
func (g *Geom) IsPlane() bool {
	_, ok := g.Shape.(*Plane)
	return ok
}

// Proxy returns a temporary geom standing in for g with another shape at the
// given world pose. It shares g's body, category bits and user data.
func (g *Geom) Proxy(shape ShapeInterface, world Transform) *Geom {
	proxy := &Geom{
		Shape:       shape,
		Body:        g.Body,
		Category:    g.Category,
		CollideMask: g.CollideMask,
		UserData:    g.UserData,
	}
	proxy.SetWorldTransform(world)
	return proxy
}

// SupportWorld returns the furthest point of the geom in direction, in world space.
func (g *Geom) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	t := g.WorldTransform()

	// Direction in local space, support in local space, back to world space
	localDirection := t.InverseRotation.Rotate(direction)
	return t.Apply(g.Shape.Support(localDirection))
}
