package sim

import (
	"math"

	"github.com/akmonengine/tabletop"
	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/constraint"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// nearCallback filters a candidate pair by category, then either holds an
// element in its dispenser with a vertical slider or builds a contact.
func (p *Physics) nearCallback(a, b *actor.Geom, group *constraint.Group) {
	if !ShouldCollide(a, b) {
		return
	}

	if pair := sliderOrder(a, b); pair != nil {
		addSlider(group, pair[0].Body, pair[1].Body)
		return
	}

	if contact, ok := p.collide(a, b); ok {
		group.Add(&contact)
	}
}

// addSlider adds a vertical slider between the dispenser and the element
// bodies, unless the group already holds one for them.
func addSlider(group *constraint.Group, dispenser, element *actor.RigidBody) {
	for _, c := range group.Constraints() {
		if s, ok := c.(*constraint.SliderConstraint); ok && s.BodyA == dispenser && s.BodyB == element {
			return
		}
	}
	group.Add(constraint.NewVerticalSlider(dispenser, element))
}

func (p *Physics) collide(a, b *actor.Geom) (constraint.ContactConstraint, bool) {
	if isCylinder(a) && isCylinder(b) {
		return p.collideCylinders(a, b)
	}
	return tabletop.Collide(a, b, p.cfg.MaxContacts)
}

func isCylinder(g *actor.Geom) bool {
	return g.Shape.Type() == actor.ShapeTypeCylinder
}

// collideCylinders replaces the upper cylinder by its bounding box, turned
// to the yaw of the offset between the two cylinders, and collides it with
// the lower one. The box is discarded afterwards.
func (p *Physics) collideCylinders(a, b *actor.Geom) (constraint.ContactConstraint, bool) {
	upperIsA := a.WorldTransform().Position.Z() > b.WorldTransform().Position.Z()
	upper, lower := b, a
	if upperIsA {
		upper, lower = a, b
	}

	cylinder := upper.Shape.(*actor.Cylinder)
	if cylinder.Height > cylinder.Radius {
		p.logSubstitutionLimit(a, b, cylinder)
	}

	proxy := CylinderProxy(upper, lower)
	if upperIsA {
		return tabletop.Collide(proxy, lower, p.cfg.MaxContacts)
	}
	return tabletop.Collide(lower, proxy, p.cfg.MaxContacts)
}

// CylinderProxy returns the box standing in for the upper cylinder: half
// extents (r, r, h/2), at its position, yawed toward the relative position of
// the two cylinders.
func CylinderProxy(upper, lower *actor.Geom) *actor.Geom {
	cylinder := upper.Shape.(*actor.Cylinder)
	box := &actor.Box{HalfExtents: mgl64.Vec3{cylinder.Radius, cylinder.Radius, cylinder.Height / 2}}

	world := upper.WorldTransform()
	relative := world.Position.Sub(lower.WorldTransform().Position)
	yaw := 0.0
	if math.Hypot(relative.X(), relative.Y()) > 1e-9 {
		yaw = math.Atan2(relative.Y(), relative.X())
	}

	return upper.Proxy(box, actor.NewTransformAt(world.Position, actor.YawQuat(yaw)))
}

func (p *Physics) logSubstitutionLimit(a, b *actor.Geom, cylinder *actor.Cylinder) {
	key := geomPair{a, b}
	if p.limitLogged[key] {
		return
	}
	p.limitLogged[key] = true

	p.log.Debug("cylinder substituted by a box beyond its validity range",
		zap.Float64("height", cylinder.Height),
		zap.Float64("radius", cylinder.Radius),
	)
}
