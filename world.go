// Package tabletop is a small XPBD rigid-body engine: a spatial-hash broad
// phase over geoms, a GJK/EPA narrow phase with analytic planes, and a
// substepped position solver. Pairs are handed to a near callback which
// decides what constraints, if any, they produce.
package tabletop

import (
	"slices"

	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS  = 1
	DEFAULT_SUBSTEPS = 4

	sleepTimeThreshold     = 0.1
	sleepVelocityThreshold = 0.05
)

// NearCallback receives every candidate pair of geoms, in a deterministic
// order, and adds the constraints they produce to group.
type NearCallback func(a, b *actor.Geom, group *constraint.Group)

// DefaultNearCallback builds a contact for every touching pair.
func DefaultNearCallback(maxContacts int) NearCallback {
	return func(a, b *actor.Geom, group *constraint.Group) {
		if contact, ok := Collide(a, b, maxContacts); ok {
			group.Add(&contact)
		}
	}
}

type World struct {
	Bodies []*actor.RigidBody
	Geoms  []*actor.Geom
	// Gravity acceleration (m/s²)
	Gravity     mgl64.Vec3
	Substeps    int
	SpatialGrid *SpatialGrid
	Workers     int
	// DisableSleep keeps every body awake.
	DisableSleep bool

	NearCallback NearCallback
	Events       Events

	group constraint.Group
}

// NewWorld creates a Z-up world with earth gravity.
func NewWorld() *World {
	return &World{
		Gravity:      mgl64.Vec3{0, 0, -9.81},
		Substeps:     DEFAULT_SUBSTEPS,
		SpatialGrid:  NewSpatialGrid(DefaultCellSize, DefaultNumCells),
		Workers:      DEFAULT_WORKERS,
		NearCallback: DefaultNearCallback(DefaultMaxContacts),
		Events:       NewEvents(),
	}
}

// AddBody adds a rigid body to the world. Adding it twice is a no-op.
func (w *World) AddBody(body *actor.RigidBody) {
	if slices.Contains(w.Bodies, body) {
		return
	}
	w.Bodies = append(w.Bodies, body)
}

func (w *World) RemoveBody(body *actor.RigidBody) {
	if k := slices.Index(w.Bodies, body); k != -1 {
		w.Bodies = slices.Delete(w.Bodies, k, k+1)
	}
	w.Events.forget(body)
}

// AddGeom adds a geom to the collision space. Adding it twice is a no-op.
// A geom without a body is bound to a static body at the origin, its offset
// being its world pose.
func (w *World) AddGeom(geom *actor.Geom) {
	if slices.Contains(w.Geoms, geom) {
		return
	}
	if geom.Body == nil {
		geom.Body = actor.NewStaticBody(actor.NewTransform())
	}
	geom.Update()
	w.Geoms = append(w.Geoms, geom)
}

func (w *World) RemoveGeom(geom *actor.Geom) {
	if k := slices.Index(w.Geoms, geom); k != -1 {
		w.Geoms = slices.Delete(w.Geoms, k, k+1)
	}
}

// Step advances the simulation by dt, split in Substeps substeps. The near
// callback runs once per candidate pair and substep, and the constraint group
// is emptied before each collision pass.
func (w *World) Step(dt float64) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	substeps := max(1, w.Substeps)
	h := dt / float64(substeps)

	for range substeps {
		w.integrate(h)

		constraints := w.detectCollision()

		w.solvePosition(h, constraints)

		w.update(h)

		w.solveVelocity(h, constraints)

		w.trySleep(h)
	}
	w.group.Empty()

	w.Events.processSleepEvents(w.Bodies)
	w.Events.flush()
}

func (w *World) integrate(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(h, w.Gravity)
	})
}

// detectCollision runs the broad phase and feeds the near callback.
func (w *World) detectCollision() []constraint.Constraint {
	w.group.Empty()

	for _, geom := range w.Geoms {
		geom.Update()
	}

	callback := w.NearCallback
	if callback == nil {
		callback = DefaultNearCallback(DefaultMaxContacts)
	}
	for _, pair := range w.BroadPhase() {
		callback(pair.GeomA, pair.GeomB, &w.group)
	}

	contacts := w.group.Contacts()
	wakeTouched(contacts)
	w.Events.recordContacts(contacts)

	return w.group.Constraints()
}

// BroadPhase returns the candidate pairs: overlapping geoms from the grid,
// then every plane against every other geom.
func (w *World) BroadPhase() []Pair {
	w.SpatialGrid.Clear()
	for i, geom := range w.Geoms {
		if !geom.IsPlane() {
			w.SpatialGrid.Insert(i, geom)
		}
	}
	pairs := w.SpatialGrid.FindPairs(w.Geoms)

	for _, plane := range w.Geoms {
		if !plane.IsPlane() {
			continue
		}
		for _, geom := range w.Geoms {
			if geom.IsPlane() || !canCollide(plane, geom) {
				continue
			}
			pairs = append(pairs, Pair{GeomA: plane, GeomB: geom})
		}
	}

	return pairs
}

// wakeTouched wakes sleeping bodies touched by an awake dynamic body.
func wakeTouched(contacts []*constraint.ContactConstraint) {
	for _, c := range contacts {
		a, b := c.BodyA, c.BodyB
		if a.IsSleeping && !b.IsSleeping && b.BodyType == actor.BodyTypeDynamic {
			a.Awake()
		} else if b.IsSleeping && !a.IsSleeping && a.BodyType == actor.BodyTypeDynamic {
			b.Awake()
		}
	}
}

func (w *World) solvePosition(h float64, constraints []constraint.Constraint) {
	for _, c := range constraints {
		c.SolvePosition(h)
	}
}

func (w *World) update(h float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Update(h)
	})
}

func (w *World) solveVelocity(h float64, constraints []constraint.Constraint) {
	for _, c := range constraints {
		c.SolveVelocity(h)
	}
}

// trySleep is too cheap to be worth splitting over workers.
func (w *World) trySleep(h float64) {
	if w.DisableSleep {
		return
	}
	for _, body := range w.Bodies {
		body.TrySleep(h, sleepTimeThreshold, sleepVelocityThreshold)
	}
}
