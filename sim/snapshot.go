package sim

import (
	"encoding/binary"
	"math"

	"github.com/akmonengine/tabletop/actor"
	"github.com/cespare/xxhash/v2"
)

// ObjectState is the pose of one object at snapshot time.
type ObjectState struct {
	ID       string     `msgpack:"id" json:"id"`
	Position [3]float64 `msgpack:"p" json:"position"`
	// Rotation is (w, x, y, z)
	Rotation [4]float64 `msgpack:"r" json:"rotation"`
	Static   bool       `msgpack:"s" json:"static"`
	Sleeping bool       `msgpack:"z" json:"sleeping"`
	Shapes   []Shape    `msgpack:"g,omitempty" json:"shapes,omitempty"`
}

// Shape describes a geom for display, relative to its object.
type Shape struct {
	Type   string     `msgpack:"t" json:"type"`
	Size   [3]float64 `msgpack:"d" json:"size"`
	Offset [3]float64 `msgpack:"o" json:"offset"`
	// Rotation is (w, x, y, z)
	Rotation [4]float64 `msgpack:"r" json:"rotation"`
}

// Snapshot is a copy of the pose of every registered object in the world.
type Snapshot struct {
	Time    float64       `msgpack:"t" json:"time"`
	Step    uint64        `msgpack:"n" json:"step"`
	Objects []ObjectState `msgpack:"o" json:"objects"`
}

// Snapshot copies the poses of the objects in the world, in registration
// order. Shapes are included when withShapes is set.
func (p *Physics) Snapshot(withShapes bool) Snapshot {
	snapshot := Snapshot{
		Time:    p.time,
		Step:    p.steps,
		Objects: make([]ObjectState, 0, len(p.order)),
	}

	for _, o := range p.order {
		if !o.inWorld {
			continue
		}
		t := o.body.Transform
		state := ObjectState{
			ID:       o.id.String(),
			Position: t.Position,
			Rotation: quatArray(t.Rotation.W, t.Rotation.V),
			Static:   o.IsStatic(),
			Sleeping: o.body.IsSleeping,
		}
		if withShapes {
			for _, g := range o.geoms {
				state.Shapes = append(state.Shapes, describeShape(g))
			}
		}
		snapshot.Objects = append(snapshot.Objects, state)
	}

	return snapshot
}

func quatArray(w float64, v [3]float64) [4]float64 {
	return [4]float64{w, v[0], v[1], v[2]}
}

func describeShape(g *actor.Geom) Shape {
	shape := Shape{
		Type:     g.Shape.Type().String(),
		Offset:   g.Offset.Position,
		Rotation: quatArray(g.Offset.Rotation.W, g.Offset.Rotation.V),
	}

	switch s := g.Shape.(type) {
	case *actor.Box:
		shape.Size = s.HalfExtents.Mul(2)
	case *actor.Sphere:
		shape.Size = [3]float64{s.Radius * 2, s.Radius * 2, s.Radius * 2}
	case *actor.Cylinder:
		shape.Size = [3]float64{s.Radius * 2, s.Radius * 2, s.Height}
	case *actor.Capsule:
		shape.Size = [3]float64{s.Radius * 2, s.Radius * 2, s.Length + 2*s.Radius}
	case *actor.Plane:
		shape.Offset = s.Point()
	}

	return shape
}

// StateHash fingerprints the pose and velocity of every registered object.
// Two runs of the same scene give the same hash after the same steps.
func (p *Physics) StateHash() uint64 {
	h := xxhash.New()
	var buf [8]byte

	write := func(values ...float64) {
		for _, v := range values {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}

	binary.LittleEndian.PutUint64(buf[:], p.steps)
	_, _ = h.Write(buf[:])

	for _, o := range p.order {
		t := o.body.Transform
		write(t.Position[:]...)
		write(t.Rotation.W, t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2])
		write(o.body.Velocity[:]...)
		write(o.body.AngularVelocity[:]...)
	}

	return h.Sum64()
}
