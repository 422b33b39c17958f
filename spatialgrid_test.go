package tabletop

import (
	"testing"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		input, expected int
	}{
		{0, 1},
		{1, 1},
		{3, 4},
		{64, 64},
		{1000, 1024},
	}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.input); got != tt.expected {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func findPairs(geoms []*actor.Geom) []Pair {
	grid := NewSpatialGrid(0.25, 256)
	for i, g := range geoms {
		if !g.IsPlane() {
			grid.Insert(i, g)
		}
	}
	return grid.FindPairs(geoms)
}

func TestSpatialGrid_FindPairs(t *testing.T) {
	a := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0, 0, 0})
	b := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0.3, 0, 0})
	c := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{5, 5, 0})

	pairs := findPairs([]*actor.Geom{a, b, c})
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0].GeomA != a || pairs[0].GeomB != b {
		t.Error("pair is not in geom order")
	}
}

func TestSpatialGrid_NoDuplicates(t *testing.T) {
	// Both spheres span several cells
	a := createGeom(&actor.Sphere{Radius: 0.6}, mgl64.Vec3{0, 0, 0})
	b := createGeom(&actor.Sphere{Radius: 0.6}, mgl64.Vec3{0.5, 0.5, 0})

	if pairs := findPairs([]*actor.Geom{a, b}); len(pairs) != 1 {
		t.Errorf("pairs = %d, want 1", len(pairs))
	}
}

func TestSpatialGrid_Filters(t *testing.T) {
	t.Run("same_body", func(t *testing.T) {
		a := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0, 0, 0})
		b := actor.NewGeom(&actor.Sphere{Radius: 0.2}, actor.NewTransformAt(mgl64.Vec3{0.1, 0, 0}, mgl64.QuatIdent()))
		b.Body = a.Body
		b.Update()

		if pairs := findPairs([]*actor.Geom{a, b}); len(pairs) != 0 {
			t.Errorf("pairs = %d, want 0", len(pairs))
		}
	})

	t.Run("both_static", func(t *testing.T) {
		a := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0, 0, 0})
		b := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0.1, 0, 0})
		a.Body = actor.NewStaticBody(a.Body.Transform)
		b.Body = actor.NewStaticBody(b.Body.Transform)

		if pairs := findPairs([]*actor.Geom{a, b}); len(pairs) != 0 {
			t.Errorf("pairs = %d, want 0", len(pairs))
		}
	})

	t.Run("both_sleeping", func(t *testing.T) {
		a := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0, 0, 0})
		b := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0.1, 0, 0})
		a.Body.Sleep()
		b.Body.Sleep()

		if pairs := findPairs([]*actor.Geom{a, b}); len(pairs) != 0 {
			t.Errorf("pairs = %d, want 0", len(pairs))
		}
	})
}

func TestSpatialGrid_LargeGeom(t *testing.T) {
	table := createGeom(&actor.Box{HalfExtents: mgl64.Vec3{10, 10, 0.1}}, mgl64.Vec3{0, 0, -0.1})
	table.Body = actor.NewStaticBody(table.Body.Transform)
	table.Update()
	near := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{8, -7, 0.1})
	far := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{30, 0, 0.1})

	pairs := findPairs([]*actor.Geom{near, table, far})
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0].GeomA != near || pairs[0].GeomB != table {
		t.Error("large geom not paired with the overlapping sphere")
	}
}

func TestWorld_BroadPhasePlanes(t *testing.T) {
	w := NewWorld()
	ground := createGround()
	a := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{0, 0, 3})
	b := createGeom(&actor.Sphere{Radius: 0.2}, mgl64.Vec3{10, 0, 3})

	w.AddGeom(ground)
	w.AddGeom(a)
	w.AddGeom(b)

	pairs := w.BroadPhase()
	if len(pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(pairs))
	}
	for i, geom := range []*actor.Geom{a, b} {
		if pairs[i].GeomA != ground || pairs[i].GeomB != geom {
			t.Errorf("pair %d is not (ground, geom)", i)
		}
	}
}
