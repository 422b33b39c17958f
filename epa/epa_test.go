package epa

import (
	"math"
	"testing"

	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}

func createGeom(shape actor.ShapeInterface, position mgl64.Vec3) *actor.Geom {
	g := actor.NewGeom(shape, actor.NewTransformAt(position, mgl64.QuatIdent()))
	g.Body = actor.NewRigidBody(actor.NewTransform())
	return g
}

func TestSnapNormalToAxis(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected mgl64.Vec3
	}{
		{"small_x_component", mgl64.Vec3{1e-9, 1.0, 0.0}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"small_z_component", mgl64.Vec3{0.0, 1.0, 1e-9}, mgl64.Vec3{0.0, 1.0, 0.0}},
		{"axis_aligned", mgl64.Vec3{1.0, 0.0, 0.0}, mgl64.Vec3{1.0, 0.0, 0.0}},
		{"diagonal", mgl64.Vec3{1, 1, 1}.Normalize(), mgl64.Vec3{1, 1, 1}.Normalize()},
		{"near_zero_vector", mgl64.Vec3{1e-9, 1e-9, 1e-9}, mgl64.Vec3{0.0, 0.0, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := snapNormalToAxis(tt.input)
			if !vec3ApproxEqual(result, tt.expected, 1e-6) {
				t.Errorf("snapNormalToAxis(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			if math.Abs(result.Len()-1) > 1e-6 {
				t.Errorf("result is not normalized: length = %v", result.Len())
			}
		})
	}
}

func TestHandleDegenerateSimplex(t *testing.T) {
	a := createGeom(&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 0, 0})
	b := createGeom(&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 0, 1.9})

	t.Run("two_points", func(t *testing.T) {
		simplex := &gjk.Simplex{Count: 2}
		simplex.Points[0] = mgl64.Vec3{0, 0, 0.5}
		simplex.Points[1] = mgl64.Vec3{0, 0, 0.1}

		contact := handleDegenerateSimplex(a, b, simplex)
		if !vec3ApproxEqual(contact.Normal, mgl64.Vec3{0, 0, 1}, 1e-9) {
			t.Errorf("normal = %v, want +Z", contact.Normal)
		}
		if len(contact.Points) == 0 {
			t.Fatal("expected contact points")
		}
		if math.Abs(contact.Points[0].Penetration-0.1) > 1e-9 {
			t.Errorf("penetration = %v, want 0.1", contact.Points[0].Penetration)
		}
	})

	t.Run("single_point_uses_centers", func(t *testing.T) {
		simplex := &gjk.Simplex{Count: 1}
		contact := handleDegenerateSimplex(a, b, simplex)
		if !vec3ApproxEqual(contact.Normal, mgl64.Vec3{0, 0, 1}, 1e-9) {
			t.Errorf("normal = %v, want +Z", contact.Normal)
		}
		if contact.Points[0].Penetration != DegeneratePenetrationEstimate {
			t.Errorf("penetration = %v, want %v", contact.Points[0].Penetration, DegeneratePenetrationEstimate)
		}
	})

	t.Run("coincident_centers_default_up", func(t *testing.T) {
		c := createGeom(&actor.Sphere{Radius: 1}, mgl64.Vec3{0, 0, 0})
		contact := handleDegenerateSimplex(a, c, &gjk.Simplex{Count: 1})
		if !vec3ApproxEqual(contact.Normal, mgl64.Vec3{0, 0, 1}, 1e-9) {
			t.Errorf("normal = %v, want +Z", contact.Normal)
		}
	})
}

// ============================================================================
// EPA
// ============================================================================

func TestEPA(t *testing.T) {
	tests := []struct {
		name           string
		a, b           *actor.Geom
		expectedNormal mgl64.Vec3
		expectedDepth  float64
		tolerance      float64
	}{
		{
			name:           "stacked_boxes",
			a:              createGeom(&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 0, 0}),
			b:              createGeom(&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 0, 1.8}),
			expectedNormal: mgl64.Vec3{0, 0, 1},
			expectedDepth:  0.2,
			tolerance:      0.01,
		},
		{
			name:           "side_by_side_boxes",
			a:              createGeom(&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 0, 0}),
			b:              createGeom(&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{-1.7, 0, 0}),
			expectedNormal: mgl64.Vec3{-1, 0, 0},
			expectedDepth:  0.3,
			tolerance:      0.01,
		},
		{
			name:           "spheres",
			a:              createGeom(&actor.Sphere{Radius: 1}, mgl64.Vec3{0, 0, 0}),
			b:              createGeom(&actor.Sphere{Radius: 1}, mgl64.Vec3{1.5, 0, 0}),
			expectedNormal: mgl64.Vec3{1, 0, 0},
			expectedDepth:  0.5,
			tolerance:      0.05,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
			defer gjk.SimplexPool.Put(simplex)
			simplex.Reset()

			if !gjk.GJK(tt.a, tt.b, simplex) {
				t.Fatal("GJK did not detect the overlap")
			}

			contact, err := EPA(tt.a, tt.b, simplex)
			if err != nil {
				t.Fatalf("EPA failed: %v", err)
			}
			if contact.Normal.Dot(tt.expectedNormal) < 0.95 {
				t.Errorf("normal = %v, want %v", contact.Normal, tt.expectedNormal)
			}
			if len(contact.Points) == 0 {
				t.Fatal("no contact points")
			}
			if math.Abs(contact.Points[0].Penetration-tt.expectedDepth) > tt.tolerance {
				t.Errorf("depth = %v, want %v", contact.Points[0].Penetration, tt.expectedDepth)
			}
			if contact.BodyA != tt.a.Body || contact.BodyB != tt.b.Body {
				t.Error("contact bodies do not match the geoms")
			}
		})
	}
}

func TestEPARejectsShortSimplexInit(t *testing.T) {
	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)
	p.reset()

	if err := p.init(&gjk.Simplex{Count: 3}); err == nil {
		t.Error("expected an error for a 3 point simplex")
	}
}

// ============================================================================
// Polytope
// ============================================================================

func TestNewFaceOrientation(t *testing.T) {
	a := mgl64.Vec3{1, 0, -1}
	b := mgl64.Vec3{-1, 1, -1}
	c := mgl64.Vec3{-1, -1, -1}
	opposite := mgl64.Vec3{0, 0, 1}

	face := newFace(a, b, c, opposite)
	if !vec3ApproxEqual(face.Normal, mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("normal = %v, want -Z", face.Normal)
	}
	if math.Abs(face.Distance-1) > 1e-9 {
		t.Errorf("distance = %v, want 1", face.Distance)
	}

	// Winding must not matter
	flipped := newFace(a, c, b, opposite)
	if !vec3ApproxEqual(flipped.Normal, face.Normal, 1e-9) {
		t.Errorf("flipped winding normal = %v, want %v", flipped.Normal, face.Normal)
	}
}

func TestPolytopeExpand(t *testing.T) {
	simplex := &gjk.Simplex{Count: 4}
	simplex.Points[0] = mgl64.Vec3{0, 0, 1}
	simplex.Points[1] = mgl64.Vec3{0, 1, -1}
	simplex.Points[2] = mgl64.Vec3{1, -1, -1}
	simplex.Points[3] = mgl64.Vec3{-1, -1, -1}

	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)
	p.reset()

	if err := p.init(simplex); err != nil {
		t.Fatal(err)
	}
	if len(p.faces) != 4 {
		t.Fatalf("faces = %d, want 4", len(p.faces))
	}

	closest := p.closest()
	support := p.faces[closest].Normal.Mul(p.faces[closest].Distance + 1)
	p.expand(support, closest)

	// One face replaced by three
	if len(p.faces) != 6 {
		t.Errorf("faces after expand = %d, want 6", len(p.faces))
	}
	for i, face := range p.faces {
		if face.Distance < 0 {
			t.Errorf("face %d has negative distance %v", i, face.Distance)
		}
	}
}

func TestCompareVec3(t *testing.T) {
	tests := []struct {
		a, b     mgl64.Vec3
		expected int
	}{
		{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, 0},
		{mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, -1},
		{mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 2}, 1},
	}
	for _, tt := range tests {
		if got := compareVec3(tt.a, tt.b); got != tt.expected {
			t.Errorf("compareVec3(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}
}
