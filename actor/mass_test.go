package actor

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestShapeMass_Unsupported(t *testing.T) {
	_, err := ShapeMass(&Plane{Normal: mgl64.Vec3{0, 0, 1}}, 1)
	if !errors.Is(err, ErrUnsupportedShape) {
		t.Errorf("ShapeMass(plane) error = %v, want ErrUnsupportedShape", err)
	}
}

func TestMass_TranslateAddAdjust(t *testing.T) {
	cube := &Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}

	var total Mass
	for _, offset := range []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}} {
		m, err := ShapeMass(cube, 1)
		if err != nil {
			t.Fatal(err)
		}
		m.Translate(offset)
		total.Add(m)
	}

	if total.Mass != 2 {
		t.Fatalf("total mass = %v, want 2", total.Mass)
	}
	if !vec3Equal(total.Center, mgl64.Vec3{}, 1e-12) {
		t.Errorf("center = %v, want origin", total.Center)
	}
	want := mgl64.Vec3{1.0 / 3.0, 7.0 / 3.0, 7.0 / 3.0}
	if got := diag(total.Inertia); !vec3Equal(got, want, 1e-12) {
		t.Errorf("inertia diagonal = %v, want %v", got, want)
	}

	total.Adjust(10)
	if total.Mass != 10 {
		t.Errorf("adjusted mass = %v, want exactly 10", total.Mass)
	}
	want = want.Mul(5)
	if got := diag(total.Inertia); !vec3Equal(got, want, 1e-12) {
		t.Errorf("adjusted inertia diagonal = %v, want %v", got, want)
	}
}

func TestMass_Rotate(t *testing.T) {
	m, err := ShapeMass(&Box{HalfExtents: mgl64.Vec3{1, 2, 3}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	before := diag(m.Inertia)

	m.Rotate(YawQuat(math.Pi / 2))
	after := diag(m.Inertia)

	if !floatEqual(after.X(), before.Y(), 1e-9) || !floatEqual(after.Y(), before.X(), 1e-9) || !floatEqual(after.Z(), before.Z(), 1e-9) {
		t.Errorf("rotated inertia diagonal = %v, want X and Y of %v swapped", after, before)
	}
}
