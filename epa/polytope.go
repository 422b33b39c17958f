package epa

import (
	"fmt"
	"math"
	"sync"

	"github.com/akmonengine/tabletop/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the expanding polytope, with its outward normal and
// its distance to the origin.
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

type edge struct {
	a, b  mgl64.Vec3
	count int
}

// polytope holds the faces of the hull being expanded toward the surface of
// the Minkowski difference. Buffers are reused through polytopePool.
type polytope struct {
	faces   []Face
	edges   []edge
	visible []bool
}

var polytopePool = sync.Pool{
	New: func() interface{} {
		return &polytope{
			faces: make([]Face, 0, polytopeInitialCapacity),
			edges: make([]edge, 0, polytopeInitialCapacity),
		}
	},
}

func (p *polytope) reset() {
	p.faces = p.faces[:0]
	p.edges = p.edges[:0]
	p.visible = p.visible[:0]
}

// init builds the 4 faces of the GJK tetrahedron, dropping degenerate ones
// unless fewer than 3 would remain.
func (p *polytope) init(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return fmt.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	candidates := [4]Face{
		newFace(p0, p1, p2, p3),
		newFace(p0, p2, p3, p1),
		newFace(p0, p3, p1, p2),
		newFace(p1, p3, p2, p0),
	}

	for _, face := range candidates {
		if face.Distance > EPAMinFaceDistance {
			p.faces = append(p.faces, face)
		}
	}
	if len(p.faces) < 3 {
		p.faces = append(p.faces[:0], candidates[:]...)
	}

	return nil
}

// newFace creates a face whose normal points away from opposite and from the origin.
func newFace(a, b, c, opposite mgl64.Vec3) Face {
	face := Face{Points: [3]mgl64.Vec3{a, b, c}}

	normal := b.Sub(a).Cross(c.Sub(a))
	length := normal.Len()
	if length < 1e-8 {
		face.Normal = mgl64.Vec3{0, 0, 1}
		face.Distance = EPAMinFaceDistance
		return face
	}
	normal = normal.Mul(1.0 / length)

	if normal.Dot(opposite.Sub(a)) > 0 {
		normal = normal.Mul(-1)
	}

	distance := a.Dot(normal)
	if distance < 0 {
		normal = normal.Mul(-1)
		distance = -distance
	}

	face.Normal = snapNormalToAxis(normal)
	face.Distance = math.Max(distance, EPAMinFaceDistance)
	return face
}

func (p *polytope) closest() int {
	best := 0
	for i := 1; i < len(p.faces); i++ {
		if p.faces[i].Distance < p.faces[best].Distance {
			best = i
		}
	}
	return best
}

func (p *polytope) removeFace(i int) {
	last := len(p.faces) - 1
	p.faces[i] = p.faces[last]
	p.faces = p.faces[:last]
}

// centroid averages the face vertices; shared vertices weigh more, which is
// fine since it is only used to orient new faces.
func (p *polytope) centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, face := range p.faces {
		sum = sum.Add(face.Points[0]).Add(face.Points[1]).Add(face.Points[2])
	}
	return sum.Mul(1.0 / float64(3*len(p.faces)))
}

// expand adds support to the hull: faces it can see are removed and their
// boundary edges are connected to it.
func (p *polytope) expand(support mgl64.Vec3, closest int) {
	centroid := p.centroid()

	p.visible = p.visible[:0]
	visibleCount := 0
	for _, face := range p.faces {
		isVisible := face.Normal.Dot(support.Sub(face.Points[0])) > 0
		p.visible = append(p.visible, isVisible)
		if isVisible {
			visibleCount++
		}
	}

	// Never remove every face
	if visibleCount == len(p.faces) {
		for i := range p.visible {
			p.visible[i] = i == closest
		}
	}

	p.edges = p.edges[:0]
	for i, face := range p.faces {
		if !p.visible[i] {
			continue
		}
		p.addEdge(face.Points[0], face.Points[1])
		p.addEdge(face.Points[1], face.Points[2])
		p.addEdge(face.Points[2], face.Points[0])
	}

	for i := len(p.faces) - 1; i >= 0; i-- {
		if p.visible[i] {
			p.removeFace(i)
		}
	}

	for _, e := range p.edges {
		if e.count == 1 {
			p.faces = append(p.faces, newFace(e.a, e.b, support, centroid))
		}
	}

	if len(p.faces) == 0 {
		p.faces = append(p.faces, Face{
			Points:   [3]mgl64.Vec3{support, support, support},
			Normal:   mgl64.Vec3{0, 0, 1},
			Distance: EPAMinFaceDistance,
		})
	}
}

// addEdge counts an edge regardless of its winding; edges seen once are on the
// boundary of the visible region.
func (p *polytope) addEdge(a, b mgl64.Vec3) {
	if compareVec3(a, b) > 0 {
		a, b = b, a
	}
	for i := range p.edges {
		if p.edges[i].a == a && p.edges[i].b == b {
			p.edges[i].count++
			return
		}
	}
	p.edges = append(p.edges, edge{a: a, b: b, count: 1})
}

func compareVec3(a, b mgl64.Vec3) int {
	for i := 0; i < 3; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}
