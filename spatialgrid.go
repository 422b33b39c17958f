package tabletop

import (
	"math"
	"slices"

	"github.com/akmonengine/tabletop/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultCellSize = 0.25
	DefaultNumCells = 1024

	// maxCellsPerAxis bounds the cells a single geom is hashed into; larger
	// geoms are tested against every other geom instead.
	maxCellsPerAxis = 16
)

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X, Y, Z int
}

// Cell holds indices of the geoms overlapping it.
type Cell struct {
	geomIndices []int
}

// Pair is two geoms whose bounding boxes overlap.
type Pair struct {
	GeomA *actor.Geom
	GeomB *actor.Geom
}

// SpatialGrid is a uniform hashed grid used by the broad phase. Planes are
// never inserted: they are paired with every other geom.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int

	large []int
	seen  []bool
}

func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].geomIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// cellRange returns the cells covered by an AABB, and false when the AABB is
// too large to be hashed.
func (sg *SpatialGrid) cellRange(aabb actor.AABB) (CellKey, CellKey, bool) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	if maxCell.X-minCell.X >= maxCellsPerAxis ||
		maxCell.Y-minCell.Y >= maxCellsPerAxis ||
		maxCell.Z-minCell.Z >= maxCellsPerAxis {
		return minCell, maxCell, false
	}
	return minCell, maxCell, true
}

// Insert hashes a geom into every cell its AABB covers.
func (sg *SpatialGrid) Insert(geomIndex int, geom *actor.Geom) {
	minCell, maxCell, ok := sg.cellRange(geom.GetAABB())
	if !ok {
		sg.large = append(sg.large, geomIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				cell := &sg.cells[cellIdx]
				// A geom can hash twice into the same cell
				if n := len(cell.geomIndices); n > 0 && cell.geomIndices[n-1] == geomIndex {
					continue
				}
				cell.geomIndices = append(cell.geomIndices, geomIndex)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].geomIndices = sg.cells[i].geomIndices[:0]
	}
	sg.large = sg.large[:0]
}

// FindPairs returns the candidate pairs among geoms, ordered by the index of
// their first geom then by discovery. geoms must be the slice the grid was
// filled from.
func (sg *SpatialGrid) FindPairs(geoms []*actor.Geom) []Pair {
	pairs := make([]Pair, 0, len(geoms))
	if cap(sg.seen) < len(geoms) {
		sg.seen = make([]bool, len(geoms))
	}
	seen := sg.seen[:len(geoms)]

	var candidates []int
	for geomIdx, geomA := range geoms {
		if geomA.IsPlane() {
			continue
		}
		clear(seen)
		candidates = candidates[:0]

		minCell, maxCell, ok := sg.cellRange(geomA.GetAABB())
		if ok {
			for x := minCell.X; x <= maxCell.X; x++ {
				for y := minCell.Y; y <= maxCell.Y; y++ {
					for z := minCell.Z; z <= maxCell.Z; z++ {
						for _, otherIdx := range sg.cells[sg.hashCell(CellKey{x, y, z})].geomIndices {
							if otherIdx > geomIdx && !seen[otherIdx] {
								seen[otherIdx] = true
								candidates = append(candidates, otherIdx)
							}
						}
					}
				}
			}
		} else {
			for otherIdx := geomIdx + 1; otherIdx < len(geoms); otherIdx++ {
				if !geoms[otherIdx].IsPlane() {
					seen[otherIdx] = true
					candidates = append(candidates, otherIdx)
				}
			}
		}
		for _, otherIdx := range sg.large {
			if otherIdx > geomIdx && !seen[otherIdx] {
				seen[otherIdx] = true
				candidates = append(candidates, otherIdx)
			}
		}

		// Cell traversal order depends on hashing, pairs must not
		slices.Sort(candidates)

		for _, otherIdx := range candidates {
			geomB := geoms[otherIdx]
			if !canCollide(geomA, geomB) {
				continue
			}
			if geomA.GetAABB().Overlaps(geomB.GetAABB()) {
				pairs = append(pairs, Pair{GeomA: geomA, GeomB: geomB})
			}
		}
	}

	return pairs
}

// canCollide rejects pairs that can never produce a contact.
func canCollide(a, b *actor.Geom) bool {
	if a.Body == b.Body && a.Body != nil {
		return false
	}
	if isStatic(a) && isStatic(b) {
		return false
	}
	return !(isSleeping(a) && isSleeping(b))
}

func isStatic(g *actor.Geom) bool {
	return g.Body == nil || g.Body.BodyType == actor.BodyTypeStatic
}

func isSleeping(g *actor.Geom) bool {
	return isStatic(g) || g.Body.IsSleeping
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
