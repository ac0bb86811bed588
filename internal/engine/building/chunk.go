package building

import (
	"fmt"
	gomath "math"

	"github.com/paulmach/orb"
)

// ChunkKey identifies a square cell of the batching grid.
type ChunkKey struct {
	X, Y int64
}

// KeyFor returns the cell containing p.
func KeyFor(p orb.Point, cellSize float64) ChunkKey {
	return ChunkKey{
		X: int64(gomath.Floor(p[0] / cellSize)),
		Y: int64(gomath.Floor(p[1] / cellSize)),
	}
}

// Origin returns the cell's minimum corner.
func (k ChunkKey) Origin(cellSize float64) orb.Point {
	return orb.Point{float64(k.X) * cellSize, float64(k.Y) * cellSize}
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%d:%d", k.X, k.Y)
}

// Batcher merges parts whose anchors share a cell into one mesh. Parts whose
// bounds span more than one cell get a mesh of their own. Batching is a
// sequential fold: the first part of a cell seeds its mesh.
type Batcher struct {
	cellSize float64
	layout   Layout
	merge    bool

	chunks map[ChunkKey]*meshBuilder
	order  []*meshBuilder
}

// NewBatcher creates a batcher for the given cell size. With merge false
// every part becomes its own mesh.
func NewBatcher(cellSize float64, layout Layout, merge bool) *Batcher {
	return &Batcher{
		cellSize: cellSize,
		layout:   layout,
		merge:    merge,
		chunks:   make(map[ChunkKey]*meshBuilder),
	}
}

// Spans reports whether the bounds cover more than one cell.
func (b *Batcher) Spans(bounds orb.Bound) bool {
	return KeyFor(bounds.Min, b.cellSize) != KeyFor(bounds.Max, b.cellSize)
}

// Add assigns the part to a mesh and reports whether the part got a mesh of
// its own.
func (b *Batcher) Add(p Part) bool {
	key := KeyFor(p.Anchor, b.cellSize)

	if !b.merge || b.Spans(p.Bounds) {
		mb := newMeshBuilder(key, p.Anchor, p)
		mb.dedicated = b.merge
		mb.add(p)
		b.order = append(b.order, mb)
		return true
	}

	mb, ok := b.chunks[key]
	if !ok {
		mb = newMeshBuilder(key, key.Origin(b.cellSize), p)
		b.chunks[key] = mb
		b.order = append(b.order, mb)
	}
	mb.add(p)
	return false
}

// Chunks returns the number of shared cell meshes created so far.
func (b *Batcher) Chunks() int {
	return len(b.chunks)
}

// Len returns the number of meshes created so far.
func (b *Batcher) Len() int {
	return len(b.order)
}

// Finish finalizes all meshes in creation order. The batcher is reset and
// can be reused.
func (b *Batcher) Finish() []Mesh {
	meshes := make([]Mesh, 0, len(b.order))
	for _, mb := range b.order {
		meshes = append(meshes, mb.finalize(b.layout))
	}
	b.chunks = make(map[ChunkKey]*meshBuilder)
	b.order = nil
	return meshes
}
