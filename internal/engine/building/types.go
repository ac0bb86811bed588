// Package building turns projected building footprints into roof and wall
// geometry and batches it into meshes ready for GPU upload.
package building

import (
	"github.com/paulmach/orb"
)

// Layout describes how a mesh's vertex attributes are interleaved.
type Layout int

const (
	// LayoutPN is position (3) + normal (3).
	LayoutPN Layout = iota
	// LayoutPNC is position (3) + normal (3) + color (3).
	LayoutPNC
)

// Stride returns the number of float32 values per vertex.
func (l Layout) Stride() int {
	if l == LayoutPNC {
		return 9
	}
	return 6
}

// HasColor reports whether vertices carry their own color.
func (l Layout) HasColor() bool {
	return l == LayoutPNC
}

func (l Layout) String() string {
	if l == LayoutPNC {
		return "position+normal+color"
	}
	return "position+normal"
}

// Vertex is a single mesh vertex before interleaving.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [3]float32
}

// Mesh is the unit of GPU upload and draw. Vertex positions are relative to
// Position; the renderer re-adds it through the model transform. A Mesh is
// immutable once returned by a Batcher.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
	Layout   Layout

	// Count2D is the number of leading indices that draw the roofs only.
	// Count3D covers roofs and walls.
	Count2D int
	Count3D int

	Position orb.Point // world-space anchor
	Bounds   orb.Bound // world-space footprint bounds
	Albedo   [3]float32

	Chunk     ChunkKey
	Dedicated bool // holds a single feature that spans several cells
	Features  int
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / m.Layout.Stride()
}

// Count returns the index count to draw for the given render mode.
func (m *Mesh) Count(mode3D bool) int {
	if mode3D {
		return m.Count3D
	}
	return m.Count2D
}

// Part is the geometry of one feature, relative to Anchor.
type Part struct {
	Anchor orb.Point
	Bounds orb.Bound
	Color  [3]float32

	Roof        []Vertex
	RoofIndices []uint32
	Walls       []Vertex
	WallIndices []uint32
}
