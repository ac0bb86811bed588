package building

import (
	"github.com/paulmach/orb"
)

// block is a growable vertex/index list whose indices are local to it.
type block struct {
	vertices []Vertex
	indices  []uint32
}

// append adds geometry translated by offset, rebasing its indices on the
// block's running vertex count.
func (b *block) append(vertices []Vertex, indices []uint32, offset [2]float32) {
	base := uint32(len(b.vertices))
	for _, v := range vertices {
		v.Position[0] += offset[0]
		v.Position[1] += offset[1]
		b.vertices = append(b.vertices, v)
	}
	for _, i := range indices {
		b.indices = append(b.indices, base+i)
	}
}

// meshBuilder accumulates the parts of one mesh. Roofs and walls are kept
// in separate blocks so the finished mesh can draw all roofs with a single
// leading index range.
type meshBuilder struct {
	key       ChunkKey
	dedicated bool
	position  orb.Point
	bounds    orb.Bound
	albedo    [3]float32
	features  int

	roof  block
	walls block
}

func newMeshBuilder(key ChunkKey, position orb.Point, seed Part) *meshBuilder {
	return &meshBuilder{
		key:      key,
		position: position,
		bounds:   seed.Bounds,
		albedo:   seed.Color,
	}
}

// add appends a part, moving it from its own anchor to the mesh position.
func (b *meshBuilder) add(p Part) {
	offset := [2]float32{
		float32(p.Anchor[0] - b.position[0]),
		float32(p.Anchor[1] - b.position[1]),
	}
	b.roof.append(p.Roof, p.RoofIndices, offset)
	b.walls.append(p.Walls, p.WallIndices, offset)

	if b.features > 0 {
		b.bounds = b.bounds.Union(p.Bounds)
	}
	b.features++
}

// finalize concatenates roofs then walls into one interleaved buffer.
func (b *meshBuilder) finalize(layout Layout) Mesh {
	roofCount := uint32(len(b.roof.vertices))
	total := len(b.roof.vertices) + len(b.walls.vertices)

	m := Mesh{
		Vertices:  make([]float32, 0, total*layout.Stride()),
		Indices:   make([]uint32, 0, len(b.roof.indices)+len(b.walls.indices)),
		Layout:    layout,
		Position:  b.position,
		Bounds:    b.bounds,
		Albedo:    b.albedo,
		Chunk:     b.key,
		Dedicated: b.dedicated,
		Features:  b.features,
	}

	m.Vertices = interleave(m.Vertices, b.roof.vertices, layout)
	m.Vertices = interleave(m.Vertices, b.walls.vertices, layout)

	m.Indices = append(m.Indices, b.roof.indices...)
	for _, i := range b.walls.indices {
		m.Indices = append(m.Indices, roofCount+i)
	}

	m.Count2D = len(b.roof.indices)
	m.Count3D = len(m.Indices)

	if layout.HasColor() {
		// Per-vertex colors carry the albedo.
		m.Albedo = [3]float32{1, 1, 1}
	}
	return m
}

func interleave(dst []float32, vertices []Vertex, layout Layout) []float32 {
	for _, v := range vertices {
		dst = append(dst, v.Position[:]...)
		dst = append(dst, v.Normal[:]...)
		if layout.HasColor() {
			dst = append(dst, v.Color[:]...)
		}
	}
	return dst
}
