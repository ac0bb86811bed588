package building

import (
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/internal/engine/triangulate"
	"github.com/Faultbox/citymesh/pkg/math"
)

// Wall is one vertical quad of an extruded footprint. Corners are ordered
// bottom-start, bottom-end, top-end, top-start, counter-clockwise when seen
// from the side Normal points to.
type Wall struct {
	Corners [4][3]float32
	Normal  [3]float32
}

// quadIndices splits a wall into two triangles.
var quadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// Extrude builds one wall per edge of the ring, including the closing edge
// from the last vertex back to the first. The ring is expected in a local
// frame (relative to the anchor). Zero-length edges produce no wall and a
// ring with fewer than two points produces none at all. Normals point away
// from the footprint regardless of the ring's winding.
func Extrude(ring orb.Ring, height float64) []Wall {
	ring = triangulate.Open(ring)
	if len(ring) < 2 {
		return nil
	}

	if ring.Orientation() == orb.CW {
		rev := make(orb.Ring, len(ring))
		for i, p := range ring {
			rev[len(ring)-1-i] = p
		}
		ring = rev
	}

	h := float32(height)
	walls := make([]Wall, 0, len(ring))
	for i := range ring {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		if a.Equal(b) {
			continue
		}

		edge := math.Vec3{X: float32(b[0] - a[0]), Y: float32(b[1] - a[1])}
		n := edge.Cross(math.Up).Normalize()
		if n.Length() == 0 {
			// Edge vanished in float32.
			continue
		}

		ax, ay := float32(a[0]), float32(a[1])
		bx, by := float32(b[0]), float32(b[1])
		walls = append(walls, Wall{
			Corners: [4][3]float32{
				{ax, ay, 0},
				{bx, by, 0},
				{bx, by, h},
				{ax, ay, h},
			},
			Normal: n.Array(),
		})
	}
	return walls
}

// wallGeometry flattens walls into vertices and indices local to the block.
func wallGeometry(walls []Wall, color [3]float32) ([]Vertex, []uint32) {
	vertices := make([]Vertex, 0, len(walls)*4)
	indices := make([]uint32, 0, len(walls)*6)
	for _, w := range walls {
		base := uint32(len(vertices))
		for _, c := range w.Corners {
			vertices = append(vertices, Vertex{Position: c, Normal: w.Normal, Color: color})
		}
		for _, i := range quadIndices {
			indices = append(indices, base+i)
		}
	}
	return vertices, indices
}

// roofGeometry builds the flat roof at the given height from a triangulated
// footprint. coords are 2D and relative to the anchor.
func roofGeometry(coords []float64, triangles []int, height float64, color [3]float32) ([]Vertex, []uint32) {
	up := math.Up.Array()
	z := float32(height)

	vertices := make([]Vertex, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		vertices = append(vertices, Vertex{
			Position: [3]float32{float32(coords[i]), float32(coords[i+1]), z},
			Normal:   up,
			Color:    color,
		})
	}

	indices := make([]uint32, len(triangles))
	for i, t := range triangles {
		indices[i] = uint32(t)
	}
	return vertices, indices
}
