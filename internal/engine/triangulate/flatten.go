package triangulate

import (
	"math"

	"github.com/paulmach/orb"
)

// Flatten converts rings into the flat 2D coordinate layout Earcut expects.
// Coordinates are translated by -origin so that triangulation runs in a
// frame local to the polygon. A closing vertex equal to the first one is
// dropped. holes holds the starting vertex index of every ring after the
// first; empty hole rings are skipped.
func Flatten(rings []orb.Ring, origin orb.Point) (coords []float64, holes []int) {
	n := 0
	for _, r := range rings {
		n += len(r)
	}
	coords = make([]float64, 0, n*2)

	count := 0
	for ri, r := range rings {
		r = Open(r)
		if ri > 0 {
			if len(r) == 0 {
				continue
			}
			holes = append(holes, count)
		}
		for _, p := range r {
			coords = append(coords, p[0]-origin[0], p[1]-origin[1])
			count++
		}
	}
	return coords, holes
}

// Open returns the ring without its closing vertex, if it has one.
func Open(r orb.Ring) orb.Ring {
	if len(r) > 1 && r[0].Equal(r[len(r)-1]) {
		return r[:len(r)-1]
	}
	return r
}

// Polygon triangulates an outer ring with optional holes. The returned
// coordinates are relative to origin and indices refer to their vertices.
func Polygon(rings []orb.Ring, origin orb.Point) (coords []float64, indices []int) {
	if len(rings) == 0 {
		return nil, nil
	}
	coords, holes := Flatten(rings, origin)
	return coords, Earcut(coords, holes, 2)
}

// Deviation compares the area of the triangulation with the area of the
// polygon. Zero means the triangulation is exact.
func Deviation(data []float64, holes []int, dim int, triangles []int) float64 {
	outerLen := len(data)
	if len(holes) > 0 {
		outerLen = holes[0] * dim
	}

	polygonArea := math.Abs(ringArea(data, 0, outerLen, dim))
	for i, h := range holes {
		start := h * dim
		end := len(data)
		if i < len(holes)-1 {
			end = holes[i+1] * dim
		}
		polygonArea -= math.Abs(ringArea(data, start, end, dim))
	}

	var trianglesArea float64
	for i := 0; i+2 < len(triangles); i += 3 {
		a := triangles[i] * dim
		b := triangles[i+1] * dim
		c := triangles[i+2] * dim
		trianglesArea += math.Abs(
			(data[a]-data[c])*(data[b+1]-data[a+1]) -
				(data[a]-data[b])*(data[c+1]-data[a+1]))
	}

	if polygonArea == 0 && trianglesArea == 0 {
		return 0
	}
	return math.Abs((trianglesArea - polygonArea) / polygonArea)
}

// ringArea returns twice the signed area of the ring stored in
// data[start:end] (shoelace formula).
func ringArea(data []float64, start, end, dim int) float64 {
	var sum float64
	for i, j := start, end-dim; i < end; i += dim {
		sum += (data[j] - data[i]) * (data[i+1] + data[j+1])
		j = i
	}
	return sum
}
