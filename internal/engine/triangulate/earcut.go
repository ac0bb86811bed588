// Package triangulate turns planar polygons with holes into triangle index
// lists by ear clipping.
//
// The triangulator never fails: self-intersecting, collinear or zero-area
// input yields fewer (possibly zero) triangles instead of an error.
package triangulate

import (
	"fmt"

	"github.com/rclancey/earcut"
)

// Earcut triangulates a polygon given as flat coordinates. holes holds the
// vertex index at which each hole ring starts and dim is the number of
// coordinates per vertex (only the first two are used). The result lists
// three vertex indices per triangle, counter-clockwise in a y-up frame.
// Input the ear clipper rejects yields no triangles.
func Earcut(data []float64, holes []int, dim int) []int {
	triangles, err := clip(data, holes, dim)
	if err != nil {
		return nil
	}
	return triangles
}

// clip runs the ear clipper and normalizes the winding of its output.
func clip(data []float64, holes []int, dim int) (triangles []int, err error) {
	if dim < 2 {
		dim = 2
	}
	outerLen := len(data)
	if len(holes) > 0 {
		outerLen = holes[0] * dim
	}
	if outerLen < 3*dim || len(data)%dim != 0 {
		return nil, fmt.Errorf("outer ring has %d coordinates, need 3 vertices", outerLen)
	}

	defer func() {
		if r := recover(); r != nil {
			triangles, err = nil, fmt.Errorf("earcut: %v", r)
		}
	}()

	triangles, err = earcut.Earcut(data, holes, dim)
	if err != nil {
		return nil, err
	}
	if len(triangles)%3 != 0 {
		return nil, fmt.Errorf("earcut returned %d indices, not a multiple of 3", len(triangles))
	}

	for i := 0; i < len(triangles); i += 3 {
		a, b, c := triangles[i]*dim, triangles[i+1]*dim, triangles[i+2]*dim
		cross := (data[b]-data[a])*(data[c+1]-data[a+1]) - (data[b+1]-data[a+1])*(data[c]-data[a])
		if cross < 0 {
			triangles[i+1], triangles[i+2] = triangles[i+2], triangles[i+1]
		}
	}
	return triangles, nil
}
