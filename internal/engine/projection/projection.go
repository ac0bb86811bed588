// Package projection converts geographic rings into the planar coordinates
// used for meshing.
package projection

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const (
	rad2deg = 180 / math.Pi
	quarter = math.Pi / 4
)

// DomainError reports a coordinate the projection cannot represent:
// a latitude at or beyond a pole, or a non-finite input.
type DomainError struct {
	Ring   int
	Vertex int
	Lon    float64
	Lat    float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("projection: ring %d vertex %d (%g, %g) outside projection domain",
		e.Ring, e.Vertex, e.Lon, e.Lat)
}

// Mercator projects a single lon/lat pair. x is the longitude unchanged and
// y = ln(tan((lat/90 + 1) * π/4)) * 180/π, so both axes are in degree-like
// units. The result is not finite at lat = ±90.
func Mercator(p orb.Point) orb.Point {
	return orb.Point{
		p[0],
		math.Log(math.Tan((p[1]/90+1)*quarter)) * rad2deg,
	}
}

// Valid reports whether p can be projected: a finite longitude of any
// magnitude, since x passes through unchanged, and a latitude strictly
// between the poles.
func Valid(p orb.Point) bool {
	if math.IsNaN(p[0]) || math.IsInf(p[0], 0) {
		return false
	}
	if !s2.LatLngFromDegrees(p[1], 0).IsValid() {
		return false
	}
	return math.Abs(p[1]) < 90
}

// ProjectRing projects every vertex of ring. The ring index is only used
// to annotate errors.
func ProjectRing(ring orb.Ring, index int) (orb.Ring, error) {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		if !Valid(p) {
			return nil, &DomainError{Ring: index, Vertex: i, Lon: p[0], Lat: p[1]}
		}
		q := Mercator(p)
		if math.IsNaN(q[1]) || math.IsInf(q[1], 0) {
			return nil, &DomainError{Ring: index, Vertex: i, Lon: p[0], Lat: p[1]}
		}
		out[i] = q
	}
	return out, nil
}

// ProjectPolygon projects rings in order, outer ring first. The first
// invalid vertex rejects the whole polygon.
func ProjectPolygon(rings []orb.Ring) ([]orb.Ring, error) {
	out := make([]orb.Ring, len(rings))
	for i, r := range rings {
		projected, err := ProjectRing(r, i)
		if err != nil {
			return nil, err
		}
		out[i] = projected
	}
	return out, nil
}
