// Package feature defines the polygon features fed into the meshing pipeline
// and decodes them from GeoJSON and WKB.
package feature

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Feature is one building footprint in geographic coordinates.
// Rings[0] is the outer boundary, the remaining rings are holes.
// A Feature is treated as immutable once decoded.
type Feature struct {
	ID         string
	Rings      []orb.Ring
	Attributes map[string]any
}

// Outer returns the outer ring, or nil if the feature has no rings.
func (f *Feature) Outer() orb.Ring {
	if len(f.Rings) == 0 {
		return nil
	}
	return f.Rings[0]
}

// Number returns a numeric attribute. Numeric strings are parsed, so
// datasets that export counts as text ("5") still work.
func (f *Feature) Number(key string) (float64, bool) {
	v, ok := f.Attributes[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Text returns an attribute formatted as a string.
func (f *Feature) Text(key string) (string, bool) {
	v, ok := f.Attributes[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// VertexCount returns the number of vertices over all rings.
func (f *Feature) VertexCount() int {
	n := 0
	for _, r := range f.Rings {
		n += len(r)
	}
	return n
}

// fromGeometry extracts the rings of the first polygon of g.
// Only Polygon and MultiPolygon geometries carry rings.
func fromGeometry(g orb.Geometry) ([]orb.Ring, bool) {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return nil, false
		}
		return geom, true
	case orb.MultiPolygon:
		// Only the first polygon is meshed.
		if len(geom) == 0 || len(geom[0]) == 0 {
			return nil, false
		}
		return geom[0], true
	case orb.Ring:
		return []orb.Ring{geom}, true
	default:
		return nil, false
	}
}
