package feature

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoPolygon is returned when a geometry has no polygon rings.
var ErrNoPolygon = errors.New("geometry is not a polygon")

// DecodeGeoJSON decodes a FeatureCollection. Features whose geometry is
// not a Polygon or MultiPolygon are dropped; the number dropped is returned.
func DecodeGeoJSON(data []byte) ([]Feature, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("decoding feature collection: %w", err)
	}

	features := make([]Feature, 0, len(fc.Features))
	dropped := 0
	for i, f := range fc.Features {
		rings, ok := fromGeometry(f.Geometry)
		if !ok {
			dropped++
			continue
		}

		id := fmt.Sprint(i)
		if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}

		features = append(features, Feature{
			ID:         id,
			Rings:      rings,
			Attributes: map[string]any(f.Properties),
		})
	}
	return features, dropped, nil
}

// DecodeWKB decodes a single WKB polygon into a feature with the given
// attributes.
func DecodeWKB(id string, data []byte, attrs map[string]any) (Feature, error) {
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return Feature{}, fmt.Errorf("decoding wkb: %w", err)
	}
	rings, ok := fromGeometry(g)
	if !ok {
		return Feature{}, fmt.Errorf("feature %s: %w (got %s)", id, ErrNoPolygon, g.GeoJSONType())
	}
	return Feature{ID: id, Rings: rings, Attributes: attrs}, nil
}
