package building

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/engine/projection"
	"github.com/Faultbox/citymesh/internal/engine/triangulate"
	"github.com/Faultbox/citymesh/internal/logger"
	"github.com/Faultbox/citymesh/pkg/feature"
)

// ErrDegenerate is reported for footprints that triangulate to nothing:
// zero area, collinear or badly self-intersecting rings.
var ErrDegenerate = errors.New("degenerate polygon")

// FeatureError ties a pipeline failure to the feature that caused it.
type FeatureError struct {
	Index int
	ID    string
	Err   error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("feature %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e *FeatureError) Unwrap() error { return e.Err }

// Options configures the meshing pipeline.
type Options struct {
	CellSize       float64 // batching cell size in projected units
	HeightScale    float64 // projected units per floor
	FloorAttribute string
	Anchor         AnchorMode
	Batching       bool
	VertexColors   bool
	Coloring       Coloring
}

// DefaultOptions returns settings suited to city-scale datasets.
func DefaultOptions() Options {
	return Options{
		CellSize:       0.01,
		HeightScale:    0.00004,
		FloorAttribute: "numfloors",
		Anchor:         AnchorPolylabel,
		Batching:       true,
		Coloring:       Flat{Albedo: DefaultColor},
	}
}

// Stats summarizes a pipeline run.
type Stats struct {
	Features   int
	Meshed     int
	Projection int // skipped: latitude outside the projection's domain
	Degenerate int // skipped: no triangles
	Meshes     int
	Chunks     int
	Dedicated  int
	Vertices   int
	Indices    int
}

// Skipped returns the number of features that produced no geometry.
func (s Stats) Skipped() int {
	return s.Projection + s.Degenerate
}

// Result is the output of Build.
type Result struct {
	Meshes []Mesh
	Center orb.Point // center of the anchors' bounding box
	Bounds orb.Bound // union of all mesh bounds
	Stats  Stats
	Errors []error // per-feature failures, all *FeatureError
}

// Build projects, triangulates, extrudes and batches the features into
// meshes. Features that fail are logged, recorded in Result.Errors and
// skipped; the rest of the batch always completes.
func Build(features []feature.Feature, opts Options) Result {
	log := logger.Named("building")

	if opts.CellSize <= 0 {
		opts.CellSize = DefaultOptions().CellSize
	}
	if opts.Coloring == nil {
		opts.Coloring = Flat{Albedo: DefaultColor}
	}

	layout := LayoutPN
	if opts.VertexColors {
		layout = LayoutPNC
	}

	batcher := NewBatcher(opts.CellSize, layout, opts.Batching)
	res := Result{Stats: Stats{Features: len(features)}}

	var anchors orb.Bound
	for i := range features {
		f := &features[i]

		part, err := buildPart(f, opts)
		if err != nil {
			ferr := &FeatureError{Index: i, ID: f.ID, Err: err}
			res.Errors = append(res.Errors, ferr)

			var de *projection.DomainError
			if errors.As(err, &de) {
				res.Stats.Projection++
			} else {
				res.Stats.Degenerate++
			}
			log.Warn("skipping feature",
				zap.Int("feature", i),
				zap.String("id", f.ID),
				zap.Error(err))
			continue
		}

		if res.Stats.Meshed == 0 {
			anchors = orb.Bound{Min: part.Anchor, Max: part.Anchor}
		} else {
			anchors = anchors.Extend(part.Anchor)
		}
		res.Stats.Meshed++

		if batcher.Add(part) && opts.Batching {
			res.Stats.Dedicated++
		}
	}

	res.Stats.Chunks = batcher.Chunks()
	res.Meshes = batcher.Finish()
	res.Stats.Meshes = len(res.Meshes)
	res.Center = anchors.Center()

	for i, m := range res.Meshes {
		if i == 0 {
			res.Bounds = m.Bounds
		} else {
			res.Bounds = res.Bounds.Union(m.Bounds)
		}
		res.Stats.Vertices += m.VertexCount()
		res.Stats.Indices += len(m.Indices)
	}

	log.Debug("meshing complete",
		zap.Int("features", res.Stats.Features),
		zap.Int("meshed", res.Stats.Meshed),
		zap.Int("skipped", res.Stats.Skipped()),
		zap.Int("meshes", res.Stats.Meshes),
		zap.Int("chunks", res.Stats.Chunks),
		zap.Int("vertices", res.Stats.Vertices))

	return res
}

// buildPart runs one feature through projection, triangulation and
// extrusion. Only the first polygon of the feature is used.
func buildPart(f *feature.Feature, opts Options) (Part, error) {
	if len(f.Rings) == 0 {
		return Part{}, ErrDegenerate
	}

	rings, err := projection.ProjectPolygon(f.Rings)
	if err != nil {
		return Part{}, err
	}

	anchor := opts.Anchor.Anchor(rings)
	coords, triangles := triangulate.Polygon(rings, anchor)
	if len(triangles) == 0 {
		return Part{}, ErrDegenerate
	}

	var height float64
	if floors, ok := f.Number(opts.FloorAttribute); ok && floors > 0 {
		height = floors * opts.HeightScale
	}

	color := opts.Coloring.Color(f, anchor)

	part := Part{
		Anchor: anchor,
		Bounds: rings[0].Bound(),
		Color:  color,
	}
	part.Roof, part.RoofIndices = roofGeometry(coords, triangles, height, color)

	if height > 0 {
		outer := make(orb.Ring, len(rings[0]))
		for i, p := range rings[0] {
			outer[i] = orb.Point{p[0] - anchor[0], p[1] - anchor[1]}
		}
		part.Walls, part.WallIndices = wallGeometry(Extrude(outer, height), color)
	}
	return part, nil
}
