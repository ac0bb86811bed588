// Package renderer schedules draws of the mesh set: it culls meshes
// against the visible region and issues draw calls on dirty frames only.
package renderer

import (
	"fmt"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/lighting"
	"github.com/Faultbox/citymesh/internal/logger"
	"github.com/Faultbox/citymesh/pkg/math"
)

// CullMode selects how visible meshes are found.
type CullMode int

const (
	// CullLinear tests every mesh against the visible region.
	CullLinear CullMode = iota
	// CullRTree asks an R-tree for candidates and tests only those.
	CullRTree
)

// ParseCullMode parses "linear" or "rtree".
func ParseCullMode(s string) (CullMode, error) {
	switch s {
	case "", "linear":
		return CullLinear, nil
	case "rtree":
		return CullRTree, nil
	}
	return CullLinear, fmt.Errorf("unknown culling mode %q", s)
}

func (m CullMode) String() string {
	if m == CullRTree {
		return "rtree"
	}
	return "linear"
}

// ResourceError reports a mesh the device could not allocate.
type ResourceError struct {
	Mesh int
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("mesh %d: create resource: %v", e.Mesh, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// Options configures a Renderer.
type Options struct {
	Culling CullMode
	Sun     math.Vec3
}

// FrameStats describes one executed frame.
type FrameStats struct {
	Mode       camera.Mode
	Wireframe  bool
	Projection bool // projection matrix uploaded
	View       bool // view matrix uploaded
	Lighting   bool // light uniforms uploaded
	Candidates int  // meshes tested against the visible region
	Drawn      int
	Culled     int // meshes outside the visible region
	Indices    int
}

// drawable is a mesh resident on the device.
type drawable struct {
	handle   Handle
	position orb.Point
	bounds   orb.Bound
	albedo   math.Vec3
	count2D  int
	count3D  int
}

// Renderer owns the viewport and the GPU-resident mesh set. Meshes are
// append-only and drawn in insertion order.
type Renderer struct {
	device   Device
	viewport *camera.Viewport
	culling  CullMode
	sun      math.Vec3

	meshes []drawable
	index  *meshIndex

	log *zap.Logger
}

// New creates a renderer drawing through device.
func New(device Device, viewport *camera.Viewport, opts Options) *Renderer {
	sun := opts.Sun
	if sun == (math.Vec3{}) {
		sun = lighting.DefaultSun
	}
	return &Renderer{
		device:   device,
		viewport: viewport,
		culling:  opts.Culling,
		sun:      sun,
		index:    newMeshIndex(),
		log:      logger.Named("renderer"),
	}
}

// Viewport returns the camera state driven by the input collaborator.
func (r *Renderer) Viewport() *camera.Viewport {
	return r.viewport
}

// Len returns the number of resident meshes.
func (r *Renderer) Len() int {
	return len(r.meshes)
}

// Culling returns the active culling mode.
func (r *Renderer) Culling() CullMode {
	return r.culling
}

// SetSun moves the sun and schedules a lighting upload.
func (r *Renderer) SetSun(sun math.Vec3) {
	r.sun = sun
	r.viewport.MarkLightingUpload()
}

// AddMesh uploads a mesh and makes it part of the drawn set.
func (r *Renderer) AddMesh(m *building.Mesh) error {
	slot := len(r.meshes)

	h, err := r.device.CreateMesh(m.Vertices, m.Indices, m.Layout)
	if err != nil {
		return &ResourceError{Mesh: slot, Err: err}
	}

	if r.culling == CullRTree {
		if err := r.index.insert(slot, m.Bounds); err != nil {
			r.log.Warn("mesh not indexed, culling it linearly", zap.Int("mesh", slot), zap.Error(err))
		}
	}

	r.meshes = append(r.meshes, drawable{
		handle:   h,
		position: m.Position,
		bounds:   m.Bounds,
		albedo:   math.Vec3{X: m.Albedo[0], Y: m.Albedo[1], Z: m.Albedo[2]},
		count2D:  m.Count2D,
		count3D:  m.Count3D,
	})
	r.viewport.MarkRedraw()
	return nil
}

// AddMeshes uploads every mesh. A mesh that fails is logged and skipped;
// the rest of the batch is still uploaded. It returns the number added and
// the failures.
func (r *Renderer) AddMeshes(meshes []building.Mesh) (int, []error) {
	var errs []error
	added := 0
	for i := range meshes {
		if err := r.AddMesh(&meshes[i]); err != nil {
			r.log.Warn("skipping mesh", zap.Int("mesh", i), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		added++
	}

	r.log.Debug("meshes added",
		zap.Int("added", added),
		zap.Int("failed", len(errs)),
		zap.Int("resident", len(r.meshes)))
	return added, errs
}

// Frame runs one frame callback. Nothing is drawn unless a redraw is
// pending; the pending flags are cleared before drawing. It reports
// whether a frame was drawn.
func (r *Renderer) Frame() (FrameStats, bool) {
	v := r.viewport
	if !v.Dirty().NeedsRedraw {
		return FrameStats{}, false
	}
	dirty := v.TakeDirty()

	stats := FrameStats{
		Mode:      v.Mode(),
		Wireframe: v.Wireframe(),
	}

	if dirty.NeedsProjectionUpload {
		r.device.SetMatrix(UniformProjection, v.Projection())
		stats.Projection = true
	}
	if dirty.NeedsViewUpload {
		r.device.SetMatrix(UniformView, v.View())
		stats.View = true
	}
	if dirty.NeedsLightingUpload {
		r.device.SetVec3(UniformSunPosition, r.sun)
		r.device.SetFloat(UniformDiffuseFactor, lighting.DiffuseFactor(r.sun, v.Is3D()))
		stats.Lighting = true
	}

	r.device.Clear(v.Is3D())

	prim := Triangles
	if v.Wireframe() {
		prim = Lines
	}

	draw := func(m *drawable) {
		count := m.count2D
		if v.Is3D() {
			count = m.count3D
		}
		if count == 0 {
			return
		}
		off := v.ModelOffset(m.position)
		r.device.SetMatrix(UniformModel, math.Translate(off.X, off.Y, off.Z))
		r.device.SetVec3(UniformAlbedo, m.albedo)
		r.device.Draw(m.handle, prim, count)
		stats.Drawn++
		stats.Indices += count
	}

	visible := v.Bounds()
	overlapping := 0
	for _, slot := range r.candidates(visible) {
		m := &r.meshes[slot]
		stats.Candidates++
		if !camera.Overlaps(visible, m.bounds) {
			continue
		}
		overlapping++
		draw(m)
	}
	stats.Culled = len(r.meshes) - overlapping
	return stats, true
}

// candidates returns the slots to test against the visible region, in
// insertion order.
func (r *Renderer) candidates(visible orb.Bound) []int {
	if r.culling == CullRTree && r.index.size() == len(r.meshes) {
		return r.index.search(visible)
	}
	slots := make([]int, len(r.meshes))
	for i := range slots {
		slots[i] = i
	}
	return slots
}
