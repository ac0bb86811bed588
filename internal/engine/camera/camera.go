// Package camera owns the viewport state: center, scale, render mode and
// the matrices and visible region derived from them.
package camera

import (
	"fmt"
	gomath "math"
	"strings"

	"github.com/golang/geo/s1"
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/pkg/math"
)

// Mode is the presentation of the mesh set.
type Mode int

const (
	// Mode2D draws roofs only under an orthographic top-down projection.
	Mode2D Mode = iota
	// Mode3D draws extruded buildings under a perspective projection.
	Mode3D
)

func (m Mode) String() string {
	if m == Mode3D {
		return "3D"
	}
	return "2D"
}

// ParseMode parses "2d" or "3d", in either case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "2d":
		return Mode2D, nil
	case "3d":
		return Mode3D, nil
	}
	return Mode2D, fmt.Errorf("unknown render mode %q", s)
}

// Limits bounds the zoom level. Scale is in world units per pixel.
type Limits struct {
	MinScale float64
	MaxScale float64
}

// DefaultLimits returns the zoom range used for city datasets.
func DefaultLimits() Limits {
	return Limits{MinScale: 1e-6, MaxScale: 1e-4}
}

func (l Limits) normalize() Limits {
	d := DefaultLimits()
	if l.MinScale <= 0 {
		l.MinScale = d.MinScale
	}
	if l.MaxScale <= 0 {
		l.MaxScale = d.MaxScale
	}
	if l.MinScale > l.MaxScale {
		l.MinScale, l.MaxScale = l.MaxScale, l.MinScale
	}
	return l
}

// Clamp limits s to the range.
func (l Limits) Clamp(s float64) float64 {
	if gomath.IsNaN(s) {
		return l.MinScale
	}
	return gomath.Max(l.MinScale, gomath.Min(s, l.MaxScale))
}

// DirtyFlags records which pieces of GPU state are stale.
type DirtyFlags struct {
	NeedsRedraw           bool
	NeedsProjectionUpload bool
	NeedsViewUpload       bool
	NeedsLightingUpload   bool
}

// Any reports whether any flag is set.
func (d DirtyFlags) Any() bool {
	return d.NeedsRedraw || d.NeedsProjectionUpload || d.NeedsViewUpload || d.NeedsLightingUpload
}

// 3D camera placement, relative to the viewport height in world units.
const (
	eyeBack    = 0.46
	eyeHeight  = 0.46
	targetBack = 0.2
	nearPlane  = 0.01
	farPlane   = 10
)

// orthoDepth is the half depth of the 2D projection. Roofs sit at
// z = height, so the range covers any plausible extrusion.
const orthoDepth = 1e6

// DefaultFieldOfView is the vertical field of view of the 3D camera.
const DefaultFieldOfView = 70 * s1.Degree

// Viewport is the camera state of a single view. It is owned by one
// goroutine; every setter recomputes derived state and marks it dirty.
//
// Rendering is camera-relative: the view matrix never contains the center.
// Callers translate each mesh by ModelOffset, computed in float64, so world
// coordinates never pass through float32 at full magnitude.
type Viewport struct {
	center    orb.Point
	scale     float64
	mode      Mode
	wireframe bool
	width     int
	height    int
	limits    Limits
	fov       s1.Angle

	half       orb.Point
	bounds     orb.Bound
	projection math.Mat4
	view       math.Mat4

	dirty DirtyFlags
}

// NewViewport creates a 2D viewport of the given pixel size.
func NewViewport(width, height int, scale float64, limits Limits) *Viewport {
	v := &Viewport{
		limits:     limits.normalize(),
		fov:        DefaultFieldOfView,
		projection: math.Identity(),
		view:       math.Identity(),
	}
	v.scale = v.limits.Clamp(scale)
	v.OnResize(width, height)
	v.dirty.NeedsLightingUpload = true
	return v
}

// Center returns the world point at the middle of the screen.
func (v *Viewport) Center() orb.Point { return v.center }

// Scale returns world units per pixel.
func (v *Viewport) Scale() float64 { return v.scale }

// Mode returns the current render mode.
func (v *Viewport) Mode() Mode { return v.mode }

// Is3D reports whether the viewport is in 3D mode.
func (v *Viewport) Is3D() bool { return v.mode == Mode3D }

// Wireframe reports whether meshes are drawn as lines.
func (v *Viewport) Wireframe() bool { return v.wireframe }

// Size returns the viewport size in pixels.
func (v *Viewport) Size() (width, height int) { return v.width, v.height }

// Limits returns the zoom range.
func (v *Viewport) Limits() Limits { return v.limits }

// FieldOfView returns the vertical field of view of the 3D camera.
func (v *Viewport) FieldOfView() s1.Angle { return v.fov }

// HalfExtents returns half the visible width and height in world units.
func (v *Viewport) HalfExtents() orb.Point { return v.half }

// Bounds returns the visible region. In 3D it is the 2D approximation
// around the center, not the frustum footprint.
func (v *Viewport) Bounds() orb.Bound { return v.bounds }

// Projection returns the current projection matrix.
func (v *Viewport) Projection() math.Mat4 { return v.projection }

// View returns the current view matrix.
func (v *Viewport) View() math.Mat4 { return v.view }

// Dirty returns the pending flags without clearing them.
func (v *Viewport) Dirty() DirtyFlags { return v.dirty }

// TakeDirty returns the pending flags and clears them.
func (v *Viewport) TakeDirty() DirtyFlags {
	d := v.dirty
	v.dirty = DirtyFlags{}
	return d
}

// MarkRedraw requests a frame without any matrix upload, e.g. after the
// mesh set changed.
func (v *Viewport) MarkRedraw() {
	v.dirty.NeedsRedraw = true
}

// MarkLightingUpload requests a frame that re-uploads the light uniforms.
func (v *Viewport) MarkLightingUpload() {
	v.dirty.NeedsLightingUpload = true
	v.dirty.NeedsRedraw = true
}

// SetCenter moves the camera.
func (v *Viewport) SetCenter(center orb.Point) {
	v.center = center
	v.updateView()
	v.updateBounds()
	v.dirty.NeedsViewUpload = true
	v.dirty.NeedsRedraw = true
}

// SetScale zooms the camera. The value is clamped to the limits.
func (v *Viewport) SetScale(scale float64) {
	v.scale = v.limits.Clamp(scale)
	v.half = orb.Point{
		float64(v.width) * 0.5 * v.scale,
		float64(v.height) * 0.5 * v.scale,
	}
	v.updateProjection()
	v.updateBounds()
	v.dirty.NeedsProjectionUpload = true
	v.dirty.NeedsRedraw = true

	// The 3D eye distance follows the zoom level.
	if v.mode == Mode3D {
		v.updateView()
		v.dirty.NeedsViewUpload = true
	}
}

// Zoom multiplies the scale by factor.
func (v *Viewport) Zoom(factor float64) {
	v.SetScale(v.scale * factor)
}

// SetFieldOfView changes the 3D field of view, limited to 10..120 degrees.
func (v *Viewport) SetFieldOfView(fov s1.Angle) {
	fov = s1.Angle(gomath.Max(float64(10*s1.Degree), gomath.Min(float64(fov), float64(120*s1.Degree))))
	v.fov = fov
	if v.mode == Mode3D {
		v.updateProjection()
		v.dirty.NeedsProjectionUpload = true
		v.dirty.NeedsRedraw = true
	}
}

// SetMode switches between 2D and 3D.
func (v *Viewport) SetMode(mode Mode) {
	if v.mode == mode {
		return
	}
	v.ToggleRenderMode()
}

// ToggleRenderMode switches between 2D and 3D. Both matrices and the
// lighting parameters change with the mode.
func (v *Viewport) ToggleRenderMode() {
	if v.mode == Mode2D {
		v.mode = Mode3D
	} else {
		v.mode = Mode2D
	}
	v.SetScale(v.scale)
	v.SetCenter(v.center)
	v.dirty.NeedsLightingUpload = true
}

// ToggleWireframe switches between filled and line drawing.
func (v *Viewport) ToggleWireframe() {
	v.wireframe = !v.wireframe
	v.dirty.NeedsRedraw = true
}

// SetWireframe sets line drawing on or off.
func (v *Viewport) SetWireframe(on bool) {
	if v.wireframe != on {
		v.ToggleWireframe()
	}
}

// OnResize updates the pixel size. Sizes below one pixel are raised to one.
func (v *Viewport) OnResize(width, height int) {
	v.width = max(width, 1)
	v.height = max(height, 1)
	v.SetScale(v.scale)
	v.SetCenter(v.center)
}

// ModelOffset returns the translation that places geometry anchored at
// position relative to the camera.
func (v *Viewport) ModelOffset(position orb.Point) math.Vec3 {
	return math.Vec3{
		X: float32(position[0] - v.center[0]),
		Y: float32(position[1] - v.center[1]),
	}
}

// Visible reports whether b overlaps the visible region. Touching edges
// count as overlap.
func (v *Viewport) Visible(b orb.Bound) bool {
	return Overlaps(v.bounds, b)
}

// Overlaps is the axis-aligned overlap test: false if the boxes are
// separated on any axis.
func Overlaps(a, b orb.Bound) bool {
	if a.Min[0] > b.Max[0] || a.Max[0] < b.Min[0] {
		return false
	}
	if a.Min[1] > b.Max[1] || a.Max[1] < b.Min[1] {
		return false
	}
	return true
}

func (v *Viewport) updateBounds() {
	v.bounds = orb.Bound{
		Min: orb.Point{v.center[0] - v.half[0], v.center[1] - v.half[1]},
		Max: orb.Point{v.center[0] + v.half[0], v.center[1] + v.half[1]},
	}
}

func (v *Viewport) updateProjection() {
	if v.mode == Mode3D {
		span := float64(v.height) * v.scale
		v.projection = math.Perspective(
			float32(v.fov.Radians()),
			float32(v.width)/float32(v.height),
			float32(span*nearPlane),
			float32(span*farPlane),
		)
		return
	}

	hx, hy := float32(v.half[0]), float32(v.half[1])
	v.projection = math.Ortho(-hx, hx, -hy, hy, -orthoDepth, orthoDepth)
}

func (v *Viewport) updateView() {
	if v.mode == Mode2D {
		v.view = math.Identity()
		return
	}

	// Trailing camera: behind (south of) and above the center, looking
	// at a point just south of it.
	span := float32(float64(v.height) * v.scale)
	eye := math.Vec3{Y: -span * eyeBack, Z: span * eyeHeight}
	target := math.Vec3{Y: -span * targetBack}
	v.view = math.LookAt(eye, target, math.Up)
}
