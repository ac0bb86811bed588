package termview

import (
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
)

var white = colorful.Color{R: 1, G: 1, B: 1}

// quadMesh is a flat square of side 2*half centered on pos.
func quadMesh(pos orb.Point, half float32, albedo [3]float32) building.Mesh {
	return building.Mesh{
		Vertices: []float32{
			-half, -half, 0, 0, 0, 1,
			half, -half, 0, 0, 0, 1,
			half, half, 0, 0, 0, 1,
			-half, half, 0, 0, 0, 1,
		},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		Layout:   building.LayoutPN,
		Count2D:  6,
		Count3D:  6,
		Position: pos,
		Bounds: orb.Bound{
			Min: orb.Point{pos[0] - float64(half), pos[1] - float64(half)},
			Max: orb.Point{pos[0] + float64(half), pos[1] + float64(half)},
		},
		Albedo: albedo,
	}
}

// newScene renders onto a 40x20 pixel canvas at scale 0.1, so the view
// spans 4x2 world units around center.
func newScene(t *testing.T, center orb.Point, meshes ...building.Mesh) (*Canvas, *renderer.Renderer) {
	t.Helper()
	c := NewCanvas(40, 10, white)
	w, h := c.PixelSize()
	vp := camera.NewViewport(w, h, 0.1, camera.Limits{MinScale: 0.001, MaxScale: 1})
	vp.SetCenter(center)
	r := renderer.New(c, vp, renderer.Options{})
	if _, errs := r.AddMeshes(meshes); len(errs) > 0 {
		t.Fatalf("AddMeshes: %v", errs)
	}
	return c, r
}

func near(a, b colorful.Color) bool {
	return a.DistanceRgb(b) < 1e-3
}

func TestCanvasFlatQuad(t *testing.T) {
	center := orb.Point{10, 20}
	c, r := newScene(t, center, quadMesh(center, 0.5, [3]float32{1, 0, 0}))

	if _, drawn := r.Frame(); !drawn {
		t.Fatal("first frame was not drawn")
	}

	// The default sun gives a flat 2D diffuse factor of 0.9.
	want := colorful.Color{R: 0.9}
	if got := c.At(20, 10); !near(got, want) {
		t.Errorf("center pixel = %v, want %v", got, want)
	}
	if got := c.At(0, 0); got != white {
		t.Errorf("corner pixel = %v, want clear color", got)
	}

	// A unit square at 0.1 units per pixel covers about 10x10 pixels.
	if n := c.Covered(); n < 81 || n > 121 {
		t.Errorf("covered %d pixels, want about 100", n)
	}
}

func TestCanvasTallRoof(t *testing.T) {
	center := orb.Point{10, 20}
	m := quadMesh(center, 0.5, [3]float32{1, 0, 0})
	// Five floors at a height scale of 0.5.
	for i := 2; i < len(m.Vertices); i += 6 {
		m.Vertices[i] = 2.5
	}
	c, r := newScene(t, center, m)

	if _, drawn := r.Frame(); !drawn {
		t.Fatal("first frame was not drawn")
	}
	if n := c.Covered(); n < 81 || n > 121 {
		t.Errorf("roof at z=2.5 covered %d pixels, want about 100", n)
	}
}

func TestCanvasCulledMeshIsNotDrawn(t *testing.T) {
	c, r := newScene(t, orb.Point{0, 0}, quadMesh(orb.Point{50, 50}, 0.5, [3]float32{1, 0, 0}))

	stats, _ := r.Frame()
	if stats.Drawn != 0 || stats.Culled != 1 {
		t.Errorf("stats = %+v, want the mesh culled", stats)
	}
	if c.Draws != 0 || c.Covered() != 0 {
		t.Errorf("draws = %d, covered = %d", c.Draws, c.Covered())
	}
}

func TestCanvasPanMovesGeometry(t *testing.T) {
	center := orb.Point{0, 0}
	c, r := newScene(t, center, quadMesh(center, 0.5, [3]float32{0, 0, 1}))
	r.Frame()
	before := c.At(20, 10)

	// Shift the camera one world unit east: the square moves 10 pixels left.
	r.Viewport().SetCenter(orb.Point{1, 0})
	r.Frame()

	if got := c.At(20, 10); got != white {
		t.Errorf("old position still drawn: %v", got)
	}
	if got := c.At(10, 10); got != before {
		t.Errorf("new position = %v, want %v", got, before)
	}
}

func TestCanvasWireframe(t *testing.T) {
	center := orb.Point{0, 0}
	c, r := newScene(t, center, quadMesh(center, 0.8, [3]float32{0, 1, 0}))
	r.Viewport().ToggleWireframe()
	r.Frame()

	filled := 16 * 16
	if n := c.Covered(); n == 0 || n >= filled {
		t.Errorf("wireframe covered %d pixels, want only edges", n)
	}
	// Off the edges and the diagonal the interior stays clear.
	if got := c.At(24, 12); got != white {
		t.Errorf("interior pixel = %v, want clear", got)
	}
}

func TestCanvas3DDrawsWithDepth(t *testing.T) {
	center := orb.Point{0, 0}
	c, r := newScene(t, center, quadMesh(center, 0.5, [3]float32{1, 1, 1}))
	r.Viewport().ToggleRenderMode()
	stats, _ := r.Frame()

	if stats.Drawn != 1 {
		t.Fatalf("drawn = %d, want 1", stats.Drawn)
	}
	if !c.depthTest {
		t.Error("3D frame did not enable depth testing")
	}
	if c.Covered() == 0 {
		t.Error("3D frame covered no pixels")
	}
}

func TestCanvasBackFacesCulled(t *testing.T) {
	center := orb.Point{0, 0}
	m := quadMesh(center, 0.5, [3]float32{1, 0, 0})
	m.Indices = []uint32{0, 2, 1, 0, 3, 2}
	c, r := newScene(t, center, m)
	r.Frame()

	if n := c.Covered(); n != 0 {
		t.Errorf("clockwise quad covered %d pixels, want 0", n)
	}
}

func TestCanvasCreateMeshValidates(t *testing.T) {
	c := NewCanvas(4, 4, white)
	if _, err := c.CreateMesh([]float32{1, 2, 3}, nil, building.LayoutPN); err == nil {
		t.Error("expected error for a partial vertex")
	}
	if _, err := c.CreateMesh(make([]float32, 6), []uint32{0, 1, 0}, building.LayoutPN); err == nil {
		t.Error("expected error for an out of range index")
	}
	h, err := c.CreateMesh(make([]float32, 18), []uint32{0, 1, 2}, building.LayoutPN)
	if err != nil || h == 0 {
		t.Errorf("CreateMesh = %v, %v", h, err)
	}
}

func TestCanvasRender(t *testing.T) {
	c := NewCanvas(5, 3, white)
	lines := strings.Split(c.Render(), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d rows, want 3", len(lines))
	}
	for i, l := range lines {
		if n := strings.Count(l, halfBlock); n != 5 {
			t.Errorf("row %d has %d cells, want 5", i, n)
		}
	}
}

func TestClipSegment(t *testing.T) {
	a := screenVertex{x: -10, y: 5, z: 0}
	b := screenVertex{x: 30, y: 5, z: 1}
	ca, cb, ok := clipSegment(a, b, 20, 10)
	if !ok {
		t.Fatal("segment crossing the canvas was rejected")
	}
	if ca.x != 0 || cb.x != 20 {
		t.Errorf("clipped x = %g..%g, want 0..20", ca.x, cb.x)
	}
	if ca.z != 0.25 {
		t.Errorf("clipped z = %g, want 0.25", ca.z)
	}

	if _, _, ok := clipSegment(screenVertex{x: -5, y: -5}, screenVertex{x: -1, y: -1}, 20, 10); ok {
		t.Error("segment outside the canvas was accepted")
	}
}

func TestCanvasImage(t *testing.T) {
	center := orb.Point{0, 0}
	c, r := newScene(t, center, quadMesh(center, 0.5, [3]float32{1, 0, 0}))
	r.Frame()

	img := c.Image()
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("image size = %v, want 40x20", b)
	}
	if got := img.RGBAAt(0, 0); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("corner = %v, want white", got)
	}
	if got := img.RGBAAt(20, 10); got.R < 220 || got.G != 0 || got.B != 0 {
		t.Errorf("center = %v, want shaded red", got)
	}
}
