// Package termview renders the mesh set in a terminal. A software
// rasterizer stands in for the GPU and a bubbletea program drives the
// frame loop.
package termview

import (
	"fmt"
	"image"
	"image/color"
	gomath "math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
	"github.com/Faultbox/citymesh/pkg/math"
)

// halfBlock shows two vertically stacked pixels per cell: the foreground
// paints the top half, the background the bottom half.
const halfBlock = "▀"

// minDiffuse matches the ambient floor of the GPU shader.
const minDiffuse = 0.3

type softMesh struct {
	vertices []float32
	indices  []uint32
	layout   building.Layout
}

// screenVertex is a vertex after projection, in pixel coordinates.
type screenVertex struct {
	x, y, z float64
}

// Canvas is a software renderer.Device drawing into a pixel grid twice as
// tall as the terminal cell grid.
type Canvas struct {
	cols, rows    int
	width, height int

	clear     colorful.Color
	pixel     []colorful.Color
	depth     []float64
	depthTest bool

	meshes []softMesh

	projection math.Mat4
	view       math.Mat4
	model      math.Mat4
	albedo     math.Vec3
	sun        math.Vec3
	diffuse    float32

	// Draws counts draw calls since the last Clear.
	Draws int
}

// NewCanvas creates a canvas covering cols x rows terminal cells.
func NewCanvas(cols, rows int, clear colorful.Color) *Canvas {
	c := &Canvas{
		clear:      clear,
		projection: math.Identity(),
		view:       math.Identity(),
		model:      math.Identity(),
		albedo:     math.Vec3{X: 1, Y: 1, Z: 1},
		diffuse:    1,
	}
	c.Resize(cols, rows)
	return c
}

// Resize changes the cell grid and clears the pixels.
func (c *Canvas) Resize(cols, rows int) {
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	c.width, c.height = c.cols, c.rows*2
	c.pixel = make([]colorful.Color, c.width*c.height)
	c.depth = make([]float64, c.width*c.height)
	c.Clear(false)
}

// PixelSize returns the drawable size in pixels.
func (c *Canvas) PixelSize() (width, height int) {
	return c.width, c.height
}

// At returns the pixel at (x, y), origin top left.
func (c *Canvas) At(x, y int) colorful.Color {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return c.clear
	}
	return c.pixel[y*c.width+x]
}

// Covered counts the pixels that differ from the clear color.
func (c *Canvas) Covered() int {
	n := 0
	for _, p := range c.pixel {
		if p != c.clear {
			n++
		}
	}
	return n
}

// Image copies the pixels into an RGBA image.
func (c *Canvas) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			r, g, b := c.pixel[y*c.width+x].Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// CreateMesh keeps a copy of the geometry.
func (c *Canvas) CreateMesh(vertices []float32, indices []uint32, layout building.Layout) (renderer.Handle, error) {
	if len(vertices)%layout.Stride() != 0 {
		return 0, fmt.Errorf("vertex data length %d is not a multiple of stride %d", len(vertices), layout.Stride())
	}
	n := uint32(len(vertices) / layout.Stride())
	for _, idx := range indices {
		if idx >= n {
			return 0, fmt.Errorf("index %d out of range for %d vertices", idx, n)
		}
	}
	c.meshes = append(c.meshes, softMesh{
		vertices: append([]float32(nil), vertices...),
		indices:  append([]uint32(nil), indices...),
		layout:   layout,
	})
	return renderer.Handle(len(c.meshes)), nil
}

func (c *Canvas) SetMatrix(name string, m math.Mat4) {
	switch name {
	case renderer.UniformProjection:
		c.projection = m
	case renderer.UniformView:
		c.view = m
	case renderer.UniformModel:
		c.model = m
	}
}

func (c *Canvas) SetVec3(name string, v math.Vec3) {
	switch name {
	case renderer.UniformAlbedo:
		c.albedo = v
	case renderer.UniformSunPosition:
		c.sun = v
	}
}

func (c *Canvas) SetFloat(name string, f float32) {
	if name == renderer.UniformDiffuseFactor {
		c.diffuse = f
	}
}

// Clear fills the canvas with the clear color and resets depth.
func (c *Canvas) Clear(depth bool) {
	for i := range c.pixel {
		c.pixel[i] = c.clear
		c.depth[i] = gomath.Inf(1)
	}
	c.depthTest = depth
	c.Draws = 0
}

// Draw rasterizes the first count indices of the mesh. Back faces are
// culled like the GPU path.
func (c *Canvas) Draw(h renderer.Handle, prim renderer.Primitive, count int) {
	if h == 0 || int(h) > len(c.meshes) {
		return
	}
	m := &c.meshes[h-1]
	count = min(count, len(m.indices))
	c.Draws++

	mvp := c.projection.Mul(c.view).Mul(c.model)
	stride := m.layout.Stride()

	for i := 0; i+2 < count; i += 3 {
		var sv [3]screenVertex
		visible := true
		for k := 0; k < 3; k++ {
			base := int(m.indices[i+k]) * stride
			p := m.vertices[base : base+3]
			clip := mvp.MulVec4(math.Vec4{p[0], p[1], p[2], 1})
			if clip[3] <= 1e-6 {
				visible = false
				break
			}
			sv[k] = c.toScreen(clip)
		}
		if !visible {
			continue
		}

		// Screen y grows downwards, so front faces wind clockwise here.
		if edge(sv[0], sv[1], sv[2]) >= 0 {
			continue
		}

		base := int(m.indices[i]) * stride
		color := c.shade(m.vertices[base:base+stride], m.layout)

		if prim == renderer.Lines {
			c.line(sv[0], sv[1], color)
			c.line(sv[1], sv[2], color)
			c.line(sv[2], sv[0], color)
			continue
		}
		c.fill(sv, color)
	}
}

func (c *Canvas) toScreen(clip math.Vec4) screenVertex {
	w := float64(clip[3])
	return screenVertex{
		x: (float64(clip[0])/w + 1) * 0.5 * float64(c.width),
		y: (1 - float64(clip[1])/w) * 0.5 * float64(c.height),
		z: float64(clip[2]) / w,
	}
}

// shade applies the same lighting as the fragment shader, once per
// triangle.
func (c *Canvas) shade(v []float32, layout building.Layout) colorful.Color {
	diffuse := float64(c.diffuse)
	if diffuse < 0 {
		n := math.Vec3{X: v[3], Y: v[4], Z: v[5]}.Normalize()
		diffuse = gomath.Max(float64(n.Dot(c.sun.Normalize())), minDiffuse)
	}
	tint := [3]float64{1, 1, 1}
	if layout.HasColor() {
		tint = [3]float64{float64(v[6]), float64(v[7]), float64(v[8])}
	}
	return colorful.Color{
		R: float64(c.albedo.X) * tint[0] * diffuse,
		G: float64(c.albedo.Y) * tint[1] * diffuse,
		B: float64(c.albedo.Z) * tint[2] * diffuse,
	}.Clamped()
}

func edge(a, b, p screenVertex) float64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

func (c *Canvas) fill(sv [3]screenVertex, color colorful.Color) {
	area := edge(sv[0], sv[1], sv[2])
	if area == 0 {
		return
	}

	minX := max(int(gomath.Floor(gomath.Min(sv[0].x, gomath.Min(sv[1].x, sv[2].x)))), 0)
	maxX := min(int(gomath.Ceil(gomath.Max(sv[0].x, gomath.Max(sv[1].x, sv[2].x)))), c.width-1)
	minY := max(int(gomath.Floor(gomath.Min(sv[0].y, gomath.Min(sv[1].y, sv[2].y)))), 0)
	maxY := min(int(gomath.Ceil(gomath.Max(sv[0].y, gomath.Max(sv[1].y, sv[2].y)))), c.height-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := screenVertex{x: float64(x) + 0.5, y: float64(y) + 0.5}
			w0 := edge(sv[1], sv[2], p) / area
			w1 := edge(sv[2], sv[0], p) / area
			w2 := edge(sv[0], sv[1], p) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			c.plot(x, y, w0*sv[0].z+w1*sv[1].z+w2*sv[2].z, color)
		}
	}
}

// line draws a segment with Bresenham's algorithm, interpolating depth.
func (c *Canvas) line(a, b screenVertex, color colorful.Color) {
	a, b, ok := clipSegment(a, b, float64(c.width), float64(c.height))
	if !ok {
		return
	}
	x0, y0 := int(gomath.Floor(a.x)), int(gomath.Floor(a.y))
	x1, y1 := int(gomath.Floor(b.x)), int(gomath.Floor(b.y))

	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	steps := max(dx, -dy)
	err := dx + dy
	for step := 0; ; step++ {
		t := 0.0
		if steps > 0 {
			t = float64(step) / float64(steps)
		}
		c.plot(x0, y0, a.z+(b.z-a.z)*t, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) plot(x, y int, z float64, color colorful.Color) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	if z < -1 || z > 1 {
		return
	}
	i := y*c.width + x
	if c.depthTest {
		if z >= c.depth[i] {
			return
		}
		c.depth[i] = z
	}
	c.pixel[i] = color
}

// Render returns the canvas as rows of half-block cells.
func (c *Canvas) Render() string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		top := c.pixel[row*2*c.width : (row*2+1)*c.width]
		bottom := c.pixel[(row*2+1)*c.width : (row*2+2)*c.width]
		// Consecutive cells with the same colors share one style.
		for x := 0; x < c.cols; {
			run := 1
			for x+run < c.cols && top[x+run] == top[x] && bottom[x+run] == bottom[x] {
				run++
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top[x].Hex())).
				Background(lipgloss.Color(bottom[x].Hex()))
			b.WriteString(style.Render(strings.Repeat(halfBlock, run)))
			x += run
		}
	}
	return b.String()
}

// clipSegment clips ab to the rectangle [0,w]x[0,h] (Liang-Barsky).
func clipSegment(a, b screenVertex, w, h float64) (screenVertex, screenVertex, bool) {
	dx, dy := b.x-a.x, b.y-a.y
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{{-dx, a.x}, {dx, w - a.x}, {-dy, a.y}, {dy, h - a.y}} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			t0 = gomath.Max(t0, r)
		} else {
			t1 = gomath.Min(t1, r)
		}
		if t0 > t1 {
			return a, b, false
		}
	}
	at := func(t float64) screenVertex {
		return screenVertex{x: a.x + dx*t, y: a.y + dy*t, z: a.z + (b.z-a.z)*t}
	}
	return at(t0), at(t1), true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
