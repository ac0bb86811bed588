// Package gpu implements the renderer's Device on OpenGL 4.1 core.
package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
	"github.com/Faultbox/citymesh/internal/engine/shader"
	"github.com/Faultbox/citymesh/internal/logger"
	"github.com/Faultbox/citymesh/pkg/math"
)

// Attribute locations fixed by the standard shader.
const (
	attribPosition = 0
	attribNormal   = 1
	attribColor    = 2
)

// mesh holds the GL objects of one uploaded mesh.
type mesh struct {
	vao, vbo, ebo uint32
}

// Swapped out in tests, which run without a GL context.
var (
	deleteVertexArrays = gl.DeleteVertexArrays
	deleteBuffers      = gl.DeleteBuffers
)

// release deletes the objects that were allocated and zeroes m.
func (m *mesh) release() {
	if m.vao != 0 {
		deleteVertexArrays(1, &m.vao)
	}
	if m.vbo != 0 {
		deleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		deleteBuffers(1, &m.ebo)
	}
	*m = mesh{}
}

// Device draws through an OpenGL context. It must be created and used on
// the goroutine that owns the context.
type Device struct {
	program    *shader.Program
	meshes     []mesh
	clearColor [3]float32

	width, height int
}

// Config holds device settings.
type Config struct {
	ClearColor [3]float32
}

// New initializes OpenGL and compiles the standard shader. The GL context
// must already be current.
func New(cfg Config) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.NewStandard()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	program.Use()

	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.ClearColor(cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], 1)

	return &Device{program: program, clearColor: cfg.ClearColor}, nil
}

// Close releases every GL object.
func (d *Device) Close() {
	logger.Info("closing GPU device", zap.Int("meshes", len(d.meshes)))
	for i := range d.meshes {
		d.meshes[i].release()
	}
	d.meshes = nil
	d.program.Delete()
}

// Resize updates the GL viewport to the drawable size in pixels.
func (d *Device) Resize(width, height int) {
	d.width, d.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (d *Device) ReadPixels() (pixels []byte, width, height int) {
	width, height = d.width, d.height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return nil, 0, 0
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// CreateMesh implements renderer.Device.
func (d *Device) CreateMesh(vertices []float32, indices []uint32, layout building.Layout) (renderer.Handle, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return 0, errors.New("empty mesh")
	}

	var m mesh
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)
	if m.vao == 0 || m.vbo == 0 || m.ebo == 0 {
		errCode := gl.GetError()
		m.release()
		return 0, fmt.Errorf("allocate buffers: gl error 0x%x", errCode)
	}

	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(layout.Stride() * 4)
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribPointerWithOffset(attribPosition, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(attribNormal)
	gl.VertexAttribPointerWithOffset(attribNormal, 3, gl.FLOAT, false, stride, 3*4)
	if layout.HasColor() {
		gl.EnableVertexAttribArray(attribColor)
		gl.VertexAttribPointerWithOffset(attribColor, 3, gl.FLOAT, false, stride, 6*4)
	} else {
		gl.DisableVertexAttribArray(attribColor)
	}

	gl.BindVertexArray(0)

	if errCode := gl.GetError(); errCode != gl.NO_ERROR {
		m.release()
		return 0, fmt.Errorf("upload: gl error 0x%x", errCode)
	}

	d.meshes = append(d.meshes, m)
	return renderer.Handle(len(d.meshes)), nil
}

// SetMatrix implements renderer.Device.
func (d *Device) SetMatrix(name string, m math.Mat4) {
	gl.UniformMatrix4fv(d.program.Uniform(name), 1, false, m.Ptr())
}

// SetVec3 implements renderer.Device.
func (d *Device) SetVec3(name string, v math.Vec3) {
	gl.Uniform3f(d.program.Uniform(name), v.X, v.Y, v.Z)
}

// SetFloat implements renderer.Device.
func (d *Device) SetFloat(name string, f float32) {
	gl.Uniform1f(d.program.Uniform(name), f)
}

// Clear implements renderer.Device.
func (d *Device) Clear(depth bool) {
	if depth {
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		gl.Enable(gl.DEPTH_TEST)
		return
	}
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Disable(gl.DEPTH_TEST)
}

// Draw implements renderer.Device. Lines draws the triangle edges by
// switching the polygon mode.
func (d *Device) Draw(h renderer.Handle, prim renderer.Primitive, count int) {
	i := int(h) - 1
	if i < 0 || i >= len(d.meshes) {
		return
	}

	if prim == renderer.Lines {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	// Meshes without a color attribute are tinted by albedo only.
	gl.VertexAttrib3f(attribColor, 1, 1, 1)

	gl.BindVertexArray(d.meshes[i].vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}
