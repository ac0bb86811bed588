package renderer

import (
	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/pkg/math"
)

// Handle identifies a mesh resource on a Device.
type Handle uint32

// Primitive selects how indexed geometry is rasterized.
type Primitive int

const (
	// Triangles fills every triangle.
	Triangles Primitive = iota
	// Lines draws triangle edges only.
	Lines
)

func (p Primitive) String() string {
	if p == Lines {
		return "lines"
	}
	return "triangles"
}

// Uniform names understood by every Device.
const (
	UniformProjection    = "projection"
	UniformView          = "view"
	UniformModel         = "model"
	UniformAlbedo        = "albedo"
	UniformSunPosition   = "sunPosition"
	UniformDiffuseFactor = "diffuseFactor"
)

// Device is the GPU resource layer the scheduler draws through. Calls are
// made from the rendering goroutine only and are assumed to complete
// synchronously.
type Device interface {
	// CreateMesh uploads interleaved vertex data and 32-bit indices.
	CreateMesh(vertices []float32, indices []uint32, layout building.Layout) (Handle, error)

	SetMatrix(name string, m math.Mat4)
	SetVec3(name string, v math.Vec3)
	SetFloat(name string, f float32)

	// Clear starts a frame. With depth set the depth buffer is cleared and
	// depth testing enabled; otherwise geometry is drawn in call order.
	Clear(depth bool)

	// Draw issues an indexed draw of the first count indices.
	Draw(h Handle, prim Primitive, count int)
}
