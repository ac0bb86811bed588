// Package lighting provides the directional sun light shared by all meshes.
package lighting

import (
	gomath "math"

	"github.com/golang/geo/s1"

	"github.com/Faultbox/citymesh/pkg/math"
)

// DefaultSun is the sun position used when none is configured: high in
// the south-east.
var DefaultSun = math.Vec3{X: 0.3, Y: -0.6, Z: 0.9}

// minAmbient is the lowest flat-shading factor used in 2D.
const minAmbient = 0.3

// SunDirection converts an azimuth (degrees clockwise from north) and an
// elevation (degrees above the horizon) into a unit vector pointing
// towards the sun in the Z-up world frame.
func SunDirection(azimuth, elevation float64) math.Vec3 {
	az := (s1.Angle(azimuth) * s1.Degree).Radians()
	el := (s1.Angle(elevation) * s1.Degree).Radians()

	return math.Vec3{
		X: float32(gomath.Cos(el) * gomath.Sin(az)),
		Y: float32(gomath.Cos(el) * gomath.Cos(az)),
		Z: float32(gomath.Sin(el)),
	}
}

// DiffuseFactor returns the diffuseFactor uniform. In 2D only roofs are
// drawn, so the shading is precomputed from the up vector and never drops
// below the ambient floor. In 3D it is -1, telling the shader to compute
// diffuse light per fragment from the normal.
func DiffuseFactor(sun math.Vec3, mode3D bool) float32 {
	if mode3D {
		return -1
	}
	return max(math.Up.Dot(sun), minAmbient)
}
