// Package config handles application configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/lighting"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
)

// Config holds all application settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Data     DataConfig     `yaml:"data"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Camera   CameraConfig   `yaml:"camera"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"`
}

// DataConfig holds the feature source settings.
type DataConfig struct {
	Path        string `yaml:"path"`         // GeoJSON FeatureCollection
	MaxFeatures int    `yaml:"max_features"` // 0 reads everything
}

// PipelineConfig holds meshing settings.
type PipelineConfig struct {
	CellSize       float64        `yaml:"cell_size"`
	HeightScale    float64        `yaml:"height_scale"`
	FloorAttribute string         `yaml:"floor_attribute"`
	Anchor         string         `yaml:"anchor"` // polylabel or bounds
	Batching       bool           `yaml:"batching"`
	VertexColors   bool           `yaml:"vertex_colors"`
	Coloring       ColoringConfig `yaml:"coloring"`
}

// ColoringConfig selects how buildings are colored.
type ColoringConfig struct {
	Strategy  string  `yaml:"strategy"` // flat, floors or noise
	Color     string  `yaml:"color"`
	Low       string  `yaml:"low"`
	High      string  `yaml:"high"`
	MaxFloors float64 `yaml:"max_floors"`
	Seed      uint64  `yaml:"seed"`
}

// CameraConfig holds the initial viewport state.
type CameraConfig struct {
	Scale      float64 `yaml:"scale"` // world units per pixel
	MinScale   float64 `yaml:"min_scale"`
	MaxScale   float64 `yaml:"max_scale"`
	Mode       string  `yaml:"mode"` // 2d or 3d
	FOVDegrees float64 `yaml:"fov_degrees"`
}

// RenderConfig holds draw scheduler settings.
type RenderConfig struct {
	Culling     string     `yaml:"culling"` // linear or rtree
	Wireframe   bool       `yaml:"wireframe"`
	ClearColor  [3]float32 `yaml:"clear_color,flow"`
	Sun         *SunConfig `yaml:"sun,omitempty"`
	Screenshots string     `yaml:"screenshots"` // capture directory
}

// SunConfig places the sun. Without it the default sun is used.
type SunConfig struct {
	Azimuth   float64 `yaml:"azimuth"`
	Elevation float64 `yaml:"elevation"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	pipeline := building.DefaultOptions()
	limits := camera.DefaultLimits()

	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Samples:    4,
		},
		Data: DataConfig{
			Path: "buildings.geojson",
		},
		Pipeline: PipelineConfig{
			CellSize:       pipeline.CellSize,
			HeightScale:    pipeline.HeightScale,
			FloorAttribute: pipeline.FloorAttribute,
			Anchor:         pipeline.Anchor.String(),
			Batching:       pipeline.Batching,
			Coloring: ColoringConfig{
				Strategy:  "flat",
				Color:     building.DefaultColor.Hex(),
				Low:       "#d9d2c5",
				High:      "#3b5b92",
				MaxFloors: 40,
			},
		},
		Camera: CameraConfig{
			Scale:      1e-5,
			MinScale:   limits.MinScale,
			MaxScale:   limits.MaxScale,
			Mode:       camera.Mode2D.String(),
			FOVDegrees: camera.DefaultFieldOfView.Degrees(),
		},
		Render: RenderConfig{
			Culling:     renderer.CullLinear.String(),
			ClearColor:  [3]float32{0.9, 0.9, 0.9},
			Screenshots: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate normalizes out-of-range values in place and returns a
// description of every correction made.
func (c *Config) Validate() []string {
	var fixes []string
	fix := func(format string, args ...any) {
		fixes = append(fixes, fmt.Sprintf(format, args...))
	}
	def := Default()

	if c.Graphics.Width < 1 {
		fix("graphics.width %d reset to %d", c.Graphics.Width, def.Graphics.Width)
		c.Graphics.Width = def.Graphics.Width
	}
	if c.Graphics.Height < 1 {
		fix("graphics.height %d reset to %d", c.Graphics.Height, def.Graphics.Height)
		c.Graphics.Height = def.Graphics.Height
	}
	if c.Graphics.Samples < 0 {
		fix("graphics.samples %d reset to 0", c.Graphics.Samples)
		c.Graphics.Samples = 0
	}
	if c.Data.MaxFeatures < 0 {
		fix("data.max_features %d reset to 0", c.Data.MaxFeatures)
		c.Data.MaxFeatures = 0
	}

	p := &c.Pipeline
	if p.CellSize <= 0 {
		fix("pipeline.cell_size %g reset to %g", p.CellSize, def.Pipeline.CellSize)
		p.CellSize = def.Pipeline.CellSize
	}
	if p.HeightScale < 0 {
		fix("pipeline.height_scale %g reset to %g", p.HeightScale, def.Pipeline.HeightScale)
		p.HeightScale = def.Pipeline.HeightScale
	}
	if _, err := building.ParseAnchorMode(p.Anchor); err != nil {
		fix("pipeline.anchor %q reset to %q", p.Anchor, def.Pipeline.Anchor)
		p.Anchor = def.Pipeline.Anchor
	}
	if _, err := building.ParseColoring(c.ColoringOptions()); err != nil {
		fix("pipeline.coloring reset to defaults: %v", err)
		p.Coloring = def.Pipeline.Coloring
	}

	cam := &c.Camera
	if cam.MinScale <= 0 {
		fix("camera.min_scale %g reset to %g", cam.MinScale, def.Camera.MinScale)
		cam.MinScale = def.Camera.MinScale
	}
	if cam.MaxScale <= 0 {
		fix("camera.max_scale %g reset to %g", cam.MaxScale, def.Camera.MaxScale)
		cam.MaxScale = def.Camera.MaxScale
	}
	if cam.MinScale > cam.MaxScale {
		fix("camera.min_scale %g and max_scale %g swapped", cam.MinScale, cam.MaxScale)
		cam.MinScale, cam.MaxScale = cam.MaxScale, cam.MinScale
	}
	if cam.Scale < cam.MinScale || cam.Scale > cam.MaxScale {
		clamped := c.Limits().Clamp(cam.Scale)
		fix("camera.scale %g clamped to %g", cam.Scale, clamped)
		cam.Scale = clamped
	}
	if _, err := camera.ParseMode(cam.Mode); err != nil {
		fix("camera.mode %q reset to %q", cam.Mode, def.Camera.Mode)
		cam.Mode = def.Camera.Mode
	}
	if cam.FOVDegrees < 10 || cam.FOVDegrees > 120 {
		fix("camera.fov_degrees %g reset to %g", cam.FOVDegrees, def.Camera.FOVDegrees)
		cam.FOVDegrees = def.Camera.FOVDegrees
	}

	if _, err := renderer.ParseCullMode(c.Render.Culling); err != nil {
		fix("render.culling %q reset to %q", c.Render.Culling, def.Render.Culling)
		c.Render.Culling = def.Render.Culling
	}
	for i, v := range c.Render.ClearColor {
		if v < 0 || v > 1 {
			fix("render.clear_color[%d] %g clamped", i, v)
			c.Render.ClearColor[i] = min(max(v, 0), 1)
		}
	}

	return fixes
}

// ColoringOptions converts the coloring section for the pipeline.
func (c *Config) ColoringOptions() building.ColoringOptions {
	col := c.Pipeline.Coloring
	return building.ColoringOptions{
		Strategy:  col.Strategy,
		Color:     col.Color,
		Low:       col.Low,
		High:      col.High,
		MaxFloors: col.MaxFloors,
		Attribute: c.Pipeline.FloorAttribute,
		Seed:      col.Seed,
	}
}

// PipelineOptions converts the pipeline section into meshing options.
func (c *Config) PipelineOptions() (building.Options, error) {
	anchor, err := building.ParseAnchorMode(c.Pipeline.Anchor)
	if err != nil {
		return building.Options{}, err
	}
	coloring, err := building.ParseColoring(c.ColoringOptions())
	if err != nil {
		return building.Options{}, err
	}
	return building.Options{
		CellSize:       c.Pipeline.CellSize,
		HeightScale:    c.Pipeline.HeightScale,
		FloorAttribute: c.Pipeline.FloorAttribute,
		Anchor:         anchor,
		Batching:       c.Pipeline.Batching,
		VertexColors:   c.Pipeline.VertexColors,
		Coloring:       coloring,
	}, nil
}

// Limits returns the camera zoom limits.
func (c *Config) Limits() camera.Limits {
	return camera.Limits{MinScale: c.Camera.MinScale, MaxScale: c.Camera.MaxScale}
}

// RendererOptions converts the render section for the draw scheduler.
func (c *Config) RendererOptions() (renderer.Options, error) {
	culling, err := renderer.ParseCullMode(c.Render.Culling)
	if err != nil {
		return renderer.Options{}, err
	}
	sun := lighting.DefaultSun
	if c.Render.Sun != nil {
		sun = lighting.SunDirection(c.Render.Sun.Azimuth, c.Render.Sun.Elevation)
	}
	return renderer.Options{Culling: culling, Sun: sun}, nil
}
