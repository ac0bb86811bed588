// Package app implements the windowed viewer: window, GPU device, frame
// loop and the background dataset load.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/config"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/debug"
	"github.com/Faultbox/citymesh/internal/engine/gpu"
	"github.com/Faultbox/citymesh/internal/engine/input"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
	"github.com/Faultbox/citymesh/internal/engine/window"
	"github.com/Faultbox/citymesh/internal/loader"
	"github.com/Faultbox/citymesh/internal/logger"
	"github.com/Faultbox/citymesh/pkg/feature"
)

const title = "citymesh"

// idleInterval is how long the loop sleeps when a frame had nothing to
// draw.
const idleInterval = 10 * time.Millisecond

// App is the windowed viewer instance.
type App struct {
	cfg *config.Config

	window     *window.Window
	device     *gpu.Device
	renderer   *renderer.Renderer
	controller *camera.Controller
	input      *input.Input
	shots      *debug.Screenshots

	cancel context.CancelFunc
	load   <-chan loader.Result

	log *zap.Logger
}

// New opens the window, creates the GPU device and starts loading the
// dataset in the background.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg, log: logger.Named("app")}

	a.log.Info("initializing",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("data", cfg.Data.Path))

	pipeline, err := cfg.PipelineOptions()
	if err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	renderOpts, err := cfg.RendererOptions()
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	mode, err := camera.ParseMode(cfg.Camera.Mode)
	if err != nil {
		return nil, fmt.Errorf("camera config: %w", err)
	}

	// Create window (this also creates OpenGL context)
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    cfg.Graphics.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create device (AFTER window, since OpenGL context must exist)
	a.device, err = gpu.New(gpu.Config{ClearColor: cfg.Render.ClearColor})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	a.device.Resize(a.window.DrawableSize())

	width, height := a.window.Size()
	vp := camera.NewViewport(width, height, cfg.Camera.Scale, cfg.Limits())
	vp.SetMode(mode)
	vp.SetWireframe(cfg.Render.Wireframe)

	a.renderer = renderer.New(a.device, vp, renderOpts)
	a.controller = camera.NewController(vp)
	a.input = input.New(a.controller)
	if cfg.Render.Screenshots != "" {
		a.shots = debug.NewScreenshots(cfg.Render.Screenshots, title)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	src := feature.FileSource{Path: cfg.Data.Path, MaxFeatures: cfg.Data.MaxFeatures}
	a.load = loader.Start(ctx, src, pipeline)
	a.window.SetTitle(title + " - loading " + cfg.Data.Path)

	return a, nil
}

// Run drives the frame loop until the window is closed.
func (a *App) Run() error {
	frames := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for {
		if a.input.Update() {
			return nil
		}
		if w, h, ok := a.input.Resized(); ok {
			a.renderer.Viewport().OnResize(w, h)
			a.device.Resize(a.window.DrawableSize())
		}

		if a.load != nil {
			if res, ok := loader.Poll(a.load); ok {
				a.load = nil
				if err := a.applyLoad(res); err != nil {
					return err
				}
			}
		}

		capture := a.input.CaptureRequested()
		if capture {
			a.renderer.Viewport().MarkRedraw()
		}

		stats, drawn := a.renderer.Frame()
		if !drawn {
			time.Sleep(idleInterval)
			continue
		}
		if capture {
			a.capture()
		}
		a.window.SwapBuffers()

		frames++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("frames",
				zap.Int("count", frames),
				zap.Stringer("mode", stats.Mode),
				zap.Int("drawn", stats.Drawn),
				zap.Int("culled", stats.Culled))
			frames = 0
			fpsTimer = time.Now()
		}
	}
}

// applyLoad centers the camera on the dataset and uploads its meshes.
func (a *App) applyLoad(res loader.Result) error {
	if res.Err != nil {
		return fmt.Errorf("loading %s: %w", a.cfg.Data.Path, res.Err)
	}

	a.renderer.Viewport().SetCenter(res.Center)
	added, errs := a.renderer.AddMeshes(res.Meshes)

	a.log.Info("dataset uploaded",
		zap.Int("features", res.Features),
		zap.Int("meshes", added),
		zap.Int("failed", len(errs)),
		zap.Int("skipped", res.Stats.Skipped()),
		zap.Int("vertices", res.Stats.Vertices))
	a.window.SetTitle(fmt.Sprintf("%s - %d buildings", title, res.Stats.Meshed))
	return nil
}

// capture saves the back buffer before it is swapped.
func (a *App) capture() {
	if a.shots == nil {
		a.log.Warn("screenshots disabled")
		return
	}
	pixels, w, h := a.device.ReadPixels()
	path, err := a.shots.SavePixels(pixels, w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases GPU resources and the window.
func (a *App) Close() {
	a.log.Info("closing")

	if a.cancel != nil {
		a.cancel()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
