// Package main runs the citymesh viewer in a terminal.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/config"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/debug"
	"github.com/Faultbox/citymesh/internal/loader"
	"github.com/Faultbox/citymesh/internal/logger"
	"github.com/Faultbox/citymesh/internal/termview"
	"github.com/Faultbox/citymesh/pkg/feature"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs only go to a file.
	if cfg.Logging.LogFile != "" {
		fileCfg := logger.DefaultFileConfig(cfg.Logging.LogFile)
		if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, false); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
			os.Exit(1)
		}
	} else {
		logger.Nop()
	}
	defer logger.Sync()

	for _, fix := range cfg.Validate() {
		logger.Warn("config corrected", zap.String("fix", fix))
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "citymesh-term: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	pipeline, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	renderOpts, err := cfg.RendererOptions()
	if err != nil {
		return err
	}
	mode, err := camera.ParseMode(cfg.Camera.Mode)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := feature.FileSource{Path: cfg.Data.Path, MaxFeatures: cfg.Data.MaxFeatures}
	cc := cfg.Render.ClearColor

	// A terminal has far fewer pixels than a window, so zoom limits are
	// widened and the dataset is fitted on load.
	limits := cfg.Limits()
	limits.MaxScale = max(limits.MaxScale, 1)

	tcfg := termview.Config{
		Renderer:   renderOpts,
		Limits:     limits,
		Scale:      cfg.Camera.Scale,
		Mode:       mode,
		Wireframe:  cfg.Render.Wireframe,
		ClearColor: colorful.Color{R: float64(cc[0]), G: float64(cc[1]), B: float64(cc[2])},
		FitOnLoad:  true,
	}
	if cfg.Render.Screenshots != "" {
		tcfg.Screenshots = debug.NewScreenshots(cfg.Render.Screenshots, "citymesh-term")
	}

	m := termview.New(loader.Start(ctx, src, pipeline), tcfg)

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
