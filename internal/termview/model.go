package termview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/debug"
	"github.com/Faultbox/citymesh/internal/engine/renderer"
	"github.com/Faultbox/citymesh/internal/loader"
	"github.com/Faultbox/citymesh/internal/logger"
)

// frameInterval paces the frame callback, the terminal's vsync.
const frameInterval = time.Second / 30

// footerHeight is the status line plus the help line.
const footerHeight = 2

// Config configures the terminal viewer.
type Config struct {
	Renderer   renderer.Options
	Limits     camera.Limits
	Scale      float64
	Mode       camera.Mode
	Wireframe  bool
	ClearColor colorful.Color
	// FitOnLoad zooms out so the whole dataset fits the terminal.
	FitOnLoad bool
	// Screenshots receives canvas captures. Nil disables them.
	Screenshots *debug.Screenshots
}

type frameMsg time.Time

type loadedMsg loader.Result

// Model is the bubbletea model of the viewer.
type Model struct {
	canvas     *Canvas
	renderer   *renderer.Renderer
	controller *camera.Controller

	keys keyMap
	help help.Model

	load  <-chan loader.Result
	fit   bool
	shots *debug.Screenshots

	width  int
	height int

	frame  renderer.FrameStats
	status string
	err    error
}

// New creates a viewer that shows the dataset delivered on load.
func New(load <-chan loader.Result, cfg Config) Model {
	canvas := NewCanvas(80, 24-footerHeight, cfg.ClearColor)
	pw, ph := canvas.PixelSize()

	vp := camera.NewViewport(pw, ph, cfg.Scale, cfg.Limits)
	vp.SetMode(cfg.Mode)
	vp.SetWireframe(cfg.Wireframe)

	return Model{
		canvas:     canvas,
		renderer:   renderer.New(canvas, vp, cfg.Renderer),
		controller: camera.NewController(vp),
		keys:       defaultKeyMap(),
		help:       help.New(),
		load:       load,
		fit:        cfg.FitOnLoad,
		shots:      cfg.Screenshots,
		width:      80,
		height:     24,
		status:     "loading features…",
	}
}

// Init starts the frame loop and waits for the dataset.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForLoad(m.load))
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForLoad(ch <-chan loader.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return loadedMsg{Err: fmt.Errorf("loader stopped without a result")}
		}
		return loadedMsg(res)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	vp := m.controller.Viewport()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.canvas.Resize(msg.Width, max(msg.Height-footerHeight, 1))
		vp.OnResize(m.canvas.PixelSize())

	case frameMsg:
		if stats, drawn := m.renderer.Frame(); drawn {
			m.frame = stats
		}
		return m, tick()

	case loadedMsg:
		m.applyLoad(loader.Result(msg))

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if key.Matches(msg, m.keys.Capture) {
			m.capture()
			return m, nil
		}
		if dx, dy, ok := m.keys.pan(msg); ok {
			m.controller.Pan(dx, dy)
			return m, nil
		}
		if m.controller.Apply(m.keys.command(msg)) {
			return m, tea.Quit
		}

	case tea.MouseMsg:
		// Cells are one pixel wide and two pixels tall.
		x, y := float64(msg.X), float64(msg.Y*2)
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.controller.Wheel(1)
		case msg.Button == tea.MouseButtonWheelDown:
			m.controller.Wheel(-1)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.controller.Press(x, y)
		case msg.Action == tea.MouseActionRelease:
			m.controller.Release()
		case msg.Action == tea.MouseActionMotion:
			m.controller.Move(x, y)
		}
	}
	return m, nil
}

// applyLoad centers the camera on the dataset and uploads its meshes.
func (m *Model) applyLoad(res loader.Result) {
	if res.Err != nil {
		m.err = res.Err
		m.status = "load failed"
		return
	}

	vp := m.controller.Viewport()
	vp.SetCenter(res.Center)
	if m.fit && len(res.Meshes) > 0 {
		vp.SetScale(fitScale(res.Bounds, vp))
	}

	added, errs := m.renderer.AddMeshes(res.Meshes)
	if len(errs) > 0 {
		logger.Warn("meshes not uploaded", zap.Int("failed", len(errs)))
	}
	m.status = fmt.Sprintf("%d features, %d meshes, %d skipped",
		res.Features, added, res.Stats.Skipped())
}

// capture saves the last rendered frame.
func (m *Model) capture() {
	if m.shots == nil {
		m.status = "screenshots disabled"
		return
	}
	path, err := m.shots.SaveImage(m.canvas.Image())
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		m.status = "screenshot failed"
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
	m.status = "saved " + path
}

// fitScale returns the scale at which b fits the viewport with a margin.
func fitScale(b orb.Bound, vp *camera.Viewport) float64 {
	w, h := vp.Size()
	sx := (b.Max[0] - b.Min[0]) / float64(w)
	sy := (b.Max[1] - b.Min[1]) / float64(h)
	return max(sx, sy) * 1.1
}

func (m Model) View() string {
	vp := m.controller.Viewport()

	mode := vp.Mode().String()
	if vp.Wireframe() {
		mode += " wireframe"
	}
	parts := []string{
		titleStyle.Render(" citymesh "),
		dimStyle.Render(mode),
		dimStyle.Render(fmt.Sprintf("scale %.2e", vp.Scale())),
		dimStyle.Render(fmt.Sprintf("%d/%d drawn", m.frame.Drawn, m.renderer.Len())),
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	} else {
		parts = append(parts, dimStyle.Render(m.status))
	}
	status := lipgloss.NewStyle().Width(m.width).MaxHeight(1).Render(strings.Join(parts, "  "))

	return lipgloss.JoinVertical(lipgloss.Left,
		m.canvas.Render(),
		status,
		m.help.View(m.keys),
	)
}
