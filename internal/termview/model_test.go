package termview

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"github.com/Faultbox/citymesh/internal/engine/building"
	"github.com/Faultbox/citymesh/internal/engine/camera"
	"github.com/Faultbox/citymesh/internal/engine/debug"
	"github.com/Faultbox/citymesh/internal/loader"
)

func testConfig() Config {
	return Config{
		Limits:     camera.Limits{MinScale: 0.001, MaxScale: 1},
		Scale:      0.1,
		ClearColor: white,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func loaded(meshes ...building.Mesh) loader.Result {
	res := loader.Result{Features: len(meshes)}
	res.Meshes = meshes
	res.Center = orb.Point{5, 5}
	for i, m := range meshes {
		if i == 0 {
			res.Bounds = m.Bounds
		} else {
			res.Bounds = res.Bounds.Union(m.Bounds)
		}
	}
	return res
}

func TestModelLoadAndFrame(t *testing.T) {
	m := New(nil, testConfig())
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 12})

	m = update(t, m, loadedMsg(loaded(quadMesh(orb.Point{5, 5}, 0.5, [3]float32{1, 0, 0}))))
	if got := m.controller.Viewport().Center(); got != (orb.Point{5, 5}) {
		t.Errorf("center = %v, want dataset center", got)
	}
	if m.renderer.Len() != 1 {
		t.Fatalf("resident meshes = %d, want 1", m.renderer.Len())
	}

	next, cmd := m.Update(frameMsg(time.Now()))
	m = next.(Model)
	if cmd == nil {
		t.Error("frame did not schedule the next tick")
	}
	if m.frame.Drawn != 1 {
		t.Errorf("drawn = %d, want 1", m.frame.Drawn)
	}
	if m.canvas.Covered() == 0 {
		t.Error("nothing rasterized")
	}

	view := m.View()
	if !strings.Contains(view, "1/1 drawn") {
		t.Errorf("status line missing draw count:\n%s", view)
	}
}

func TestModelLoadError(t *testing.T) {
	m := New(nil, testConfig())
	m = update(t, m, loadedMsg(loader.Result{Err: errors.New("no such file")}))
	if m.err == nil {
		t.Fatal("load error not recorded")
	}
	if !strings.Contains(m.View(), "no such file") {
		t.Error("load error not shown")
	}
}

func TestModelFitOnLoad(t *testing.T) {
	cfg := testConfig()
	cfg.FitOnLoad = true
	m := New(nil, cfg)
	m = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})

	a := quadMesh(orb.Point{0, 0}, 0.5, [3]float32{1, 1, 1})
	b := quadMesh(orb.Point{10, 10}, 0.5, [3]float32{1, 1, 1})
	m = update(t, m, loadedMsg(loaded(a, b)))

	vp := m.controller.Viewport()
	bounds := vp.Bounds()
	if !bounds.Contains(a.Bounds.Min) || !bounds.Contains(b.Bounds.Max) {
		t.Errorf("visible %v does not contain the dataset", bounds)
	}
}

func TestModelKeys(t *testing.T) {
	m := New(nil, testConfig())
	vp := m.controller.Viewport()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	if !vp.Wireframe() {
		t.Error("w did not toggle wireframe")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !vp.Is3D() {
		t.Error("p did not toggle 3D")
	}

	scale := vp.Scale()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	if vp.Scale() != scale*0.5 {
		t.Errorf("scale = %g, want %g", vp.Scale(), scale*0.5)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if vp.Center()[0] <= 0 {
		t.Errorf("right arrow did not pan east: %v", vp.Center())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !m.help.ShowAll {
		t.Error("? did not expand the help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestModelMouseDrag(t *testing.T) {
	m := New(nil, testConfig())
	vp := m.controller.Viewport()

	m = update(t, m, tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: 20, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m = update(t, m, tea.MouseMsg{X: 20, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	// Dragging 10 pixels right moves the center 10 pixels west.
	if got := vp.Center()[0]; got > -0.999 || got < -1.001 {
		t.Errorf("center x = %g, want -1", got)
	}
	if m.controller.Dragging() {
		t.Error("still dragging after release")
	}

	scale := vp.Scale()
	update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if vp.Scale() != scale*2 {
		t.Errorf("wheel down scale = %g, want %g", vp.Scale(), scale*2)
	}
}

func TestModelScreenshot(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Screenshots = debug.NewScreenshots(dir, "term")
	m := New(nil, cfg)
	m = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 6})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if !strings.HasPrefix(m.status, "saved ") {
		t.Fatalf("status = %q, want saved", m.status)
	}
	files, err := filepath.Glob(filepath.Join(dir, "term_*.png"))
	if err != nil || len(files) != 1 {
		t.Fatalf("screenshots = %v, %v", files, err)
	}
	if _, err := os.Stat(files[0]); err != nil {
		t.Error(err)
	}
}

func TestModelScreenshotDisabled(t *testing.T) {
	m := New(nil, testConfig())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.status != "screenshots disabled" {
		t.Errorf("status = %q", m.status)
	}
}
