package termview

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Faultbox/citymesh/internal/engine/camera"
)

// panStep is how far one arrow key press moves the view, in pixels.
const panStep = 8

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Wireframe key.Binding
	Mode      key.Binding
	Capture   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:   key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Wireframe: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wireframe")),
		Mode:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "2D/3D")),
		Capture:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "screenshot")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Wireframe, k.Mode, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.ZoomIn, k.ZoomOut},
		{k.Wireframe, k.Mode, k.Capture},
		{k.Help, k.Quit},
	}
}

// command maps a key press to a viewport command.
func (k keyMap) command(msg tea.KeyMsg) camera.Command {
	switch {
	case key.Matches(msg, k.Wireframe):
		return camera.CommandToggleWireframe
	case key.Matches(msg, k.Mode):
		return camera.CommandToggleMode
	case key.Matches(msg, k.ZoomIn):
		return camera.CommandZoomIn
	case key.Matches(msg, k.ZoomOut):
		return camera.CommandZoomOut
	case key.Matches(msg, k.Quit):
		return camera.CommandQuit
	}
	return camera.CommandNone
}

// pan returns the pixel offset for an arrow key, if msg is one.
func (k keyMap) pan(msg tea.KeyMsg) (dx, dy float64, ok bool) {
	switch {
	case key.Matches(msg, k.Up):
		return 0, -panStep, true
	case key.Matches(msg, k.Down):
		return 0, panStep, true
	case key.Matches(msg, k.Left):
		return -panStep, 0, true
	case key.Matches(msg, k.Right):
		return panStep, 0, true
	}
	return 0, 0, false
}
