// Package input translates SDL2 events into viewport commands.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/citymesh/internal/engine/camera"
)

var keymap = map[sdl.Scancode]camera.Command{
	sdl.SCANCODE_W:        camera.CommandToggleWireframe,
	sdl.SCANCODE_P:        camera.CommandToggleMode,
	sdl.SCANCODE_EQUALS:   camera.CommandZoomIn,
	sdl.SCANCODE_KP_PLUS:  camera.CommandZoomIn,
	sdl.SCANCODE_MINUS:    camera.CommandZoomOut,
	sdl.SCANCODE_KP_MINUS: camera.CommandZoomOut,
	sdl.SCANCODE_ESCAPE:   camera.CommandQuit,
}

// captureKey requests a screenshot of the next frame.
const captureKey = sdl.SCANCODE_F12

// Input polls SDL events once per frame and feeds them to a controller.
type Input struct {
	controller *camera.Controller

	capture bool
	resized bool
	width   int
	height  int
}

// New creates an input handler driving c.
func New(c *camera.Controller) *Input {
	return &Input{controller: c}
}

// Update drains the SDL event queue.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.resized = false
	i.capture = false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.resized = true
				i.width = int(e.Data1)
				i.height = int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			if e.Keysym.Scancode == captureKey {
				i.capture = true
				continue
			}
			if i.controller.Apply(keymap[e.Keysym.Scancode]) {
				return true
			}

		case *sdl.MouseButtonEvent:
			if e.Button != sdl.BUTTON_LEFT {
				continue
			}
			if e.Type == sdl.MOUSEBUTTONDOWN {
				i.controller.Press(float64(e.X), float64(e.Y))
			} else {
				i.controller.Release()
			}

		case *sdl.MouseMotionEvent:
			i.controller.Move(float64(e.X), float64(e.Y))

		case *sdl.MouseWheelEvent:
			i.controller.Wheel(float64(e.Y))
		}
	}

	return false
}

// Resized returns the new window size if it changed during the last Update.
func (i *Input) Resized() (width, height int, ok bool) {
	return i.width, i.height, i.resized
}

// CaptureRequested reports whether a screenshot was requested during the
// last Update.
func (i *Input) CaptureRequested() bool {
	return i.capture
}
