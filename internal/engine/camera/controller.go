package camera

// Command is a discrete viewport command bound to a key.
type Command int

const (
	CommandNone Command = iota
	CommandToggleWireframe
	CommandToggleMode
	CommandZoomIn
	CommandZoomOut
	CommandQuit
)

var commandNames = map[Command]string{
	CommandNone:            "none",
	CommandToggleWireframe: "toggle-wireframe",
	CommandToggleMode:      "toggle-mode",
	CommandZoomIn:          "zoom-in",
	CommandZoomOut:         "zoom-out",
	CommandQuit:            "quit",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Zoom steps applied per wheel notch.
const (
	zoomInStep  = 0.5
	zoomOutStep = 2
)

// Controller translates pointer and keyboard input into viewport commands.
// Pointer coordinates are in screen units, y growing downwards.
type Controller struct {
	viewport *Viewport
	dragging bool
	lastX    float64
	lastY    float64
}

// NewController creates a controller driving vp.
func NewController(vp *Viewport) *Controller {
	return &Controller{viewport: vp}
}

// Viewport returns the driven viewport.
func (c *Controller) Viewport() *Viewport {
	return c.viewport
}

// Dragging reports whether a pan gesture is in progress.
func (c *Controller) Dragging() bool {
	return c.dragging
}

// Press starts a pan gesture at (x, y).
func (c *Controller) Press(x, y float64) {
	c.dragging = true
	c.lastX, c.lastY = x, y
}

// Move pans the viewport by the pointer delta while dragging. Moving right
// shifts the center left so the map follows the pointer.
func (c *Controller) Move(x, y float64) {
	if !c.dragging {
		return
	}
	c.Pan(c.lastX-x, c.lastY-y)
	c.lastX, c.lastY = x, y
}

// Pan moves the center by (dx, dy) screen units, y growing downwards.
func (c *Controller) Pan(dx, dy float64) {
	scale := c.viewport.Scale()
	center := c.viewport.Center()
	center[0] += dx * scale
	center[1] -= dy * scale
	c.viewport.SetCenter(center)
}

// Release ends the pan gesture.
func (c *Controller) Release() {
	c.dragging = false
}

// Wheel zooms in for positive deltas and out for negative ones.
func (c *Controller) Wheel(delta float64) {
	switch {
	case delta > 0:
		c.Apply(CommandZoomIn)
	case delta < 0:
		c.Apply(CommandZoomOut)
	}
}

// Apply executes cmd and reports whether the application should quit.
func (c *Controller) Apply(cmd Command) bool {
	switch cmd {
	case CommandToggleWireframe:
		c.viewport.ToggleWireframe()
	case CommandToggleMode:
		c.viewport.ToggleRenderMode()
	case CommandZoomIn:
		c.viewport.Zoom(zoomInStep)
	case CommandZoomOut:
		c.viewport.Zoom(zoomOutStep)
	case CommandQuit:
		return true
	}
	return false
}
