package platform

import "fmt"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// CallbackRef is an opaque handle to a callback owned by the scripting runtime.
// The zero value never refers to a callback.
type CallbackRef uint64

// Valid reports whether the reference points at a registered callback.
func (r CallbackRef) Valid() bool {
	return r != 0
}

// Rect describes a rectangular region in logical pixels.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Offset translates the rectangle by dx, dy.
func (r Rect) Offset(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Inset shrinks the rectangle by gap on every side, never below 1x1.
func (r Rect) Inset(gap int) Rect {
	if gap <= 0 {
		return r
	}
	r.X += gap
	r.Y += gap
	r.Width -= 2 * gap
	r.Height -= 2 * gap
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	return r
}

// Intersects reports whether two rectangles overlap with a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)
	return x2 > x1 && y2 > y1
}

// Union returns the smallest rectangle containing both r and o.
// An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// OutputConfig is the configuration pushed to the display backend for one output.
type OutputConfig struct {
	Name     string  `json:"name"`
	Geometry Rect    `json:"geometry"`
	Scale    float64 `json:"scale"`
	Enabled  bool    `json:"enabled"`
	Space    string  `json:"space,omitempty"`
}

// Placement is a geometry/visibility update for one window.
type Placement struct {
	Window   WindowID `json:"window"`
	Space    string   `json:"space,omitempty"`
	Zone     string   `json:"zone,omitempty"`
	Geometry Rect     `json:"geometry"`
	Visible  bool     `json:"visible"`
}

// DisplayBackend is the protocol-facing collaborator. Calls are fire-and-forget
// from the orchestrator's perspective: implementations must not block on I/O.
type DisplayBackend interface {
	ApplyOutputConfig(cfg OutputConfig)
	UpdateWindowGeometry(id WindowID, geometry Rect)
	CloseWindow(id WindowID)
	FocusWindow(id WindowID)
	SwitchVT(vt int)
}

// Renderer receives geometry and visibility updates. It never reports back.
type Renderer interface {
	UpdatePlacement(p Placement)
}

// Spawner launches processes without waiting for them.
type Spawner interface {
	Spawn(command string, args []string, env map[string]string)
}

// KeyGrabber is implemented by backends that must be told which chords to
// intercept (e.g. X11 passive grabs). The full set is passed on every change.
type KeyGrabber interface {
	GrabKeys(chords []Chord)
}

// Chord is a key plus modifier names as registered by the configuration.
type Chord struct {
	Key  string
	Mods []string
}
