package compositor

import (
	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/script"
)

// Event is something delivered into the orchestrator queue.
type Event interface {
	Name() string
}

// OutputAdded is delivered when a connector is connected.
type OutputAdded struct {
	Output      string
	Description string
	Geometry    platform.Rect
	Scale       float64
}

// OutputRemoved is delivered when a connector is disconnected.
type OutputRemoved struct {
	Output string
}

// SurfaceMapped is delivered when a client surface becomes visible.
type SurfaceMapped struct {
	Window platform.WindowID
	AppID  string
	Title  string
	// Geometry is what the client asked for. Unassigned windows keep it.
	Geometry platform.Rect
}

// SurfaceUnmapped is delivered when a client surface goes away.
type SurfaceUnmapped struct {
	Window platform.WindowID
}

// KeyEvent is a key press with the modifiers held at the time.
type KeyEvent struct {
	Key  string
	Mods keymap.Mods
}

// FocusChanged is delivered when keyboard focus moves. Zero means no window.
type FocusChanged struct {
	Window platform.WindowID
}

func (OutputAdded) Name() string     { return "output_added" }
func (OutputRemoved) Name() string   { return "output_removed" }
func (SurfaceMapped) Name() string   { return "surface_mapped" }
func (SurfaceUnmapped) Name() string { return "surface_unmapped" }
func (KeyEvent) Name() string        { return "key" }
func (FocusChanged) Name() string    { return "focus_changed" }

// loadScript replaces the running script. The source is read by the poster so
// the loop never touches the filesystem.
type loadScript struct {
	name   string
	source string
	reply  chan error
}

// batch applies commands from outside the script, e.g. the control socket.
type batch struct {
	commands []script.Command
	reply    chan error
}

// query runs fn on the loop goroutine.
type query struct {
	fn   func()
	done chan struct{}
}

func (loadScript) Name() string { return "load_script" }
func (batch) Name() string      { return "batch" }
func (query) Name() string      { return "query" }
