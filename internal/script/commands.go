package script

import (
	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/zone"
)

// Command is a state change requested by script code. Commands are buffered
// while a callback runs and handed to the orchestrator afterwards, in the
// order they were issued.
type Command interface {
	Op() string
}

// OutputLayout assigns one output within a space.
type OutputLayout struct {
	// Name of the connector. When empty, Index is used instead.
	Name string
	// Index is the 1-based position in the connector-change list, 0 if unset.
	Index int
	X     int
	Y     int
	// Width and Height of zero keep the output's current size.
	Width    int
	Height   int
	Scale    float64
	Default  bool
	Disabled bool
}

// SpaceLayout lists the outputs that make up one space.
type SpaceLayout struct {
	Space   string
	Outputs []OutputLayout
}

// SetLayout replaces the whole space/output assignment. Spaces are sorted by
// name.
type SetLayout struct {
	Spaces []SpaceLayout
}

// SetZones replaces the zone set of Space. An empty Space means the space of
// the focused window, else the default space.
type SetZones struct {
	Space string
	Zones []zone.Spec
}

// MoveToZone places Window, or the focused window when zero, into Zone.
type MoveToZone struct {
	Window platform.WindowID
	Zone   string
}

// Spawn launches a process.
type Spawn struct {
	Command string
	Args    []string
}

// MapKey registers a key binding. A non-empty Unknown lists modifier names
// that did not parse; such a binding is rejected.
type MapKey struct {
	Key      string
	Mods     keymap.Mods
	Unknown  []string
	Callback platform.CallbackRef
}

// AddWindowRule places windows with AppID into Zone when they map.
type AddWindowRule struct {
	AppID string
	Zone  string
}

// FocusOrSpawn focuses the first window with AppID or runs Spawn.
type FocusOrSpawn struct {
	AppID string
	Spawn Spawn
}

// CloseWindow closes the focused window.
type CloseWindow struct{}

// FocusWindow gives focus to a window.
type FocusWindow struct {
	Window platform.WindowID
}

// Quit stops the compositor.
type Quit struct{}

// SwitchVT switches to a virtual terminal.
type SwitchVT struct {
	VT int
}

// SetEnv adds an environment variable for spawned processes.
type SetEnv struct {
	Name  string
	Value string
}

func (SetLayout) Op() string     { return "set_layout" }
func (SetZones) Op() string      { return "set_zones" }
func (MoveToZone) Op() string    { return "move_to_zone" }
func (Spawn) Op() string         { return "spawn" }
func (MapKey) Op() string        { return "map_key" }
func (AddWindowRule) Op() string { return "add_window_rule" }
func (FocusOrSpawn) Op() string  { return "focus_or_spawn" }
func (CloseWindow) Op() string   { return "close_current_window" }
func (FocusWindow) Op() string   { return "focus_window" }
func (Quit) Op() string          { return "quit" }
func (SwitchVT) Op() string      { return "vt_switch" }
func (SetEnv) Op() string        { return "set_env" }
