package mcp

import (
	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []output.Output `json:"outputs"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []window.Window   `json:"windows"`
	Focused platform.WindowID `json:"focused,omitempty"`
}

// ListZonesInput is the input for the list_zones tool.
type ListZonesInput struct {
	Space string `json:"space,omitempty" jsonschema:"Only return this space (default: all spaces)"`
}

// ListZonesOutput is the output for the list_zones tool.
type ListZonesOutput struct {
	Spaces []compositor.SpaceState `json:"spaces"`
}

// MoveWindowInput is the input for the move_window_to_zone tool.
type MoveWindowInput struct {
	Zone   string            `json:"zone" jsonschema:"Name of the target zone in the window's space"`
	Window platform.WindowID `json:"window,omitempty" jsonschema:"Window id (default: the focused window)"`
}

// SetZonesInput is the input for the set_zones tool.
type SetZonesInput struct {
	Space string      `json:"space,omitempty" jsonschema:"Space to replace zones in (default: the focused window's space)"`
	Zones []zone.Spec `json:"zones" jsonschema:"Complete zone set; at most one zone may set default"`
}

// SpawnInput is the input for the spawn tool.
type SpawnInput struct {
	Command string   `json:"command" jsonschema:"Program to run, or a shell command line when args is empty"`
	Args    []string `json:"args,omitempty" jsonschema:"Arguments passed to the program"`
}

// AckOutput is returned by tools that only change state.
type AckOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}
