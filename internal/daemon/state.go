package daemon

import (
	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/platform"
)

// OutputState is an output as reported by the display server.
type OutputState struct {
	Name        string
	Description string
	Geometry    platform.Rect
	Scale       float64
}

// WindowState is a client surface as reported by the display server.
type WindowState struct {
	ID       platform.WindowID
	AppID    string
	Title    string
	Geometry platform.Rect
}

// State is one observation of the display server.
type State struct {
	Outputs []OutputState
	Windows []WindowState
	Focused platform.WindowID
}

// Source produces observations. Implementations may block on I/O.
type Source interface {
	Snapshot() (State, error)
}

// Diff returns the events that take the orchestrator from prev to next.
// Removals come first so a reconnected output or recycled window id is seen
// as a fresh arrival. An output whose geometry or description changed is
// reported as removed and added again.
func Diff(prev, next State) []compositor.Event {
	var events []compositor.Event

	nextOutputs := make(map[string]OutputState, len(next.Outputs))
	for _, o := range next.Outputs {
		nextOutputs[o.Name] = o
	}
	prevOutputs := make(map[string]OutputState, len(prev.Outputs))
	for _, o := range prev.Outputs {
		prevOutputs[o.Name] = o
		if n, ok := nextOutputs[o.Name]; !ok || n != o {
			events = append(events, compositor.OutputRemoved{Output: o.Name})
		}
	}

	nextWindows := make(map[platform.WindowID]bool, len(next.Windows))
	for _, w := range next.Windows {
		nextWindows[w.ID] = true
	}
	prevWindows := make(map[platform.WindowID]bool, len(prev.Windows))
	for _, w := range prev.Windows {
		prevWindows[w.ID] = true
		if !nextWindows[w.ID] {
			events = append(events, compositor.SurfaceUnmapped{Window: w.ID})
		}
	}

	for _, o := range next.Outputs {
		if p, ok := prevOutputs[o.Name]; ok && p == o {
			continue
		}
		events = append(events, compositor.OutputAdded{
			Output:      o.Name,
			Description: o.Description,
			Geometry:    o.Geometry,
			Scale:       o.Scale,
		})
	}

	for _, w := range next.Windows {
		if prevWindows[w.ID] {
			continue
		}
		events = append(events, compositor.SurfaceMapped{
			Window:   w.ID,
			AppID:    w.AppID,
			Title:    w.Title,
			Geometry: w.Geometry,
		})
	}

	if next.Focused != 0 && next.Focused != prev.Focused && nextWindows[next.Focused] {
		events = append(events, compositor.FocusChanged{Window: next.Focused})
	}
	return events
}
