// Package window tracks mapped client surfaces and their zone assignment.
package window

import (
	"errors"
	"fmt"

	"github.com/1broseidon/scape/internal/platform"
)

var (
	ErrUnknownWindow   = errors.New("unknown window")
	ErrDuplicateWindow = errors.New("window already mapped")
)

// State is the lifecycle state of a window.
type State string

const (
	StateMapped   State = "mapped"
	StateAssigned State = "assigned"
)

// Window is a mapped client surface. Zone is a by-name reference into the
// zone set of Space; an empty Zone means unassigned.
type Window struct {
	ID    platform.WindowID `json:"id" yaml:"id"`
	AppID string            `json:"app_id,omitempty" yaml:"app_id,omitempty"`
	Title string            `json:"title,omitempty" yaml:"title,omitempty"`
	Space string            `json:"space" yaml:"space"`
	Zone  string            `json:"zone,omitempty" yaml:"zone,omitempty"`
	// Geometry is derived from Zone while assigned, otherwise it is the
	// geometry the client mapped with.
	Geometry platform.Rect `json:"geometry" yaml:"geometry"`
}

// State returns the window's lifecycle state.
func (w Window) State() State {
	if w.Zone != "" {
		return StateAssigned
	}
	return StateMapped
}

// Registry owns all mapped windows in map order.
type Registry struct {
	windows map[platform.WindowID]*Window
	order   []platform.WindowID
	focused platform.WindowID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{windows: make(map[platform.WindowID]*Window)}
}

// Map registers a newly mapped surface as unassigned.
func (r *Registry) Map(w Window) error {
	if _, ok := r.windows[w.ID]; ok {
		return fmt.Errorf("map window %d: %w", w.ID, ErrDuplicateWindow)
	}
	w.Zone = ""
	r.windows[w.ID] = &w
	r.order = append(r.order, w.ID)
	return nil
}

// Unmap destroys a window. If it had focus, focus is cleared.
func (r *Registry) Unmap(id platform.WindowID) (Window, error) {
	w, ok := r.windows[id]
	if !ok {
		return Window{}, fmt.Errorf("unmap window %d: %w", id, ErrUnknownWindow)
	}
	delete(r.windows, id)
	for i, wid := range r.order {
		if wid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.focused == id {
		r.focused = 0
	}
	return *w, nil
}

// Get returns a copy of a window.
func (r *Registry) Get(id platform.WindowID) (Window, bool) {
	w, ok := r.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// Len returns the number of mapped windows.
func (r *Registry) Len() int {
	return len(r.order)
}

// List returns all windows in map order.
func (r *Registry) List() []Window {
	list := make([]Window, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, *r.windows[id])
	}
	return list
}

// InSpace returns the windows living in a space.
func (r *Registry) InSpace(space string) []Window {
	var list []Window
	for _, id := range r.order {
		if w := r.windows[id]; w.Space == space {
			list = append(list, *w)
		}
	}
	return list
}

// Assign swaps a window's zone reference and geometry in one step.
func (r *Registry) Assign(id platform.WindowID, zone string, geometry platform.Rect) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("assign window %d: %w", id, ErrUnknownWindow)
	}
	w.Zone = zone
	w.Geometry = geometry
	return nil
}

// Unassign clears a window's zone reference and keeps its geometry.
func (r *Registry) Unassign(id platform.WindowID) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("unassign window %d: %w", id, ErrUnknownWindow)
	}
	w.Zone = ""
	return nil
}

// MoveToSpace moves a window to another space; it becomes unassigned.
func (r *Registry) MoveToSpace(id platform.WindowID, space string) error {
	w, ok := r.windows[id]
	if !ok {
		return fmt.Errorf("move window %d: %w", id, ErrUnknownWindow)
	}
	w.Space = space
	w.Zone = ""
	return nil
}

// UnassignWhere clears the zone of every assigned window in space for which
// drop returns true, and returns the affected ids.
func (r *Registry) UnassignWhere(space string, drop func(zone string) bool) []platform.WindowID {
	var affected []platform.WindowID
	for _, id := range r.order {
		w := r.windows[id]
		if w.Space != space || w.Zone == "" {
			continue
		}
		if drop(w.Zone) {
			w.Zone = ""
			affected = append(affected, id)
		}
	}
	return affected
}

// SetFocus records the focused window. Zero clears focus.
func (r *Registry) SetFocus(id platform.WindowID) error {
	if id == 0 {
		r.focused = 0
		return nil
	}
	if _, ok := r.windows[id]; !ok {
		return fmt.Errorf("focus window %d: %w", id, ErrUnknownWindow)
	}
	r.focused = id
	return nil
}

// Focused returns the focused window, if any.
func (r *Registry) Focused() (Window, bool) {
	if r.focused == 0 {
		return Window{}, false
	}
	return r.Get(r.focused)
}

// FindByAppID returns the first window in map order with the given app id.
func (r *Registry) FindByAppID(appID string) (Window, bool) {
	for _, id := range r.order {
		if w := r.windows[id]; w.AppID == appID {
			return *w, true
		}
	}
	return Window{}, false
}
