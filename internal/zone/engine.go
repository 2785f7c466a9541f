// Package zone computes and validates the named placement regions of each
// Space and resolves which zone a window lands in.
package zone

import (
	"errors"
	"fmt"
	"sort"

	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
)

var (
	ErrInvalidZoneGeometry  = errors.New("invalid zone geometry")
	ErrInvalidZoneName      = errors.New("invalid zone name")
	ErrDuplicateZoneName    = errors.New("duplicate zone name")
	ErrMultipleDefaultZones = errors.New("multiple default zones")
	ErrUnknownZone          = errors.New("unknown zone")
)

// Spec describes one zone in a set-zones request. Coordinates are relative to
// the origin of the space's output arrangement.
type Spec struct {
	Name    string `json:"name" yaml:"name"`
	X       int    `json:"x" yaml:"x"`
	Y       int    `json:"y" yaml:"y"`
	Width   int    `json:"width" yaml:"width"`
	Height  int    `json:"height" yaml:"height"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// Zone is a validated placement target.
type Zone struct {
	Name     string        `json:"name" yaml:"name"`
	Geometry platform.Rect `json:"geometry" yaml:"geometry"`
	Default  bool          `json:"default,omitempty" yaml:"default,omitempty"`
}

// set is the zone arena of one space. It is replaced wholesale, never patched.
type set struct {
	byName map[string]Zone
	order  []string
	def    string
}

// Engine holds one zone set per space.
type Engine struct {
	spaces map[string]*set
	gap    int
}

// NewEngine creates an engine that insets window geometry by gap pixels.
func NewEngine(gap int) *Engine {
	if gap < 0 {
		gap = 0
	}
	return &Engine{spaces: make(map[string]*set), gap: gap}
}

// Validate checks a set-zones request without applying it.
func Validate(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))
	defaultName := ""
	for _, s := range specs {
		if s.Name == "" {
			return fmt.Errorf("zone at %d,%d: %w", s.X, s.Y, ErrInvalidZoneName)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("zone %q: %dx%d: %w", s.Name, s.Width, s.Height, ErrInvalidZoneGeometry)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("zone %q: %w", s.Name, ErrDuplicateZoneName)
		}
		seen[s.Name] = struct{}{}
		if s.Default {
			if defaultName != "" {
				return fmt.Errorf("zones %q and %q: %w", defaultName, s.Name, ErrMultipleDefaultZones)
			}
			defaultName = s.Name
		}
	}
	return nil
}

// SetZones replaces every zone of space. On error the previous set is kept.
// It returns the names that existed before and are gone now.
func (e *Engine) SetZones(space string, specs []Spec) ([]string, error) {
	if err := Validate(specs); err != nil {
		return nil, fmt.Errorf("set zones for space %q: %w", space, err)
	}

	next := &set{byName: make(map[string]Zone, len(specs))}
	for _, s := range specs {
		next.byName[s.Name] = Zone{
			Name:     s.Name,
			Geometry: platform.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height},
			Default:  s.Default,
		}
		next.order = append(next.order, s.Name)
		if s.Default {
			next.def = s.Name
		}
	}

	var removed []string
	if prev, ok := e.spaces[space]; ok {
		for _, name := range prev.order {
			if _, still := next.byName[name]; !still {
				removed = append(removed, name)
			}
		}
	}
	e.spaces[space] = next
	return removed, nil
}

// Zones returns the zones of a space in definition order.
func (e *Engine) Zones(space string) []Zone {
	s, ok := e.spaces[space]
	if !ok {
		return nil
	}
	zones := make([]Zone, 0, len(s.order))
	for _, name := range s.order {
		zones = append(zones, s.byName[name])
	}
	return zones
}

// Spaces returns the names of spaces with a zone set, sorted.
func (e *Engine) Spaces() []string {
	names := make([]string, 0, len(e.spaces))
	for name := range e.spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a zone by name within a space.
func (e *Engine) Lookup(space, name string) (Zone, bool) {
	s, ok := e.spaces[space]
	if !ok {
		return Zone{}, false
	}
	z, ok := s.byName[name]
	return z, ok
}

// Default returns the default zone of a space, if one is marked.
func (e *Engine) Default(space string) (Zone, bool) {
	s, ok := e.spaces[space]
	if !ok || s.def == "" {
		return Zone{}, false
	}
	return s.byName[s.def], true
}

// Names returns every zone name of a space, for suggestions.
func (e *Engine) Names(space string) []string {
	s, ok := e.spaces[space]
	if !ok {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Hosted returns the zones of space whose area overlaps area. Both are in
// space-relative coordinates.
func (e *Engine) Hosted(space string, area platform.Rect) []string {
	var names []string
	for _, z := range e.Zones(space) {
		if z.Geometry.Intersects(area) {
			names = append(names, z.Name)
		}
	}
	return names
}

// Geometry converts a zone into absolute window geometry given the origin of
// its space.
func (e *Engine) Geometry(z Zone, origin platform.Rect) platform.Rect {
	return z.Geometry.Offset(origin.X, origin.Y).Inset(e.gap)
}

// Placement is the outcome of resolving where a window goes.
type Placement struct {
	Window   platform.WindowID
	Zone     string
	Geometry platform.Rect
	// Assigned is false when no target was given and the space has no default.
	Assigned bool
}

// ResolvePlacement picks the zone for w. A non-empty target must exist in the
// window's space. An empty target falls back to the space's default zone and
// leaves the window unassigned if there is none.
func (e *Engine) ResolvePlacement(w window.Window, target string, origin platform.Rect) (Placement, error) {
	if target == "" {
		z, ok := e.Default(w.Space)
		if !ok {
			return Placement{Window: w.ID, Geometry: w.Geometry}, nil
		}
		target = z.Name
	}
	z, ok := e.Lookup(w.Space, target)
	if !ok {
		return Placement{}, fmt.Errorf("zone %q in space %q: %w", target, w.Space, ErrUnknownZone)
	}
	return Placement{
		Window:   w.ID,
		Zone:     z.Name,
		Geometry: e.Geometry(z, origin),
		Assigned: true,
	}, nil
}
