// Package output tracks connected displays, their configuration and the
// Spaces they are grouped into.
package output

import (
	"errors"
	"fmt"

	"github.com/1broseidon/scape/internal/platform"
)

var (
	ErrDuplicateConnector = errors.New("duplicate connector")
	ErrUnknownOutput      = errors.New("unknown output")
	ErrInvalidGeometry    = errors.New("invalid output geometry")
)

// State is the lifecycle state of an output.
type State string

const (
	StateDisconnected State = "disconnected"
	StatePending      State = "pending"
	StateActive       State = "active"
)

// Output is a physical display and its configured geometry.
type Output struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Geometry    platform.Rect `json:"geometry" yaml:"geometry"`
	Scale       float64       `json:"scale" yaml:"scale"`
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	Space       string        `json:"space,omitempty" yaml:"space,omitempty"`
	// Primary marks the output new windows of its space land on.
	Primary bool  `json:"primary,omitempty" yaml:"primary,omitempty"`
	State   State `json:"state" yaml:"state"`
}

// Config is a layout assignment for one output.
type Config struct {
	Name     string
	Geometry platform.Rect
	Scale    float64
	Primary  bool
	Disabled bool
}

// Registry holds outputs in connection order. It is not safe for concurrent
// use; the orchestrator is its only writer.
type Registry struct {
	outputs map[string]*Output
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{outputs: make(map[string]*Output)}
}

// Add registers a newly connected output in the pending state.
func (r *Registry) Add(o Output) error {
	if _, ok := r.outputs[o.Name]; ok {
		return fmt.Errorf("add output %q: %w", o.Name, ErrDuplicateConnector)
	}
	if o.Geometry.Width < 0 || o.Geometry.Height < 0 {
		return fmt.Errorf("add output %q %s: %w", o.Name, o.Geometry, ErrInvalidGeometry)
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	o.Enabled = false
	o.Space = ""
	o.Primary = false
	o.State = StatePending
	r.outputs[o.Name] = &o
	r.order = append(r.order, o.Name)
	return nil
}

// Remove drops an output and returns its last known state, including the
// space it belonged to so the caller can cascade.
func (r *Registry) Remove(name string) (Output, error) {
	o, ok := r.outputs[name]
	if !ok {
		return Output{}, fmt.Errorf("remove output %q: %w", name, ErrUnknownOutput)
	}
	delete(r.outputs, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	removed := *o
	removed.State = StateDisconnected
	return removed, nil
}

// Get returns a copy of the named output.
func (r *Registry) Get(name string) (Output, bool) {
	o, ok := r.outputs[name]
	if !ok {
		return Output{}, false
	}
	return *o, true
}

// Len returns the number of connected outputs.
func (r *Registry) Len() int {
	return len(r.order)
}

// List returns all outputs in insertion order.
func (r *Registry) List() []Output {
	list := make([]Output, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, *r.outputs[name])
	}
	return list
}

// NameAt returns the name of the output at index i of List order.
func (r *Registry) NameAt(i int) (string, bool) {
	if i < 0 || i >= len(r.order) {
		return "", false
	}
	return r.order[i], true
}

// Configure assigns an output to a space and activates it. A disabled config
// leaves the output pending with no space.
func (r *Registry) Configure(space string, cfg Config) (Output, error) {
	o, ok := r.outputs[cfg.Name]
	if !ok {
		return Output{}, fmt.Errorf("configure output %q: %w", cfg.Name, ErrUnknownOutput)
	}
	if cfg.Geometry.Width < 0 || cfg.Geometry.Height < 0 {
		return Output{}, fmt.Errorf("configure output %q %s: %w", cfg.Name, cfg.Geometry, ErrInvalidGeometry)
	}
	if cfg.Disabled || space == "" {
		o.Enabled = false
		o.Space = ""
		o.Primary = false
		o.State = StatePending
		return *o, nil
	}

	o.Geometry = cfg.Geometry
	if cfg.Scale > 0 {
		o.Scale = cfg.Scale
	}
	o.Enabled = true
	o.Space = space
	o.Primary = cfg.Primary
	o.State = StateActive
	if cfg.Primary {
		for _, other := range r.outputs {
			if other != o && other.Space == space {
				other.Primary = false
			}
		}
	}
	return *o, nil
}

// Unassign returns an output to the pending state and clears its space.
func (r *Registry) Unassign(name string) error {
	o, ok := r.outputs[name]
	if !ok {
		return fmt.Errorf("unassign output %q: %w", name, ErrUnknownOutput)
	}
	o.Enabled = false
	o.Space = ""
	o.Primary = false
	o.State = StatePending
	return nil
}

// Spaces returns the names of spaces with at least one enabled output, in the
// order their first output connected.
func (r *Registry) Spaces() []string {
	seen := make(map[string]struct{})
	var spaces []string
	for _, name := range r.order {
		o := r.outputs[name]
		if !o.Enabled || o.Space == "" {
			continue
		}
		if _, ok := seen[o.Space]; ok {
			continue
		}
		seen[o.Space] = struct{}{}
		spaces = append(spaces, o.Space)
	}
	return spaces
}

// SpaceOutputs returns the enabled outputs of a space in insertion order.
func (r *Registry) SpaceOutputs(space string) []Output {
	var outputs []Output
	for _, name := range r.order {
		o := r.outputs[name]
		if o.Enabled && o.Space == space {
			outputs = append(outputs, *o)
		}
	}
	return outputs
}

// SpaceBounds returns the bounding box of a space's enabled outputs.
func (r *Registry) SpaceBounds(space string) platform.Rect {
	var bounds platform.Rect
	for _, o := range r.SpaceOutputs(space) {
		bounds = bounds.Union(o.Geometry)
	}
	return bounds
}

// PrimarySpace returns the space new windows should land in: the space of the
// first primary output, else of the first enabled output.
func (r *Registry) PrimarySpace() (string, bool) {
	var fallback string
	for _, name := range r.order {
		o := r.outputs[name]
		if !o.Enabled || o.Space == "" {
			continue
		}
		if o.Primary {
			return o.Space, true
		}
		if fallback == "" {
			fallback = o.Space
		}
	}
	return fallback, fallback != ""
}
