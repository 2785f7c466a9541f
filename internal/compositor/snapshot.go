package compositor

import (
	"context"

	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// SpaceState is one space with its zones.
type SpaceState struct {
	Name    string        `json:"name" yaml:"name"`
	Bounds  platform.Rect `json:"bounds" yaml:"bounds"`
	Outputs []string      `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Zones   []zone.Zone   `json:"zones" yaml:"zones"`
}

// BindingState describes one key binding.
type BindingState struct {
	Chord   string   `json:"chord" yaml:"chord"`
	Key     string   `json:"key" yaml:"key"`
	Mods    []string `json:"mods,omitempty" yaml:"mods,omitempty"`
	Builtin bool     `json:"builtin,omitempty" yaml:"builtin,omitempty"`
	Action  string   `json:"action,omitempty" yaml:"action,omitempty"`
}

// Snapshot is a consistent copy of the orchestrator state.
type Snapshot struct {
	Outputs  []output.Output   `json:"outputs" yaml:"outputs"`
	Windows  []window.Window   `json:"windows" yaml:"windows"`
	Focused  platform.WindowID `json:"focused,omitempty" yaml:"focused,omitempty"`
	Spaces   []SpaceState      `json:"spaces" yaml:"spaces"`
	Bindings []BindingState    `json:"bindings" yaml:"bindings"`
	Rules    []WindowRule      `json:"rules,omitempty" yaml:"rules,omitempty"`

	ScriptLoaded bool  `json:"script_loaded" yaml:"script_loaded"`
	ScriptLoads  int   `json:"script_loads" yaml:"script_loads"`
	Processed    int64 `json:"processed" yaml:"processed"`
	Dropped      int64 `json:"diagnostics_dropped" yaml:"diagnostics_dropped"`
}

// Snapshot asks the loop for a copy of the current state.
func (c *Compositor) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if err := c.Query(ctx, func() { snap = c.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Query runs fn on the loop goroutine between events and waits for it.
func (c *Compositor) Query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := c.Post(ctx, query{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snapshot must run on the loop goroutine.
func (c *Compositor) snapshot() Snapshot {
	snap := Snapshot{
		Outputs:      c.outputs.List(),
		Windows:      c.windows.List(),
		Rules:        append([]WindowRule(nil), c.rules...),
		ScriptLoaded: c.bridge.Loaded(),
		ScriptLoads:  c.bridge.Loads(),
		Processed:    c.processed.Load(),
		Dropped:      c.diag.Dropped(),
	}
	if w, ok := c.windows.Focused(); ok {
		snap.Focused = w.ID
	}

	seen := make(map[string]bool)
	addSpace := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		st := SpaceState{Name: name, Bounds: c.outputs.SpaceBounds(name), Zones: c.zones.Zones(name)}
		for _, o := range c.outputs.SpaceOutputs(name) {
			st.Outputs = append(st.Outputs, o.Name)
		}
		snap.Spaces = append(snap.Spaces, st)
	}
	for _, s := range c.outputs.Spaces() {
		addSpace(s)
	}
	for _, s := range c.zones.Spaces() {
		addSpace(s)
	}

	for _, b := range c.keys.Bindings() {
		snap.Bindings = append(snap.Bindings, BindingState{
			Chord:   b.Chord().String(),
			Key:     b.Key,
			Mods:    b.Mods.Names(),
			Builtin: b.Builtin(),
			Action:  b.Action.Kind,
		})
	}
	return snap
}

// stateView exposes registries to the script bridge. The bridge only calls it
// while a callback runs on the loop goroutine.
type stateView struct {
	c *Compositor
}

func (v stateView) Outputs() []output.Output { return v.c.outputs.List() }
func (v stateView) Windows() []window.Window { return v.c.windows.List() }
func (v stateView) Focused() (window.Window, bool) {
	return v.c.windows.Focused()
}
func (v stateView) Zones(space string) []zone.Zone {
	if space == "" {
		space = v.c.targetSpace("")
	}
	return v.c.zones.Zones(space)
}
