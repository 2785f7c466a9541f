package compositor

import (
	"fmt"
	"strings"

	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/script"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// Command errors reported as configuration errors.
var (
	ErrInvalidLayout  = diag.Sentinel(diag.ConfigurationError, "invalid layout")
	ErrInvalidCommand = diag.Sentinel(diag.ConfigurationError, "invalid command")
)

// apply drains a command batch in order. Each command either applies fully or
// is dropped and reported; earlier commands are never rolled back.
func (c *Compositor) apply(cc *cycleCtx, cmds []script.Command) []error {
	var errs []error
	for _, cmd := range cmds {
		ctx, span := c.tracer.Start(cc.ctx, "command."+cmd.Op())
		if err := c.applyOne(cmd); err != nil {
			err = fmt.Errorf("%s: %w", cmd.Op(), err)
			c.report(ctx, cc.id, diag.Classify(err), cmd.Op(), err)
			errs = append(errs, err)
		}
		span.End()
	}
	return errs
}

func (c *Compositor) applyOne(cmd script.Command) error {
	switch cmd := cmd.(type) {
	case script.SetLayout:
		return c.applyLayout(cmd)
	case script.SetZones:
		return c.applyZones(cmd)
	case script.MoveToZone:
		w, err := c.targetWindow(cmd.Window)
		if err != nil {
			return err
		}
		_, err = c.place(w, cmd.Zone)
		return err
	case script.Spawn:
		return c.spawn(cmd)
	case script.MapKey:
		if cmd.Key == "" {
			return fmt.Errorf("empty key: %w", ErrInvalidCommand)
		}
		if len(cmd.Unknown) > 0 {
			err := fmt.Errorf("key %s: %w %s", cmd.Key, keymap.ErrUnknownModifier, strings.Join(cmd.Unknown, "|"))
			return diag.WithSuggestion(err, cmd.Unknown[0], keymap.KnownModifiers())
		}
		if !c.bridge.HasCallback(cmd.Callback) {
			return fmt.Errorf("key %s: %w", cmd.Key, script.ErrUnknownCallback)
		}
		if prev, replaced := c.keys.Register(keymap.Binding{Key: cmd.Key, Mods: cmd.Mods, Callback: cmd.Callback}); replaced {
			c.logger.Debug("key binding replaced", "chord", prev.Chord().String())
		}
		c.keysDirty = true
		return nil
	case script.AddWindowRule:
		if cmd.AppID == "" || cmd.Zone == "" {
			return fmt.Errorf("window rule needs app id and zone: %w", ErrInvalidCommand)
		}
		for i, r := range c.rules {
			if r.AppID == cmd.AppID {
				c.rules[i].Zone = cmd.Zone
				return nil
			}
		}
		c.rules = append(c.rules, WindowRule{AppID: cmd.AppID, Zone: cmd.Zone})
		return nil
	case script.FocusOrSpawn:
		if w, ok := c.windows.FindByAppID(cmd.AppID); ok {
			return c.focus(w.ID)
		}
		return c.spawn(cmd.Spawn)
	case script.CloseWindow:
		w, ok := c.windows.Focused()
		if !ok {
			return ErrNoFocusedWindow
		}
		c.backend.CloseWindow(w.ID)
		return nil
	case script.FocusWindow:
		return c.focus(cmd.Window)
	case script.Quit:
		c.quitting = true
		return nil
	case script.SwitchVT:
		if cmd.VT < 1 {
			return fmt.Errorf("vt %d: %w", cmd.VT, ErrInvalidCommand)
		}
		c.backend.SwitchVT(cmd.VT)
		return nil
	case script.SetEnv:
		if cmd.Name == "" {
			return fmt.Errorf("empty variable name: %w", ErrInvalidCommand)
		}
		c.env[cmd.Name] = cmd.Value
		return nil
	default:
		return fmt.Errorf("unsupported command %T: %w", cmd, ErrInvalidCommand)
	}
}

// applyLayout validates the whole assignment before touching any output, so a
// bad entry drops the command as a unit. Outputs not listed return to pending.
func (c *Compositor) applyLayout(cmd script.SetLayout) error {
	type assignment struct {
		space string
		cfg   output.Config
	}
	var (
		plan   []assignment
		listed = make(map[string]bool)
		names  = c.outputNames()
	)
	for _, sl := range cmd.Spaces {
		if sl.Space == "" {
			return fmt.Errorf("empty space name: %w", ErrInvalidLayout)
		}
		for _, ol := range sl.Outputs {
			name := ol.Name
			if name == "" {
				n, ok := c.outputs.NameAt(ol.Index - 1)
				if !ok {
					return fmt.Errorf("output index %d: %w", ol.Index, output.ErrUnknownOutput)
				}
				name = n
			}
			cur, ok := c.outputs.Get(name)
			if !ok {
				return diag.WithSuggestion(fmt.Errorf("output %q: %w", name, output.ErrUnknownOutput), name, names)
			}
			if listed[name] {
				return fmt.Errorf("output %q assigned twice: %w", name, ErrInvalidLayout)
			}
			listed[name] = true

			geom := platform.Rect{X: ol.X, Y: ol.Y, Width: ol.Width, Height: ol.Height}
			if geom.Width == 0 {
				geom.Width = cur.Geometry.Width
			}
			if geom.Height == 0 {
				geom.Height = cur.Geometry.Height
			}
			if geom.Width < 0 || geom.Height < 0 {
				return fmt.Errorf("output %q %s: %w", name, geom, output.ErrInvalidGeometry)
			}
			plan = append(plan, assignment{space: sl.Space, cfg: output.Config{
				Name:     name,
				Geometry: geom,
				Scale:    ol.Scale,
				Primary:  ol.Default,
				Disabled: ol.Disabled,
			}})
		}
	}

	touched := make(map[string]bool)
	for _, o := range c.outputs.List() {
		if o.Space != "" {
			touched[o.Space] = true
		}
		if !listed[o.Name] {
			if err := c.outputs.Unassign(o.Name); err != nil {
				return err
			}
		}
	}
	for _, a := range plan {
		if _, err := c.outputs.Configure(a.space, a.cfg); err != nil {
			return err
		}
		touched[a.space] = true
	}
	for space := range touched {
		if len(c.outputs.SpaceOutputs(space)) > 0 {
			c.origins[space] = c.outputs.SpaceBounds(space)
		} else {
			delete(c.origins, space)
		}
	}
	for _, o := range c.outputs.List() {
		c.backend.ApplyOutputConfig(platform.OutputConfig{
			Name:     o.Name,
			Geometry: o.Geometry,
			Scale:    o.Scale,
			Enabled:  o.Enabled,
			Space:    o.Space,
		})
	}
	for space := range touched {
		c.relayout(space)
	}
	c.adoptOrphans()
	return nil
}

// adoptOrphans moves windows living in a space without enabled outputs to the
// primary space and places them like newly mapped windows.
func (c *Compositor) adoptOrphans() {
	primary, ok := c.outputs.PrimarySpace()
	if !ok {
		return
	}
	for _, w := range c.windows.List() {
		if w.Space == primary || len(c.outputs.SpaceOutputs(w.Space)) > 0 {
			continue
		}
		if err := c.windows.MoveToSpace(w.ID, primary); err != nil {
			continue
		}
		moved, _ := c.windows.Get(w.ID)
		if _, err := c.place(moved, c.initialZone(w.AppID, primary)); err != nil {
			c.logger.Warn("placing adopted window", "window", w.ID, "space", primary, "error", err)
			continue
		}
		c.logger.Debug("window moved to primary space", "window", w.ID, "from", w.Space, "to", primary)
	}
}

func (c *Compositor) applyZones(cmd script.SetZones) error {
	space := c.targetSpace(cmd.Space)
	removed, err := c.zones.SetZones(space, cmd.Zones)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		c.logger.Debug("zones removed", "space", space, "zones", removed)
	}
	affected := c.windows.UnassignWhere(space, func(z string) bool {
		_, ok := c.zones.Lookup(space, z)
		return !ok
	})
	c.emitUnassigned(affected)
	c.relayout(space)
	return nil
}

// targetSpace resolves an implicit space: the focused window's, then the
// primary output's, then the configured default.
func (c *Compositor) targetSpace(space string) string {
	if space != "" {
		return space
	}
	if w, ok := c.windows.Focused(); ok {
		return w.Space
	}
	if s, ok := c.outputs.PrimarySpace(); ok {
		return s
	}
	return c.defaultSpace
}

func (c *Compositor) targetWindow(id platform.WindowID) (window.Window, error) {
	if id == 0 {
		w, ok := c.windows.Focused()
		if !ok {
			return window.Window{}, ErrNoFocusedWindow
		}
		return w, nil
	}
	w, ok := c.windows.Get(id)
	if !ok {
		return window.Window{}, fmt.Errorf("window %d: %w", id, window.ErrUnknownWindow)
	}
	return w, nil
}

// place resolves and applies a placement. The geometry update is emitted even
// when the window is already in the target zone.
func (c *Compositor) place(w window.Window, target string) (zone.Placement, error) {
	p, err := c.zones.ResolvePlacement(w, target, c.spaceOrigin(w.Space))
	if err != nil {
		return p, diag.WithSuggestion(err, target, c.zones.Names(w.Space))
	}
	if p.Assigned {
		if err := c.windows.Assign(w.ID, p.Zone, p.Geometry); err != nil {
			return p, err
		}
		c.backend.UpdateWindowGeometry(w.ID, p.Geometry)
	} else if w.Zone != "" {
		if err := c.windows.Unassign(w.ID); err != nil {
			return p, err
		}
	}
	c.renderer.UpdatePlacement(platform.Placement{
		Window:   w.ID,
		Space:    w.Space,
		Zone:     p.Zone,
		Geometry: p.Geometry,
		Visible:  true,
	})
	return p, nil
}

// spaceOrigin returns the point zone geometry in a space is relative to: the
// bounds pinned by the last layout, else the current bounds of its outputs.
func (c *Compositor) spaceOrigin(space string) platform.Rect {
	if o, ok := c.origins[space]; ok {
		return o
	}
	return c.outputs.SpaceBounds(space)
}

// onOutput reports whether geom overlaps an enabled output of space. A space
// without outputs accepts any geometry.
func (c *Compositor) onOutput(space string, geom platform.Rect) bool {
	outputs := c.outputs.SpaceOutputs(space)
	if len(outputs) == 0 {
		return true
	}
	for _, o := range outputs {
		if o.Geometry.Intersects(geom) {
			return true
		}
	}
	return false
}

// relayout recomputes geometry for the assigned windows of a space and emits
// updates for those that moved. Windows whose zone no longer lands on any
// output of the space become unassigned.
func (c *Compositor) relayout(space string) {
	origin := c.spaceOrigin(space)
	for _, w := range c.windows.InSpace(space) {
		if w.Zone == "" {
			continue
		}
		z, ok := c.zones.Lookup(space, w.Zone)
		if !ok {
			_ = c.windows.Unassign(w.ID)
			c.emitUnassigned([]platform.WindowID{w.ID})
			continue
		}
		geom := c.zones.Geometry(z, origin)
		if !c.onOutput(space, geom) {
			_ = c.windows.Unassign(w.ID)
			c.emitUnassigned([]platform.WindowID{w.ID})
			continue
		}
		if geom == w.Geometry {
			continue
		}
		_ = c.windows.Assign(w.ID, z.Name, geom)
		c.backend.UpdateWindowGeometry(w.ID, geom)
		c.renderer.UpdatePlacement(platform.Placement{
			Window:   w.ID,
			Space:    space,
			Zone:     z.Name,
			Geometry: geom,
			Visible:  true,
		})
	}
}

func (c *Compositor) emitUnassigned(ids []platform.WindowID) {
	for _, id := range ids {
		w, ok := c.windows.Get(id)
		if !ok {
			continue
		}
		c.renderer.UpdatePlacement(platform.Placement{
			Window:   w.ID,
			Space:    w.Space,
			Geometry: w.Geometry,
			Visible:  true,
		})
	}
}

func (c *Compositor) focus(id platform.WindowID) error {
	if err := c.windows.SetFocus(id); err != nil {
		return err
	}
	c.backend.FocusWindow(id)
	return nil
}

func (c *Compositor) spawn(cmd script.Spawn) error {
	if cmd.Command == "" {
		return fmt.Errorf("empty command: %w", ErrInvalidCommand)
	}
	c.logger.Info("spawning process", "command", cmd.Command, "args", cmd.Args)
	c.spawner.Spawn(cmd.Command, cmd.Args, copyEnv(c.env))
	return nil
}

func (c *Compositor) outputNames() []string {
	list := c.outputs.List()
	names := make([]string, 0, len(list))
	for _, o := range list {
		names = append(names, o.Name)
	}
	return names
}
