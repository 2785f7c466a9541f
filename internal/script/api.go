package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/zone"
)

// exports builds the scape module table for one runtime. Every function that
// changes state appends a Command to rt.pending instead of acting directly.
func (b *Bridge) exports(rt *runtime) map[string]lua.LGFunction {
	enqueue := func(c Command) { rt.pending = append(rt.pending, c) }
	quit := func(L *lua.LState) int {
		enqueue(Quit{})
		return 0
	}
	moveToZone := func(L *lua.LState) int {
		name := L.CheckString(1)
		id := platform.WindowID(L.OptInt(2, 0))
		enqueue(MoveToZone{Window: id, Zone: name})
		return 0
	}

	return map[string]lua.LGFunction{
		"on_startup": func(L *lua.LState) int {
			fn := L.CheckFunction(1)
			if rt.startup.Valid() {
				delete(rt.callbacks, rt.startup)
			}
			rt.startup = b.register(rt, fn)
			return 0
		},
		"on_connector_change": func(L *lua.LState) int {
			fn := L.CheckFunction(1)
			if rt.connectorChange.Valid() {
				delete(rt.callbacks, rt.connectorChange)
			}
			rt.connectorChange = b.register(rt, fn)
			return 0
		},
		"set_layout": func(L *lua.LState) int {
			cmd, err := layout(L.CheckTable(1))
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			enqueue(cmd)
			return 0
		},
		"set_zones": func(L *lua.LState) int {
			list := L.CheckTable(1)
			space := L.OptString(2, "")
			specs := make([]zone.Spec, 0, list.Len())
			for _, item := range sequence(list) {
				spec, err := zoneSpec(item)
				if err != nil {
					L.ArgError(1, err.Error())
					return 0
				}
				specs = append(specs, spec)
			}
			enqueue(SetZones{Space: space, Zones: specs})
			return 0
		},
		"map_key": func(L *lua.LState) int {
			t := L.CheckTable(1)
			key, ok := fieldString(t, "key")
			if !ok || key == "" {
				L.ArgError(1, "map_key needs a key")
				return 0
			}
			fn, ok := t.RawGetString("callback").(*lua.LFunction)
			if !ok {
				L.ArgError(1, "map_key needs a callback function")
				return 0
			}
			modSpec, _ := fieldString(t, "mods")
			mods, unknown := keymap.ParseMods(modSpec)
			enqueue(MapKey{Key: key, Mods: mods, Unknown: unknown, Callback: b.register(rt, fn)})
			return 0
		},
		"move_to_zone":                moveToZone,
		"move_current_window_to_zone": moveToZone,
		"spawn": func(L *lua.LState) int {
			enqueue(spawnArg(L, 1))
			return 0
		},
		"focus_or_spawn": func(L *lua.LState) int {
			appID := L.CheckString(1)
			enqueue(FocusOrSpawn{AppID: appID, Spawn: spawnArg(L, 2)})
			return 0
		},
		"add_window_rule": func(L *lua.LState) int {
			t := L.CheckTable(1)
			appID, ok := fieldString(t, "app_id")
			if !ok {
				L.ArgError(1, "window rule needs an app_id")
				return 0
			}
			zoneName, ok := fieldString(t, "zone")
			if !ok {
				L.ArgError(1, "window rule needs a zone")
				return 0
			}
			enqueue(AddWindowRule{AppID: appID, Zone: zoneName})
			return 0
		},
		"close_current_window": func(L *lua.LState) int {
			enqueue(CloseWindow{})
			return 0
		},
		"focus_window": func(L *lua.LState) int {
			enqueue(FocusWindow{Window: platform.WindowID(L.CheckInt(1))})
			return 0
		},
		"vt_switch": func(L *lua.LState) int {
			enqueue(SwitchVT{VT: L.CheckInt(1)})
			return 0
		},
		"set_env": func(L *lua.LState) int {
			enqueue(SetEnv{Name: L.CheckString(1), Value: L.CheckString(2)})
			return 0
		},
		"quit":     quit,
		"shutdown": quit,
		"log": func(L *lua.LState) int {
			b.logger.Info(L.CheckString(1), "source", "script")
			return 0
		},

		"outputs": func(L *lua.LState) int {
			t := L.NewTable()
			if b.view != nil {
				for i, o := range b.view.Outputs() {
					t.Append(outputRecord(L, i+1, o))
				}
			}
			L.Push(t)
			return 1
		},
		"windows": func(L *lua.LState) int {
			t := L.NewTable()
			if b.view != nil {
				for _, w := range b.view.Windows() {
					t.Append(windowRecord(L, w))
				}
			}
			L.Push(t)
			return 1
		},
		"focused_window": func(L *lua.LState) int {
			if b.view == nil {
				L.Push(lua.LNil)
				return 1
			}
			w, ok := b.view.Focused()
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			L.Push(windowRecord(L, w))
			return 1
		},
		"zones": func(L *lua.LState) int {
			t := L.NewTable()
			if b.view != nil {
				space := L.OptString(1, "")
				if space == "" {
					if w, ok := b.view.Focused(); ok {
						space = w.Space
					}
				}
				for _, z := range b.view.Zones(space) {
					t.Append(zoneRecord(L, z))
				}
			}
			L.Push(t)
			return 1
		},

		"grid": func(L *lua.LState) int {
			t := L.CheckTable(1)
			bounds := boundsArg(t)
			rows, _ := fieldInt(t, "rows")
			cols, _ := fieldInt(t, "cols")
			if n, ok := fieldInt(t, "count"); ok && rows == 0 && cols == 0 {
				rows, cols = zone.CalculateGrid(n)
			}
			gap, _ := fieldInt(t, "gap")
			prefix, _ := fieldString(t, "prefix")
			specs, err := zone.GridSpecs(bounds, rows, cols, gap, prefix)
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			L.Push(specTable(L, specs))
			return 1
		},
		"master_stack": func(L *lua.LState) int {
			t := L.CheckTable(1)
			percent, ok := fieldInt(t, "master_percent")
			if !ok {
				percent = 60
			}
			rows, ok := fieldInt(t, "stack_rows")
			if !ok {
				rows = 1
			}
			gap, _ := fieldInt(t, "gap")
			specs, err := zone.MasterStackSpecs(boundsArg(t), percent, rows, gap)
			if err != nil {
				L.ArgError(1, err.Error())
				return 0
			}
			L.Push(specTable(L, specs))
			return 1
		},
	}
}

// spawnArg accepts either "command" or { command = "...", args = { ... } }.
func spawnArg(L *lua.LState, n int) Spawn {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return Spawn{Command: string(v)}
	case *lua.LTable:
		cmd, ok := fieldString(v, "command")
		if !ok || cmd == "" {
			L.ArgError(n, "spawn needs a command")
		}
		return Spawn{Command: cmd, Args: stringList(v.RawGetString("args"))}
	default:
		L.ArgError(n, "spawn expects a command string or table")
	}
	return Spawn{}
}

func boundsArg(t *lua.LTable) platform.Rect {
	var r platform.Rect
	r.X, _ = fieldInt(t, "x")
	r.Y, _ = fieldInt(t, "y")
	r.Width, _ = fieldInt(t, "width")
	r.Height, _ = fieldInt(t, "height")
	return r
}
