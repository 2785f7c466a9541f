package script

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

func fieldString(t *lua.LTable, key string) (string, bool) {
	v := t.RawGetString(key)
	if v.Type() != lua.LTString && v.Type() != lua.LTNumber {
		return "", false
	}
	return lua.LVAsString(v), true
}

func fieldInt(t *lua.LTable, key string) (int, bool) {
	v := t.RawGetString(key)
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, false
	}
	return int(n), true
}

func fieldFloat(t *lua.LTable, key string) (float64, bool) {
	v := t.RawGetString(key)
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, false
	}
	return float64(n), true
}

func fieldBool(t *lua.LTable, key string) bool {
	return lua.LVAsBool(t.RawGetString(key))
}

func stringList(v lua.LValue) []string {
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		out = append(out, lua.LVAsString(t.RawGetInt(i)))
	}
	return out
}

// sequence returns the array part of t in order.
func sequence(t *lua.LTable) []lua.LValue {
	out := make([]lua.LValue, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		out = append(out, t.RawGetInt(i))
	}
	return out
}

func zoneSpec(v lua.LValue) (zone.Spec, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return zone.Spec{}, fmt.Errorf("zone must be a table, got %s", v.Type())
	}
	name, ok := fieldString(t, "name")
	if !ok {
		return zone.Spec{}, fmt.Errorf("zone is missing a name")
	}
	spec := zone.Spec{Name: name, Default: fieldBool(t, "default")}
	for _, f := range []struct {
		key string
		dst *int
	}{{"x", &spec.X}, {"y", &spec.Y}, {"width", &spec.Width}, {"height", &spec.Height}} {
		n, ok := fieldInt(t, f.key)
		if !ok {
			return zone.Spec{}, fmt.Errorf("zone %q: %s must be a number", name, f.key)
		}
		*f.dst = n
	}
	return spec, nil
}

func outputLayout(v lua.LValue) (OutputLayout, error) {
	t, ok := v.(*lua.LTable)
	if !ok {
		return OutputLayout{}, fmt.Errorf("output config must be a table, got %s", v.Type())
	}
	var l OutputLayout
	l.Name, _ = fieldString(t, "name")
	l.Index, _ = fieldInt(t, "index")
	if l.Name == "" && l.Index == 0 {
		return OutputLayout{}, fmt.Errorf("output config needs a name or an index")
	}
	l.X, _ = fieldInt(t, "x")
	l.Y, _ = fieldInt(t, "y")
	l.Width, _ = fieldInt(t, "width")
	l.Height, _ = fieldInt(t, "height")
	l.Scale, _ = fieldFloat(t, "scale")
	l.Default = fieldBool(t, "default")
	l.Disabled = fieldBool(t, "disabled")
	return l, nil
}

// layout parses { [space] = { output_config, ... } }.
func layout(t *lua.LTable) (SetLayout, error) {
	var (
		cmd     SetLayout
		errOut  error
		spaces  = map[string][]OutputLayout{}
		ordered []string
	)
	t.ForEach(func(k, v lua.LValue) {
		if errOut != nil {
			return
		}
		space, ok := k.(lua.LString)
		if !ok {
			errOut = fmt.Errorf("space names must be strings, got %s", k.Type())
			return
		}
		list, ok := v.(*lua.LTable)
		if !ok {
			errOut = fmt.Errorf("space %q: expected a list of outputs", string(space))
			return
		}
		var outputs []OutputLayout
		for _, item := range sequence(list) {
			l, err := outputLayout(item)
			if err != nil {
				errOut = fmt.Errorf("space %q: %w", string(space), err)
				return
			}
			outputs = append(outputs, l)
		}
		spaces[string(space)] = outputs
		ordered = append(ordered, string(space))
	})
	if errOut != nil {
		return SetLayout{}, errOut
	}
	sort.Strings(ordered)
	for _, name := range ordered {
		cmd.Spaces = append(cmd.Spaces, SpaceLayout{Space: name, Outputs: spaces[name]})
	}
	return cmd, nil
}

func outputRecord(L *lua.LState, index int, o output.Output) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("index", lua.LNumber(index))
	t.RawSetString("name", lua.LString(o.Name))
	t.RawSetString("x", lua.LNumber(o.Geometry.X))
	t.RawSetString("y", lua.LNumber(o.Geometry.Y))
	t.RawSetString("width", lua.LNumber(o.Geometry.Width))
	t.RawSetString("height", lua.LNumber(o.Geometry.Height))
	t.RawSetString("scale", lua.LNumber(o.Scale))
	t.RawSetString("default", lua.LBool(o.Primary))
	t.RawSetString("disabled", lua.LBool(false))
	if o.Description != "" {
		t.RawSetString("description", lua.LString(o.Description))
	}
	if o.Space != "" {
		t.RawSetString("space", lua.LString(o.Space))
	}
	t.RawSetString("state", lua.LString(string(o.State)))
	return t
}

func windowRecord(L *lua.LState, w window.Window) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LNumber(w.ID))
	t.RawSetString("app_id", lua.LString(w.AppID))
	t.RawSetString("title", lua.LString(w.Title))
	t.RawSetString("space", lua.LString(w.Space))
	if w.Zone != "" {
		t.RawSetString("zone", lua.LString(w.Zone))
	}
	t.RawSetString("x", lua.LNumber(w.Geometry.X))
	t.RawSetString("y", lua.LNumber(w.Geometry.Y))
	t.RawSetString("width", lua.LNumber(w.Geometry.Width))
	t.RawSetString("height", lua.LNumber(w.Geometry.Height))
	return t
}

func zoneRecord(L *lua.LState, z zone.Zone) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(z.Name))
	t.RawSetString("x", lua.LNumber(z.Geometry.X))
	t.RawSetString("y", lua.LNumber(z.Geometry.Y))
	t.RawSetString("width", lua.LNumber(z.Geometry.Width))
	t.RawSetString("height", lua.LNumber(z.Geometry.Height))
	t.RawSetString("default", lua.LBool(z.Default))
	return t
}

func specTable(L *lua.LState, specs []zone.Spec) *lua.LTable {
	t := L.NewTable()
	for _, s := range specs {
		z := L.NewTable()
		z.RawSetString("name", lua.LString(s.Name))
		z.RawSetString("x", lua.LNumber(s.X))
		z.RawSetString("y", lua.LNumber(s.Y))
		z.RawSetString("width", lua.LNumber(s.Width))
		z.RawSetString("height", lua.LNumber(s.Height))
		if s.Default {
			z.RawSetString("default", lua.LTrue)
		}
		t.Append(z)
	}
	return t
}
