package script

import (
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// newState creates a Lua state with only the pure libraries opened and the
// scape module preloaded for rt.
func (b *Bridge) newState(rt *runtime) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"dofile", "loadfile"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(b.luaPrint))

	modulePath := ""
	if b.moduleDir != "" {
		modulePath = filepath.Join(b.moduleDir, "?.lua")
	}
	pkg := L.GetGlobal("package")
	L.SetField(pkg, "path", lua.LString(modulePath))

	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(L.SetFuncs(L.NewTable(), b.exports(rt)))
		return 1
	})
	return L
}

func (b *Bridge) luaPrint(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	b.logger.Info(strings.Join(parts, "\t"), "source", "script")
	return 0
}
