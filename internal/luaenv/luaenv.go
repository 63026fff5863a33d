// Package luaenv creates the lua states used to run operator supplied
// scripts (config files and admin policies).
package luaenv

import lua "github.com/yuin/gopher-lua"

// New returns a state with only the base, table and string libs loaded.
// Scripts are trusted (they come from the operator) but have no business
// doing io or calling os functions.
func New() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: true,
	})
	Inject(L)
	return L
}

// Inject loads the default libs into L
func Inject(L *lua.LState) {
	for _, pair := range []struct {
		n string
		f lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage}, // Must be first
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.f),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.n)); err != nil {
			panic(err)
		}
	}
}
