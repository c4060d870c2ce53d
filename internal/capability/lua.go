package capability

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaTimeout bounds the execution of a module's top-level chunk.
const DefaultLuaTimeout = 5 * time.Second

// registerFunc is the optional global a module may define instead of
// returning its registration table.
const registerFunc = "register"

// LuaLoader executes a Lua entry module and reads its registration table:
//
//	return { name = "bing-dict", capability = "dictionary" }
//
// Modules may instead define a global register() returning the same table.
// Sibling modules are resolvable through require from the entry's directory
// and its lib/ subdirectory.
type LuaLoader struct {
	timeout time.Duration
}

// LuaOption configures a LuaLoader.
type LuaOption func(*LuaLoader)

// WithLuaTimeout sets the execution timeout for the module chunk.
func WithLuaTimeout(d time.Duration) LuaOption {
	return func(l *LuaLoader) {
		l.timeout = d
	}
}

// NewLuaLoader creates a LuaLoader.
func NewLuaLoader(opts ...LuaOption) *LuaLoader {
	l := &LuaLoader{timeout: DefaultLuaTimeout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs the module in a fresh state and inspects what it registers.
func (l *LuaLoader) Load(ctx context.Context, req Request) (*Module, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openLibraries(L)
	setSearchPath(L, filepath.Dir(req.EntryPath))

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	L.SetContext(ctx)

	fn, err := L.LoadFile(req.EntryPath)
	if err != nil {
		return nil, loadError(req.EntryPath, ErrModuleLoad, err)
	}

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return nil, loadError(req.EntryPath, classify(err), err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		if reg, isFn := L.GetGlobal(registerFunc).(*lua.LFunction); isFn {
			if err := L.CallByParam(lua.P{Fn: reg, NRet: 1, Protect: true}); err != nil {
				return nil, loadError(req.EntryPath, classify(err), err)
			}
			tbl, ok = L.Get(-1).(*lua.LTable)
			L.Pop(1)
		}
	}
	if !ok || tbl == nil {
		return nil, loadError(req.EntryPath, ErrNoCapabilityFound, nil)
	}

	exported := lua.LVAsString(tbl.RawGetString("capability"))
	if exported == "" {
		return nil, loadError(req.EntryPath, ErrNoCapabilityFound, nil)
	}
	c, err := Parse(exported)
	if err != nil {
		return nil, loadError(req.EntryPath, ErrNoCapabilityFound, err)
	}

	if req.Declared != "" {
		declared, err := Parse(req.Declared)
		if err != nil || declared != c {
			return nil, loadError(req.EntryPath, ErrModuleLoad,
				fmt.Errorf("module registers %q but descriptor declares %q", c, req.Declared))
		}
	}

	name := lua.LVAsString(tbl.RawGetString("name"))
	if name == "" {
		name = moduleName(req.EntryPath)
	}

	return &Module{Name: name, Capability: c}, nil
}

// openLibraries opens the libraries a capability module needs to register.
// io, os and debug stay closed.
func openLibraries(L *lua.LState) {
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
}

// setSearchPath confines require to the package directory.
func setSearchPath(L *lua.LState, dir string) {
	pkg, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	path := strings.Join([]string{
		filepath.Join(dir, "?.lua"),
		filepath.Join(dir, "lib", "?.lua"),
	}, ";")
	L.SetField(pkg, "path", lua.LString(path))
}

// classify maps a runtime error to a failure class. A failed require is a
// missing dependency.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "module ") && strings.Contains(msg, "not found") {
		return ErrModuleNotFound
	}
	return ErrModuleLoad
}
