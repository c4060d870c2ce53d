package capability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Module is the result of a successful load.
type Module struct {
	Name       string
	Capability Capability
}

// Request describes the module to load. Declared is the capability named in
// the package descriptor and may be empty.
type Request struct {
	EntryPath string
	Declared  string
}

// Loader loads a package's code module and reports its capability.
type Loader interface {
	Load(ctx context.Context, req Request) (*Module, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, req Request) (*Module, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, req Request) (*Module, error) {
	return f(ctx, req)
}

// Host picks a Loader by entry file extension. It is the only place where
// third-party code runs, so every failure, including a panic, comes back as a
// *LoadError.
type Host struct {
	loaders  map[string]Loader
	fallback Loader
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLoader registers l for entry files with the given extension (".lua").
func WithLoader(ext string, l Loader) HostOption {
	return func(h *Host) {
		h.loaders[strings.ToLower(ext)] = l
	}
}

// WithFallback sets the loader used when no extension matches.
func WithFallback(l Loader) HostOption {
	return func(h *Host) {
		h.fallback = l
	}
}

// NewHost creates a Host with the Lua loader for ".lua" entries and the
// declared-capability loader for everything else.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		loaders:  map[string]Loader{".lua": NewLuaLoader()},
		fallback: DeclaredLoader{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load resolves the loader for req.EntryPath and runs it.
func (h *Host) Load(ctx context.Context, req Request) (mod *Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			mod = nil
			err = loadError(req.EntryPath, ErrModuleLoad, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, loadError(req.EntryPath, ErrModuleLoad, err)
	}

	info, statErr := os.Stat(req.EntryPath)
	if statErr != nil || info.IsDir() {
		return nil, loadError(req.EntryPath, ErrModuleNotFound, statErr)
	}

	l, ok := h.loaders[strings.ToLower(filepath.Ext(req.EntryPath))]
	if !ok {
		l = h.fallback
	}

	mod, err = l.Load(ctx, req)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, loadError(req.EntryPath, ErrModuleLoad, err)
	}
	if mod == nil || !mod.Capability.Valid() {
		return nil, loadError(req.EntryPath, ErrNoCapabilityFound, nil)
	}
	return mod, nil
}

// moduleName derives a module name from the entry file name.
func moduleName(entryPath string) string {
	base := filepath.Base(entryPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
