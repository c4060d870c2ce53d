//go:build integration

package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glossa-app/glossa/internal/paths"
	"github.com/glossa-app/glossa/internal/plugin"
	"github.com/glossa-app/glossa/internal/testpkg"
)

// testEnv holds an isolated directory layout and a download folder for
// package files.
type testEnv struct {
	Layout    paths.Layout
	Downloads string
}

// setupTestEnv creates isolated temp directories and points the GLOSSA_*
// root variables at them, so that paths.DefaultLayout resolves the same
// layout. The env vars are restored after the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := t.TempDir()
	env := &testEnv{
		Layout:    paths.NewLayout(base),
		Downloads: filepath.Join(base, "downloads"),
	}

	t.Setenv("GLOSSA_PREINSTALLED", env.Layout.Preinstalled)
	t.Setenv("GLOSSA_PACKAGES", env.Layout.Packages)
	t.Setenv("GLOSSA_SETTINGS", env.Layout.Settings)
	t.Setenv("GLOSSA_CACHE", env.Layout.Cache)
	t.Setenv("GLOSSA_STAGING", env.Layout.Staging)

	if err := os.MkdirAll(env.Downloads, 0755); err != nil {
		t.Fatalf("creating downloads dir: %v", err)
	}
	return env
}

// start simulates an application start: a fresh Manager over the same
// directories, loaded once.
func (e *testEnv) start(t *testing.T, opts ...plugin.Option) *plugin.Manager {
	t.Helper()
	layout, err := paths.DefaultLayout()
	if err != nil {
		t.Fatalf("DefaultLayout: %v", err)
	}
	if layout != e.Layout {
		t.Fatalf("DefaultLayout = %+v, want %+v", layout, e.Layout)
	}

	m := plugin.New(append([]plugin.Option{plugin.WithLayout(layout)}, opts...)...)
	t.Cleanup(m.Close)
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

// download writes a package file into its own subfolder of Downloads, so
// that several versions can share an archive name.
func (e *testEnv) download(t *testing.T, folder, name string, s testpkg.Pkg) string {
	t.Helper()
	dir := filepath.Join(e.Downloads, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	return testpkg.Write(t, dir, name, s)
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertNotExists fails the test if the path exists.
func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected path NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}

// registered returns the version registered for id, or "" if absent.
func registered(m *plugin.Manager, id string) string {
	meta, ok := m.Get(id)
	if !ok {
		return ""
	}
	return meta.Version
}
