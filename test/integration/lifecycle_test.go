//go:build integration

package integration_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glossa-app/glossa/internal/fsutil"
	"github.com/glossa-app/glossa/internal/plugin"
	"github.com/glossa-app/glossa/internal/testpkg"
)

func TestLifecycleAcrossRestarts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	pkg := testpkg.Pkg{ID: "X1", Name: "Demo", Version: "1.0.0", Capability: "translate"}

	// First start: install v1.
	m := env.start(t)
	v1 := env.download(t, "v1", "demo.spkg", pkg)
	out := m.Install(ctx, v1)
	if !out.OK() {
		t.Fatalf("Install v1: %v", out.Err)
	}
	installed := out.Metadata.Directory
	if want := env.Layout.CanonicalInstallDir("X1", "demo", false); installed != want {
		t.Errorf("Directory = %q, want %q", installed, want)
	}
	writeFile(t, filepath.Join(out.Metadata.SettingsDirectory, "settings.json"), `{"key":"v1"}`)

	// Second start: v1 is still there; upgrade to v2.
	m = env.start(t)
	if got := registered(m, "X1"); got != "1.0.0" {
		t.Fatalf("registered version = %q, want 1.0.0", got)
	}
	pkg.Version = "2.0.0"
	v2 := env.download(t, "v2", "demo.spkg", pkg)
	out = m.Install(ctx, v2)
	if out.Kind != plugin.OutcomeUpgradeRequired {
		t.Fatalf("Install v2 kind = %v, want upgrade_required (%v)", out.Kind, out.Err)
	}
	if ok, err := m.Upgrade(ctx, out.Existing, v2); !ok || err != nil {
		t.Fatalf("Upgrade = %v, %v", ok, err)
	}
	assertDirExists(t, fsutil.UpgradePath(installed))

	// Third start: the upgrade is applied in place and settings survive.
	m = env.start(t)
	if got := registered(m, "X1"); got != "2.0.0" {
		t.Fatalf("registered version after upgrade = %q, want 2.0.0", got)
	}
	assertNotExists(t, fsutil.UpgradePath(installed))
	assertFileContains(t, filepath.Join(installed, "plugin.json"), `"2.0.0"`)
	assertFileExists(t, filepath.Join(env.Layout.Settings, "demo_X1", "settings.json"))

	// Uninstall, then the fourth start sweeps everything.
	meta, _ := m.Get("X1")
	if ok, err := m.Uninstall(ctx, meta); !ok || err != nil {
		t.Fatalf("Uninstall = %v, %v", ok, err)
	}
	m = env.start(t)
	if got := registered(m, "X1"); got != "" {
		t.Errorf("registered version after uninstall = %q, want none", got)
	}
	assertNotExists(t, installed)
	assertNotExists(t, filepath.Join(env.Layout.Settings, "demo_X1"))
}

func TestRecoveryFromInterruptedUpgrade(t *testing.T) {
	env := setupTestEnv(t)

	// The old copy was marked but a crash left it in place, next to the
	// staged replacement.
	old := filepath.Join(env.Layout.Packages, "demo_X1")
	testpkg.Unpack(t, old, testpkg.Pkg{ID: "X1", Version: "1.0.0", Capability: "ocr"})
	if err := fsutil.WriteMarker(old); err != nil {
		t.Fatal(err)
	}
	testpkg.Unpack(t, fsutil.UpgradePath(old), testpkg.Pkg{ID: "X1", Version: "1.1.0", Capability: "ocr"})

	// Leftover staging from an install that never finished.
	writeFile(t, filepath.Join(env.Layout.Staging, "half", "plugin.json"), "{")

	m := env.start(t)
	if got := registered(m, "X1"); got != "1.1.0" {
		t.Errorf("registered version = %q, want 1.1.0", got)
	}
	assertNotExists(t, fsutil.UpgradePath(old))

	if err := m.CleanupStaging(context.Background()); err != nil {
		t.Fatalf("CleanupStaging: %v", err)
	}
	assertNotExists(t, env.Layout.Staging)
}

func TestPreinstalledWinsOverOlderUserCopy(t *testing.T) {
	env := setupTestEnv(t)
	testpkg.Unpack(t, filepath.Join(env.Layout.Preinstalled, "youdao"),
		testpkg.Pkg{ID: "P1", Name: "Youdao", Version: "2.0.0", Capability: "dictionary"})
	testpkg.Unpack(t, filepath.Join(env.Layout.Packages, "youdao_P1"),
		testpkg.Pkg{ID: "P1", Name: "Youdao", Version: "1.5.0", Capability: "dictionary"})

	m := env.start(t, plugin.WithPreinstalledIDs("P1"))
	meta, ok := m.Get("P1")
	if !ok {
		t.Fatal("P1 not registered")
	}
	if meta.Version != "2.0.0" || !meta.Preinstalled {
		t.Errorf("P1 = v%s preinstalled=%v, want v2.0.0 preinstalled", meta.Version, meta.Preinstalled)
	}
	if n := len(m.List()); n != 1 {
		t.Errorf("len(List()) = %d, want 1", n)
	}
}
