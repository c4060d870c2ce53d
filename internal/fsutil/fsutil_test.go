package fsutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMoveDir(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "staging", "demo")
	dst := filepath.Join(tmp, "plugins", "demo_X1")
	writeTree(t, src, map[string]string{
		"plugin.json":  `{"id":"X1"}`,
		"lib/util.lua": "return {}",
	})

	if err := MoveDir(context.Background(), src, dst); err != nil {
		t.Fatalf("MoveDir() error: %v", err)
	}
	if DirExists(src) {
		t.Error("source still exists after move")
	}
	if _, err := os.Stat(filepath.Join(dst, "lib", "util.lua")); err != nil {
		t.Errorf("moved tree incomplete: %v", err)
	}
}

func TestMoveDir_ReplacesExisting(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "new")
	dst := filepath.Join(tmp, "old")
	writeTree(t, src, map[string]string{"a.txt": "new"})
	writeTree(t, dst, map[string]string{"stale.txt": "old"})

	if err := MoveDir(context.Background(), src, dst); err != nil {
		t.Fatalf("MoveDir() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "stale.txt")); !os.IsNotExist(err) {
		t.Error("stale content survived replacement")
	}
	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil || string(data) != "new" {
		t.Errorf("a.txt = %q, %v; want %q", data, err, "new")
	}
}

func TestMoveDir_MissingSource(t *testing.T) {
	tmp := t.TempDir()
	if err := MoveDir(context.Background(), filepath.Join(tmp, "nope"), filepath.Join(tmp, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}

	file := filepath.Join(tmp, "file")
	writeTree(t, tmp, map[string]string{"file": "x"})
	if err := MoveDir(context.Background(), file, filepath.Join(tmp, "dst")); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("MoveDir(file) error = %v, want ErrNotDirectory", err)
	}
}

func TestCopyDir(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "dst")
	writeTree(t, src, map[string]string{
		"main.lua":        "return {}",
		"lib/a/b/c.lua":   "return 1",
		"assets/icon.png": "\x89PNG",
	})
	if err := os.Chmod(filepath.Join(src, "main.lua"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir() error: %v", err)
	}
	for _, rel := range []string{"main.lua", "lib/a/b/c.lua", "assets/icon.png"} {
		if _, err := os.Stat(filepath.Join(dst, rel)); err != nil {
			t.Errorf("missing %s after copy: %v", rel, err)
		}
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dst, "main.lua"))
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("permissions = %o, want %o", perm, 0o600)
		}
	}
	if !DirExists(src) {
		t.Error("CopyDir must not remove the source")
	}
}

func TestRename_RefusesExistingTarget(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a")
	b := filepath.Join(tmp, "b")
	writeTree(t, a, map[string]string{"x": "1"})
	writeTree(t, b, map[string]string{"y": "2"})

	if err := Rename(context.Background(), a, b); !errors.Is(err, os.ErrExist) {
		t.Fatalf("Rename() error = %v, want ErrExist", err)
	}
	if err := os.RemoveAll(b); err != nil {
		t.Fatal(err)
	}
	if err := Rename(context.Background(), a, b); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}
}

func TestRemoveAll_Missing(t *testing.T) {
	if err := RemoveAll(context.Background(), filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Errorf("RemoveAll(missing) error: %v", err)
	}
}

func TestMarkers(t *testing.T) {
	dir := t.TempDir()
	if HasMarker(dir) {
		t.Fatal("fresh directory should not carry a marker")
	}
	for i := 0; i < 2; i++ {
		if err := WriteMarker(dir); err != nil {
			t.Fatalf("WriteMarker() #%d error: %v", i+1, err)
		}
	}
	if !HasMarker(dir) {
		t.Error("HasMarker() = false after WriteMarker")
	}
	info, err := os.Stat(filepath.Join(dir, "NeedDelete.txt"))
	if err != nil || info.Size() != 0 {
		t.Errorf("marker should be a zero-byte NeedDelete.txt, got %v, %v", info, err)
	}

	if err := WriteMarker(filepath.Join(dir, "absent")); err == nil {
		t.Error("WriteMarker() into a missing directory should fail")
	}
}

func TestUpgradeSuffix(t *testing.T) {
	dir := filepath.Join("plugins", "demo_X1")
	up := UpgradePath(dir)

	if filepath.Base(up) != "demo_X1_NeedUpgrade" {
		t.Errorf("UpgradePath() = %s", up)
	}
	if !IsUpgradePath(up) {
		t.Errorf("IsUpgradePath(%s) = false", up)
	}
	if IsUpgradePath(dir) || IsUpgradePath("_NeedUpgrade") {
		t.Error("IsUpgradePath() matched a non-upgrade name")
	}
	if got := TrimUpgradeSuffix(up); got != dir {
		t.Errorf("TrimUpgradeSuffix() = %s, want %s", got, dir)
	}
}

func TestRemoveMarker(t *testing.T) {
	dir := t.TempDir()
	if err := RemoveMarker(dir); err != nil {
		t.Fatalf("RemoveMarker() without marker error: %v", err)
	}
	if err := WriteMarker(dir); err != nil {
		t.Fatal(err)
	}
	if err := RemoveMarker(dir); err != nil {
		t.Fatalf("RemoveMarker() error: %v", err)
	}
	if HasMarker(dir) {
		t.Error("marker still present after RemoveMarker")
	}
}
