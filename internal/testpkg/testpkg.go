// Package testpkg builds package archives for tests.
package testpkg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Pkg describes a package archive to build.
type Pkg struct {
	ID         string
	Name       string
	Version    string
	Capability string // registered by the generated Lua entry; empty registers nothing
	Declared   string // written to the descriptor's capability field
	Entry      string // defaults to main.lua

	// Files adds or overrides archive entries. A nil value omits the entry,
	// which is how a test drops the descriptor or the entry module.
	Files map[string][]byte
}

// Descriptor renders the plugin.json for s.
func (s Pkg) Descriptor() []byte {
	d := map[string]string{
		"id":          s.ID,
		"name":        s.name(),
		"author":      "glossa tests",
		"version":     s.Version,
		"description": "test package " + s.ID,
		"entry":       s.entry(),
	}
	if s.Declared != "" {
		d["capability"] = s.Declared
	}
	data, _ := json.MarshalIndent(d, "", "  ")
	return data
}

// LuaEntry renders an entry module registering s.Capability.
func (s Pkg) LuaEntry() []byte {
	if s.Capability == "" {
		return []byte("local unused = true\n")
	}
	return []byte(fmt.Sprintf("return { name = %q, capability = %q }\n", s.name(), s.Capability))
}

func (s Pkg) name() string {
	if s.Name != "" {
		return s.Name
	}
	return "pkg-" + s.ID
}

func (s Pkg) entry() string {
	if s.Entry != "" {
		return s.Entry
	}
	return "main.lua"
}

// Entries returns the archive content of s.
func (s Pkg) Entries() map[string][]byte {
	files := map[string][]byte{
		"plugin.json": s.Descriptor(),
		s.entry():     s.LuaEntry(),
	}
	for name, data := range s.Files {
		if data == nil {
			delete(files, name)
			continue
		}
		files[name] = data
	}
	return files
}

// Write builds the archive for s at dir/fileName and returns its path.
func Write(t testing.TB, dir, fileName string, s Pkg) string {
	t.Helper()
	return WriteFiles(t, dir, fileName, s.Entries())
}

// WriteFiles builds a zip at dir/fileName with the given entries.
func WriteFiles(t testing.TB, dir, fileName string, files map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive %s: %v", path, err)
	}
	defer f.Close()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	w := zip.NewWriter(f)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if _, err := fw.Write(files[name]); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive %s: %v", path, err)
	}
	return path
}

// Unpack writes the content of s directly into dir, as if installed.
func Unpack(t testing.TB, dir string, s Pkg) {
	t.Helper()
	for name, data := range s.Entries() {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}
