package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/spf13/viper"
)

// Directory name constants under the home directory.
const (
	PreinstalledDir = "Plugins"
	PackagesDir     = "packages"
	SettingsDir     = "settings"
	CacheDir        = "cache"
)

// Permission constants.
const (
	DirPermNormal os.FileMode = 0755
)

// Layout holds the five well-known roots.
type Layout struct {
	Preinstalled string
	Packages     string
	Settings     string
	Cache        string
	Staging      string
}

// DefaultLayout resolves every root. Each one checks its environment
// variable first (GLOSSA_PREINSTALLED, GLOSSA_PACKAGES, GLOSSA_SETTINGS,
// GLOSSA_CACHE, GLOSSA_STAGING), then the paths.* config key, then falls
// back to the built-in location.
func DefaultLayout() (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("resolving home directory: %w", err)
	}
	base := filepath.Join(home, branding.HomeDir())

	preinstalled := filepath.Join(base, PreinstalledDir)
	if exe, err := os.Executable(); err == nil {
		preinstalled = filepath.Join(filepath.Dir(exe), PreinstalledDir)
	}

	return Layout{
		Preinstalled: resolve("preinstalled", preinstalled),
		Packages:     resolve("packages", filepath.Join(base, PackagesDir)),
		Settings:     resolve("settings", filepath.Join(base, SettingsDir, PackagesDir)),
		Cache:        resolve("cache", filepath.Join(base, CacheDir, PackagesDir)),
		Staging:      resolve("staging", filepath.Join(os.TempDir(), branding.StagingDir())),
	}, nil
}

// NewLayout places every root under a single base directory. Used by tests
// and portable installs.
func NewLayout(base string) Layout {
	return Layout{
		Preinstalled: filepath.Join(base, PreinstalledDir),
		Packages:     filepath.Join(base, PackagesDir),
		Settings:     filepath.Join(base, SettingsDir),
		Cache:        filepath.Join(base, CacheDir),
		Staging:      filepath.Join(base, branding.StagingDir()),
	}
}

func resolve(name, fallback string) string {
	if v := os.Getenv(branding.EnvVar(name)); v != "" {
		return v
	}
	if v := viper.GetString("paths." + name); v != "" {
		return v
	}
	return fallback
}

// Roots returns the package roots scanned by discovery, preinstalled first.
func (l Layout) Roots() []string {
	return []string{l.Preinstalled, l.Packages}
}

// EnsureRoots creates all five roots.
func (l Layout) EnsureRoots() error {
	for _, dir := range []string{l.Preinstalled, l.Packages, l.Settings, l.Cache, l.Staging} {
		if err := os.MkdirAll(dir, DirPermNormal); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// CanonicalInstallDir returns where a package lives once installed.
// Preinstalled packages use their folder name alone; user packages append
// the id so that unrelated packages sharing a folder name cannot collide.
func (l Layout) CanonicalInstallDir(id, folderName string, preinstalled bool) string {
	if preinstalled {
		return filepath.Join(l.Preinstalled, folderName)
	}
	return filepath.Join(l.Packages, CompositeKey(folderName, id))
}

// SettingsDir returns the settings directory of a package.
func (l Layout) SettingsDir(m *manifest.Metadata) string {
	return filepath.Join(l.Settings, CompositeKey(FolderName(m), m.ID))
}

// CacheDir returns the cache directory of a package.
func (l Layout) CacheDir(m *manifest.Metadata) string {
	return filepath.Join(l.Cache, CompositeKey(FolderName(m), m.ID))
}

// StagingDir returns the staging directory for an archive, named after the
// archive's base name without extension.
func (l Layout) StagingDir(archivePath string) string {
	return filepath.Join(l.Staging, StagingKey(archivePath))
}

// StagingKey returns the archive base name without extension.
func StagingKey(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsPreinstalled reports whether dir lies under the preinstalled root.
func (l Layout) IsPreinstalled(dir string) bool {
	return within(l.Preinstalled, dir)
}

// Attach sets the directory-derived fields of m for a package found in dir.
func (l Layout) Attach(m *manifest.Metadata, dir string) {
	m.Directory = dir
	m.Preinstalled = l.IsPreinstalled(dir)
	m.SettingsDirectory = l.SettingsDir(m)
	m.CacheDirectory = l.CacheDir(m)
}

// FolderName returns the base name of m's directory with a trailing "_<id>"
// removed, so that the same package yields the same folder name whether it
// sits under the preinstalled or the user root.
func FolderName(m *manifest.Metadata) string {
	name := filepath.Base(m.Directory)
	if m.Directory == "" {
		name = m.Name
	}
	if trimmed := strings.TrimSuffix(name, "_"+m.ID); trimmed != "" {
		name = trimmed
	}
	return name
}

// CompositeKey joins a folder name and an id as "<folderName>_<id>".
func CompositeKey(folderName, id string) string {
	return folderName + "_" + id
}

func within(root, dir string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(dir))
	if err != nil {
		return false
	}
	return rel != "." && filepath.IsLocal(rel)
}
