package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glossa-app/glossa/internal/branding"
)

// WriteMarker creates the zero-byte pending-delete marker inside dir.
// Writing it again is harmless.
func WriteMarker(dir string) error {
	path := filepath.Join(dir, branding.DeleteMarker())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing delete marker in %s: %w", dir, err)
	}
	return f.Close()
}

// HasMarker reports whether dir carries a pending-delete marker.
func HasMarker(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, branding.DeleteMarker()))
	return err == nil && !info.IsDir()
}

// UpgradePath returns the staged-replacement name for dir.
func UpgradePath(dir string) string {
	return filepath.Clean(dir) + branding.UpgradeSuffix()
}

// IsUpgradePath reports whether path names a staged replacement.
func IsUpgradePath(path string) bool {
	name := filepath.Base(path)
	return len(name) > len(branding.UpgradeSuffix()) && strings.HasSuffix(name, branding.UpgradeSuffix())
}

// TrimUpgradeSuffix returns the canonical directory a staged replacement
// will be renamed to.
func TrimUpgradeSuffix(path string) string {
	return strings.TrimSuffix(filepath.Clean(path), branding.UpgradeSuffix())
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RemoveMarker withdraws a pending-delete marker. A missing marker is not an
// error.
func RemoveMarker(dir string) error {
	err := os.Remove(filepath.Join(dir, branding.DeleteMarker()))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing delete marker in %s: %w", dir, err)
	}
	return nil
}
