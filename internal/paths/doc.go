// Package paths resolves the well-known directories of the plugin manager:
// the preinstalled and user package roots, the per-package settings and cache
// roots, and the temporary staging root. Apart from EnsureRoots every
// function here is pure.
package paths
