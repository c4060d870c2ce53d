// Package fsutil provides the filesystem primitives of the package
// lifecycle: directory moves that survive transient sharing violations and
// cross-device renames, retried removal, and the zero-byte marker files and
// directory suffixes that record deferred deletes and upgrades.
package fsutil
