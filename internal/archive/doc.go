// Package archive extracts package archives into staging directories.
//
// Packages are zip files, optionally using zstd-compressed entries. Every
// entry is checked to stay inside the destination, configured exclude globs
// are skipped, and the staging volume is checked for free space before any
// byte is written.
package archive
