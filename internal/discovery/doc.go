// Package discovery builds the startup view of installed packages.
//
// A scan walks the immediate subdirectories of each root, completes the
// deferred actions recorded by earlier runs (pending deletes, then pending
// upgrade renames), parses every descriptor, keeps one copy per package id
// and finally asks the capability loader what each survivor implements. A
// package that fails at any step is reported and skipped; it never stops the
// scan of the others.
package discovery
