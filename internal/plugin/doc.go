// Package plugin is the package lifecycle manager.
//
// A Manager owns the registry of loaded packages. Load builds it from
// discovery at startup; Install, Upgrade and Uninstall change the packages
// on disk afterwards. Deletions and upgrades of a package that may be in use
// are never performed in place: they are recorded as marker files and
// directory suffixes and completed by the next Load, before the registry is
// exposed.
//
// Every public operation returns typed results. Filesystem, archive and
// module failures are converted to *Error values carrying an ErrorKind and
// never escape as panics.
package plugin
