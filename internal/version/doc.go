// Package version orders package version strings. Descriptor versions are
// author-supplied and frequently malformed, so every comparison here has a
// defined answer for unparseable input.
package version
