// Package manifest handles parsing and validation of package descriptors
// (plugin.json). Parse is deliberately lenient about optional fields so that
// discovery tolerates packages written against older descriptor revisions;
// Validate checks a descriptor against the embedded JSON schema for authors
// and the validate command.
package manifest
