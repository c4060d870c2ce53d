package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Descriptor errors.
var (
	// ErrEmptyDescriptor is returned for zero-length or blank input.
	ErrEmptyDescriptor = errors.New("descriptor is empty")

	// ErrMalformedDescriptor is returned when the input is not a JSON object.
	ErrMalformedDescriptor = errors.New("descriptor is malformed")

	// ErrMissingID is returned when the descriptor has no id.
	ErrMissingID = errors.New("descriptor has no id")

	// ErrDescriptorNotFound is returned when a directory has no plugin.json.
	ErrDescriptorNotFound = errors.New("descriptor not found")

	// ErrEntryMissing is returned when the entry module does not exist. It is
	// kept apart from parse failures because a directory may be mid-extraction.
	ErrEntryMissing = errors.New("entry module missing")
)

// IsDescriptorError reports whether err is one of the descriptor parse
// failures (empty, malformed, missing id, not found).
func IsDescriptorError(err error) bool {
	return errors.Is(err, ErrEmptyDescriptor) ||
		errors.Is(err, ErrMalformedDescriptor) ||
		errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrDescriptorNotFound)
}

// Parse decodes descriptor bytes. It does not touch the filesystem.
func Parse(data []byte) (*Metadata, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDescriptor
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedDescriptor)
	}

	var d Descriptor
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	d.ID = strings.TrimSpace(d.ID)
	d.Version = strings.TrimSpace(d.Version)
	d.Entry = strings.TrimSpace(d.Entry)
	if d.ID == "" {
		return nil, ErrMissingID
	}

	return &Metadata{Descriptor: d}, nil
}

// ParseFile reads and parses a descriptor file.
func ParseFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDescriptorNotFound, path)
		}
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	return m, nil
}

// LoadDir parses <dir>/plugin.json, records dir as the package directory and
// verifies the entry module exists. On ErrEntryMissing the parsed metadata is
// still returned so callers can report which package was affected.
func LoadDir(dir string) (*Metadata, error) {
	m, err := ParseFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, err
	}
	m.Directory = dir

	if err := CheckEntry(m); err != nil {
		return m, err
	}
	return m, nil
}

// CheckEntry verifies that m's entry module is a regular file inside m's
// directory.
func CheckEntry(m *Metadata) error {
	if m.Entry == "" {
		return fmt.Errorf("%w: descriptor names no entry", ErrEntryMissing)
	}
	if filepath.IsAbs(m.Entry) || !filepath.IsLocal(filepath.FromSlash(m.Entry)) {
		return fmt.Errorf("%w: entry %q escapes package directory", ErrEntryMissing, m.Entry)
	}

	path := m.EntryPath()
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEntryMissing, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrEntryMissing, path)
	}
	return nil
}
