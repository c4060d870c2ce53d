package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrUnparseable is returned when a version string is not a semantic version.
var ErrUnparseable = errors.New("version is not a semantic version")

// Parse strips surrounding whitespace and a leading "v" and parses the
// version string.
func Parse(raw string) (*semver.Version, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnparseable)
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnparseable, raw, err)
	}
	return v, nil
}

// Compare compares two version strings using semver.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func Compare(a, b string) (int, error) {
	av, err := Parse(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	bv, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return av.Compare(bv), nil
}

// IsUpgrade reports whether incoming may replace installed. An unparseable
// incoming version is always rejected with an error; an unparseable installed
// version never blocks a well-formed incoming one.
func IsUpgrade(incoming, installed string) (bool, error) {
	iv, err := Parse(incoming)
	if err != nil {
		return false, err
	}
	cv, err := Parse(installed)
	if err != nil {
		return true, nil
	}
	return iv.GreaterThan(cv), nil
}

// Order ranks two raw version strings for duplicate resolution and returns
// a positive value when a should be preferred over b, negative when b should
// be, and zero when they are indistinguishable. A parseable version beats an
// unparseable one; equal or unparseable pairs fall back to ordinal
// comparison of the raw strings.
func Order(a, b string) int {
	av, aerr := Parse(a)
	bv, berr := Parse(b)

	switch {
	case aerr == nil && berr != nil:
		return 1
	case aerr != nil && berr == nil:
		return -1
	case aerr == nil && berr == nil:
		if c := av.Compare(bv); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}
