package capability

import (
	"errors"
	"fmt"
)

// Capability loading errors.
var (
	// ErrModuleNotFound is returned when the entry file or one of its
	// dependencies is missing.
	ErrModuleNotFound = errors.New("module not found")

	// ErrNoCapabilityFound is returned when the module loads but exposes no
	// recognized capability.
	ErrNoCapabilityFound = errors.New("no recognized capability found")

	// ErrModuleLoad is returned when the module's own initialization fails.
	ErrModuleLoad = errors.New("module load error")

	// ErrUnknownCapability is returned by Parse for values outside the set.
	ErrUnknownCapability = errors.New("unknown capability")
)

// LoadError carries the entry path, the failure class and the underlying
// diagnostic. errors.Is matches both the class sentinel and the cause.
type LoadError struct {
	EntryPath string
	Kind      error
	Cause     error
}

func (e *LoadError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %v", e.EntryPath, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.EntryPath, e.Kind, e.Cause)
}

func (e *LoadError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func loadError(entry string, kind, cause error) *LoadError {
	return &LoadError{EntryPath: entry, Kind: kind, Cause: cause}
}
