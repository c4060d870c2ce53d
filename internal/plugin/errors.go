package plugin

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies lifecycle failures.
type ErrorKind int

const (
	// KindValidation covers a bad archive path, extension or content type.
	KindValidation ErrorKind = iota + 1
	// KindExtraction covers archive expansion failures.
	KindExtraction
	// KindDescriptor covers missing, empty or malformed descriptors.
	KindDescriptor
	// KindVersionConflict covers too-old packages.
	KindVersionConflict
	// KindCapability covers module loading failures.
	KindCapability
	// KindFilesystem covers create, move and delete failures.
	KindFilesystem
	// KindStagingMissing is an upgrade without a prior staged install.
	KindStagingMissing
	// KindStagingBusy is a second concurrent operation on the same archive name.
	KindStagingBusy
)

// String returns the stable code of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindExtraction:
		return "extraction_error"
	case KindDescriptor:
		return "descriptor_error"
	case KindVersionConflict:
		return "version_conflict"
	case KindCapability:
		return "capability_error"
	case KindFilesystem:
		return "filesystem_error"
	case KindStagingMissing:
		return "staging_missing"
	case KindStagingBusy:
		return "staging_busy"
	}
	return "unknown_error"
}

// Sentinel causes. Match them with errors.Is.
var (
	ErrInvalidPackage  = errors.New("not a valid package file")
	ErrVersionTooOld   = errors.New("incoming version is not newer than installed version")
	ErrStagingMissing  = errors.New("no staged package for this archive")
	ErrStagingBusy     = errors.New("another operation is using this staging directory")
	ErrNotInstalled    = errors.New("package is not installed")
	ErrIDMismatch      = errors.New("staged package id does not match installed package")
	ErrRegistryLoading = errors.New("registry has not been loaded")
	ErrDirectoryTaken  = errors.New("install directory belongs to another package")
)

// Error is a lifecycle failure.
type Error struct {
	Kind ErrorKind
	Op   string // "install", "upgrade", "uninstall", ...
	Path string // archive or directory involved
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ErrorCode returns a stable code for logging.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	if k := KindOf(err); k != 0 {
		return k.String()
	}
	return "internal_error"
}
