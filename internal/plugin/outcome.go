package plugin

import (
	"github.com/glossa-app/glossa/internal/manifest"
)

// OutcomeKind tells which of the three install outcomes occurred.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeUpgradeRequired
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeUpgradeRequired:
		return "upgrade_required"
	}
	return "unknown"
}

// InstallOutcome is the result of Install.
//
// On success Metadata is the registered entry. On UpgradeRequired Existing
// is the installed entry and the staged package is waiting for Upgrade. On
// failure Err is an *Error, and Existing is set when an installed package
// caused the failure.
type InstallOutcome struct {
	Kind     OutcomeKind
	Metadata *manifest.Metadata
	Existing *manifest.Metadata
	Message  string
	Err      error

	// Stage is the last state reached; FailedAt is set on failure.
	Stage    Stage
	FailedAt Stage
	OpID     string
}

// OK reports whether the package was installed.
func (o InstallOutcome) OK() bool { return o.Kind == OutcomeSuccess }
