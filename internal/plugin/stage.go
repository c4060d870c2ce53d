package plugin

// Stage is a state of the install state machine.
type Stage int

const (
	StageValidating Stage = iota
	StageStaging
	StageExtracting
	StageParsingMetadata
	StageResolvingConflict
	StageFinalizing
	StageRegistered
	StageFailed
)

var stageNames = [...]string{
	StageValidating:        "validating",
	StageStaging:           "staging",
	StageExtracting:        "extracting",
	StageParsingMetadata:   "parsing_metadata",
	StageResolvingConflict: "resolving_conflict",
	StageFinalizing:        "finalizing",
	StageRegistered:        "registered",
	StageFailed:            "failed",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}
