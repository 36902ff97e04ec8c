// Package cleanup runs the staged dataset cleanup: exact duplicates (A),
// cross-split near duplicates (B), image quality (C) and labels (D).
package cleanup

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifies one cleanup step.
type Stage string

const (
	StageExact   Stage = "A"
	StageNear    Stage = "B"
	StageQuality Stage = "C"
	StageLabels  Stage = "D"
)

// AllStages lists the stages in application order.
var AllStages = []Stage{StageExact, StageNear, StageQuality, StageLabels}

var (
	// ErrUnknownStage is returned for a stage name outside A-D.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrConflictingStageFlags is returned when both only and from are set.
	ErrConflictingStageFlags = errors.New("only and from are mutually exclusive")
)

// ParseStage accepts a stage letter in either case.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllStages {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q (must be one of A, B, C, D)", ErrUnknownStage, s)
}

// Description returns a short human readable name.
func (s Stage) Description() string {
	switch s {
	case StageExact:
		return "exact duplicates"
	case StageNear:
		return "near duplicates across splits"
	case StageQuality:
		return "image quality"
	case StageLabels:
		return "label validation"
	}
	return string(s)
}

// Plan resolves which stages to run. With neither argument set every stage
// runs; only selects a single stage; from selects that stage and the ones
// after it.
func Plan(only, from string) ([]Stage, error) {
	switch {
	case only != "" && from != "":
		return nil, ErrConflictingStageFlags
	case only != "":
		st, err := ParseStage(only)
		if err != nil {
			return nil, err
		}
		return []Stage{st}, nil
	case from != "":
		st, err := ParseStage(from)
		if err != nil {
			return nil, err
		}
		for i, s := range AllStages {
			if s == st {
				return append([]Stage(nil), AllStages[i:]...), nil
			}
		}
	}
	return append([]Stage(nil), AllStages...), nil
}

// needsScan reports whether any planned stage works on scanned records.
func needsScan(plan []Stage) bool {
	for _, s := range plan {
		if s != StageLabels {
			return true
		}
	}
	return false
}

// needsFingerprints reports whether digests or perceptual hashes are used.
func needsFingerprints(plan []Stage) bool {
	for _, s := range plan {
		if s == StageExact || s == StageNear {
			return true
		}
	}
	return false
}
