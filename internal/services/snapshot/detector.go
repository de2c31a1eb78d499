package snapshot

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mcoot/leaguetracker/internal/model"
)

// ChangeDetector decides whether freshly fetched stats differ from the most
// recent stored snapshot
type ChangeDetector interface {
	Changed(prev *model.StatSnapshot, next model.Stats) bool
}

// ChangeDetectorFunc adapts a function to ChangeDetector
type ChangeDetectorFunc func(prev *model.StatSnapshot, next model.Stats) bool

func (f ChangeDetectorFunc) Changed(prev *model.StatSnapshot, next model.Stats) bool {
	return f(prev, next)
}

// Changed reports whether next differs from prev in any skill or activity.
// With no previous snapshot every record counts as a change. An absent
// activity only equals another absent activity; nil and empty maps are equal.
func Changed(prev *model.StatSnapshot, next model.Stats) bool {
	if prev == nil {
		return true
	}
	return !cmp.Equal(prev.Stats, next, cmpopts.EquateEmpty())
}
