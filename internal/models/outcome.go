package models

import "github.com/desertthunder/crossover/internal/shared"

// Status is the terminal state of a conversion.
type Status int

const (
	StatusSuccess Status = iota
	StatusAborted
	StatusFailed
	StatusRolledBack
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusAborted:
		return "aborted"
	case StatusFailed:
		return "failed"
	case StatusRolledBack:
		return "rolled_back"
	default:
		return ""
	}
}

// Stage names the step of a conversion that produced a failure.
type Stage int

const (
	StageSearch Stage = iota
	StageCreate
	StageInsert
)

func (s Stage) String() string {
	switch s {
	case StageSearch:
		return "search"
	case StageCreate:
		return "create"
	case StageInsert:
		return "insert"
	default:
		return ""
	}
}

// ConversionOutcome is the terminal value of a conversion.
//
// PlaylistID is only set for [StatusSuccess] and [StatusRolledBack]; a rolled back playlist has been
// deleted unless RollbackErr is non-nil.
type ConversionOutcome struct {
	JobID       string
	Status      Status
	Stage       Stage
	PlaylistID  string
	HitCount    int
	MissCount   int
	Misses      []Miss
	Reason      *shared.Failure
	RollbackErr error
}

// Succeeded reports whether the destination playlist was created and populated.
func (o ConversionOutcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Orphaned reports whether a created playlist could not be deleted after a failed insert.
func (o ConversionOutcome) Orphaned() bool {
	return o.Status == StatusRolledBack && o.RollbackErr != nil
}
