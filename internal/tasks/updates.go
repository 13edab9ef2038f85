package tasks

import (
	"fmt"

	"github.com/desertthunder/crossover/internal/models"
)

// ProgressUpdate represents a progress event during a conversion.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Orchestrator state the update belongs to
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase is a state of the conversion state machine.
//
//	Idle -> Searching -> {Aborted | Matched}
//	Matched -> Creating -> {CreateFailed | Created}
//	Created -> Inserting -> {Success | InsertFailedRolledBack}
type Phase int

const (
	Idle Phase = iota
	Searching
	Aborted
	Matched
	Creating
	CreateFailed
	Created
	Inserting
	Success
	InsertFailedRolledBack
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Aborted:
		return "aborted"
	case Matched:
		return "matched"
	case Creating:
		return "creating"
	case CreateFailed:
		return "create_failed"
	case Created:
		return "created"
	case Inserting:
		return "inserting"
	case Success:
		return "success"
	case InsertFailedRolledBack:
		return "insert_failed_rolled_back"
	default:
		return ""
	}
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	switch p {
	case Aborted, CreateFailed, Success, InsertFailedRolledBack:
		return true
	default:
		return false
	}
}

// transitions lists the legal successor phases.
var transitions = map[Phase][]Phase{
	Idle:      {Searching},
	Searching: {Aborted, Matched},
	Matched:   {Creating},
	Creating:  {CreateFailed, Created},
	Created:   {Inserting},
	Inserting: {Success, InsertFailedRolledBack},
}

// CanTransition reports whether the state machine allows moving from p to next.
func (p Phase) CanTransition(next Phase) bool {
	for _, candidate := range transitions[p] {
		if candidate == next {
			return true
		}
	}
	return false
}

func fetchSourceUpdate(job models.ConversionJob) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Searching,
		Message: fmt.Sprintf("Fetching source playlist from %s...", job.Source.DisplayName()),
	}
}

func searchTracksUpdate(step, total int, d models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Searching,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, d),
	}
}

func matchedUpdate(result *SearchResult) ProgressUpdate {
	total := len(result.Hits) + len(result.Misses)
	return ProgressUpdate{
		Phase:   Matched,
		Step:    len(result.Hits),
		Total:   total,
		Message: fmt.Sprintf("Matched %d of %d tracks", len(result.Hits), total),
		Data:    result,
	}
}

func creatingUpdate(job models.ConversionJob) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Creating,
		Message: fmt.Sprintf("Creating playlist %q on %s...", job.PlaylistTitle, job.Destination.DisplayName()),
	}
}

func createdUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Created,
		Message: fmt.Sprintf("Playlist created (ID: %s)", playlistID),
		Data:    playlistID,
	}
}

func insertingUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Inserting,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks...", total),
	}
}

func outcomeUpdate(phase Phase, outcome models.ConversionOutcome) ProgressUpdate {
	msg := fmt.Sprintf("Conversion %s", outcome.Status)
	if outcome.Reason != nil {
		msg = fmt.Sprintf("%s: %s", msg, outcome.Reason.Kind)
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    outcome.HitCount,
		Total:   outcome.HitCount + outcome.MissCount,
		Message: msg,
		Data:    outcome,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
