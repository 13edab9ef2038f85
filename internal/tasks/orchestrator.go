package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
	"golang.org/x/time/rate"
)

const opAuthorize = "authorize"

// SuccessHook is notified once after a conversion succeeds.
type SuccessHook func(ctx context.Context, job models.ConversionJob, outcome models.ConversionOutcome) error

// Options tune a conversion run.
type Options struct {
	Concurrency     int               // Parallel searches; 0 uses DefaultConcurrency
	SearchRate      float64           // Searches per second; 0 disables pacing
	Timeout         time.Duration     // Job-wide deadline; 0 disables
	Visibility      models.Visibility // Created playlist visibility; empty means private
	RollbackTimeout time.Duration
	Cache           SearchCache // Optional
}

// Orchestrator drives one conversion job from search to a terminal [models.ConversionOutcome].
type Orchestrator struct {
	catalogs map[models.Service]services.Catalog
	auth     services.AuthProvider
	opts     Options
	hooks    []SuccessHook
	logger   *log.Logger
}

// NewOrchestrator creates an Orchestrator over the given catalogs, keyed by their service name.
func NewOrchestrator(auth services.AuthProvider, opts Options, logger *log.Logger, catalogs ...services.Catalog) *Orchestrator {
	byName := make(map[models.Service]services.Catalog, len(catalogs))
	for _, c := range catalogs {
		byName[c.Name()] = c
	}
	return &Orchestrator{catalogs: byName, auth: auth, opts: opts, logger: logger}
}

// OnSuccess registers a hook run after every successful conversion.
func (o *Orchestrator) OnSuccess(hook SuccessHook) {
	o.hooks = append(o.hooks, hook)
}

// run is the per-job state machine.
type run struct {
	job      models.ConversionJob
	phase    Phase
	progress chan<- ProgressUpdate
	logger   *log.Logger
}

func (r *run) transition(next Phase, update ProgressUpdate) {
	if !r.phase.CanTransition(next) {
		r.logger.Error("illegal state transition", "from", r.phase, "to", next)
	}
	r.logger.Debug("state transition", "from", r.phase, "to", next)
	r.phase = next
	update.Phase = next
	sendProgress(r.progress, update)
}

func (r *run) finish(next Phase, outcome models.ConversionOutcome) models.ConversionOutcome {
	outcome.JobID = r.job.ID
	r.transition(next, outcomeUpdate(next, outcome))
	return outcome
}

// Run executes job and always returns a terminal outcome.
//
// The error is non-nil only when the job cannot start at all: it is invalid or a catalog is missing.
// Nothing is retried; running the same job again creates another playlist.
func (o *Orchestrator) Run(ctx context.Context, job models.ConversionJob, progress chan<- ProgressUpdate) (models.ConversionOutcome, error) {
	if err := job.Validate(); err != nil {
		return models.ConversionOutcome{}, err
	}

	source, ok := o.catalogs[job.Source]
	if !ok {
		return models.ConversionOutcome{}, fmt.Errorf("%w: no catalog for %s", shared.ErrServiceUnavailable, job.Source)
	}
	destination, ok := o.catalogs[job.Destination]
	if !ok {
		return models.ConversionOutcome{}, fmt.Errorf("%w: no catalog for %s", shared.ErrServiceUnavailable, job.Destination)
	}

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	r := &run{
		job:      job,
		phase:    Idle,
		progress: progress,
		logger:   shared.WithLogger(o.logger, "job", job.ID, "from", job.Source, "to", job.Destination),
	}

	r.transition(Searching, fetchSourceUpdate(job))

	for _, svc := range []models.Service{job.Source, job.Destination} {
		if !o.auth.IsAuthorized(job.UserID, svc) {
			reason := shared.NewFailure(shared.Unauthorized, string(svc), opAuthorize, 0, shared.ErrNotAuthenticated)
			return r.finish(Aborted, models.ConversionOutcome{Status: models.StatusAborted, Stage: models.StageSearch, Reason: reason}), nil
		}
	}

	tracks, err := source.ListTracks(ctx, job.SourcePlaylistID)
	if err != nil {
		reason := shared.AsFailure(err, string(job.Source), services.OpListTracks)
		return r.finish(Aborted, searchFailure(reason)), nil
	}

	result, err := o.search(ctx, r, destination, job, tracks)
	if err != nil {
		reason := shared.AsFailure(err, string(job.Destination), services.OpSearch)
		return r.finish(Aborted, searchFailure(reason)), nil
	}

	outcome := models.ConversionOutcome{
		HitCount:  len(result.Hits),
		MissCount: len(result.Misses),
		Misses:    result.Misses,
	}

	if len(result.Hits) == 0 {
		outcome.Status = models.StatusFailed
		outcome.Stage = models.StageSearch
		outcome.Reason = shared.NewFailure(shared.NotFound, string(job.Destination), services.OpSearch, 0, shared.ErrTrackNotFound)
		return r.finish(Aborted, outcome), nil
	}

	r.transition(Matched, matchedUpdate(result))

	writer := NewWriter(destination, job.Destination, o.opts.Visibility, NewCompensator(o.opts.RollbackTimeout, r.logger), r.logger)

	r.transition(Creating, creatingUpdate(job))
	playlistID, err := writer.Create(ctx, job)
	if err != nil {
		outcome.Status = models.StatusFailed
		outcome.Stage = models.StageCreate
		outcome.Reason = stageFailure(err, job.Destination, services.OpCreatePlaylist)
		return r.finish(CreateFailed, outcome), nil
	}
	r.transition(Created, createdUpdate(playlistID))

	r.transition(Inserting, insertingUpdate(len(result.Hits)))
	if err := writer.Populate(ctx, playlistID, result.Hits); err != nil {
		outcome.Status = models.StatusRolledBack
		outcome.Stage = models.StageInsert
		outcome.PlaylistID = playlistID
		outcome.Reason = stageFailure(err, job.Destination, services.OpAddItems)

		var stageErr *StageError
		if errors.As(err, &stageErr) {
			outcome.RollbackErr = stageErr.RollbackErr
		}
		return r.finish(InsertFailedRolledBack, outcome), nil
	}

	outcome.Status = models.StatusSuccess
	outcome.PlaylistID = playlistID
	outcome = r.finish(Success, outcome)
	o.notify(context.WithoutCancel(ctx), r.logger, job, outcome)
	return outcome, nil
}

// search lists descriptors for the destination and fans them out.
func (o *Orchestrator) search(ctx context.Context, r *run, destination services.Catalog, job models.ConversionJob, tracks []models.TrackDescriptor) (*SearchResult, error) {
	descriptors := prepareDescriptors(job.Source, tracks)
	r.logger.Info("searching tracks", "count", len(descriptors))

	var limiter *rate.Limiter
	if o.opts.SearchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.opts.SearchRate), 1)
	}

	matcher := NewMatcher(destination, job.Destination, o.opts.Cache, r.logger)
	coordinator := NewCoordinator(matcher, o.opts.Concurrency, limiter, r.logger).WithProgress(r.progress)
	return coordinator.SearchAll(ctx, descriptors)
}

func (o *Orchestrator) notify(ctx context.Context, logger *log.Logger, job models.ConversionJob, outcome models.ConversionOutcome) {
	for _, hook := range o.hooks {
		if err := hook(ctx, job, outcome); err != nil {
			logger.Warn("success hook failed", "error", err)
		}
	}
}

// prepareDescriptors sanitizes video titles so bracketed annotations do not skew the search.
func prepareDescriptors(source models.Service, tracks []models.TrackDescriptor) []models.TrackDescriptor {
	if source != models.YouTube {
		return tracks
	}

	prepared := make([]models.TrackDescriptor, len(tracks))
	for i, t := range tracks {
		prepared[i] = t
		if title := shared.SanitizeTitle(t.Title); title != "" {
			prepared[i].Title = title
		}
	}
	return prepared
}

// searchFailure builds the outcome of a search phase that ended without results.
func searchFailure(reason *shared.Failure) models.ConversionOutcome {
	status := models.StatusFailed
	if reason.Kind.Fatal() {
		status = models.StatusAborted
	}
	return models.ConversionOutcome{Status: status, Stage: models.StageSearch, Reason: reason}
}

func stageFailure(err error, svc models.Service, op string) *shared.Failure {
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Failure != nil {
		return stageErr.Failure
	}
	return shared.AsFailure(err, string(svc), op)
}
