package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
)

// StageError reports a failed write step.
//
// For [models.StageInsert] the playlist has already been handed to the [Compensator];
// RollbackErr is non-nil only when that delete failed.
type StageError struct {
	Stage       models.Stage
	PlaylistID  string
	Failure     *shared.Failure
	RollbackErr error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s stage failed: %v", e.Stage, e.Failure)
	if e.RollbackErr != nil {
		msg = fmt.Sprintf("%s (rollback failed: %v)", msg, e.RollbackErr)
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Failure
}

// Writer creates the destination playlist and fills it.
type Writer struct {
	catalog     services.DestinationCatalog
	service     models.Service
	visibility  models.Visibility
	compensator *Compensator
	logger      *log.Logger
}

// NewWriter creates a Writer. An empty visibility means [models.Private].
func NewWriter(catalog services.DestinationCatalog, service models.Service, visibility models.Visibility, compensator *Compensator, logger *log.Logger) *Writer {
	if visibility == "" {
		visibility = models.Private
	}
	return &Writer{
		catalog:     catalog,
		service:     service,
		visibility:  visibility,
		compensator: compensator,
		logger:      logger,
	}
}

// Create creates an empty playlist titled after the job. Nothing exists to roll back when it fails.
func (w *Writer) Create(ctx context.Context, job models.ConversionJob) (string, error) {
	playlistID, err := w.catalog.CreatePlaylist(ctx, job.PlaylistTitle, job.Description(), w.visibility)
	if err != nil {
		return "", &StageError{
			Stage:   models.StageCreate,
			Failure: shared.AsFailure(err, string(w.service), services.OpCreatePlaylist),
		}
	}

	w.logger.Info("playlist created", "playlist", playlistID, "title", job.PlaylistTitle)
	return playlistID, nil
}

// Populate inserts hits in order. On failure the playlist is rolled back before the error is returned.
func (w *Writer) Populate(ctx context.Context, playlistID string, hits []models.Hit) error {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ItemID
	}

	err := w.catalog.AddItems(ctx, playlistID, ids)
	if err == nil {
		w.logger.Info("tracks added", "playlist", playlistID, "count", len(ids))
		return nil
	}

	stageErr := &StageError{
		Stage:      models.StageInsert,
		PlaylistID: playlistID,
		Failure:    shared.AsFailure(err, string(w.service), services.OpAddItems),
	}
	w.logger.Error("adding tracks failed, rolling back", "playlist", playlistID, "error", err)
	stageErr.RollbackErr = w.compensator.Rollback(ctx, w.catalog, playlistID)
	return stageErr
}

// CreateAndPopulate runs both write steps in sequence.
func (w *Writer) CreateAndPopulate(ctx context.Context, job models.ConversionJob, hits []models.Hit) (string, error) {
	playlistID, err := w.Create(ctx, job)
	if err != nil {
		return "", err
	}
	if err := w.Populate(ctx, playlistID, hits); err != nil {
		return playlistID, err
	}
	return playlistID, nil
}
