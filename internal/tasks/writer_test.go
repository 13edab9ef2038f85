package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
	th "github.com/desertthunder/crossover/internal/testing"
)

func testJob() models.ConversionJob {
	return models.NewConversionJob("user1", models.Spotify, models.YouTube, "src-1", "Road Trip")
}

func hits(ids ...string) []models.Hit {
	hs := make([]models.Hit, len(ids))
	for i, id := range ids {
		hs[i] = models.Hit{Index: i, ItemID: id}
	}
	return hs
}

// recordingCatalog captures arguments the mock catalog does not keep.
type recordingCatalog struct {
	*th.MockCatalog
	title, description string
	visibility         models.Visibility
	deleteCtxErr       error
}

func (r *recordingCatalog) CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error) {
	r.title, r.description, r.visibility = title, description, visibility
	return r.MockCatalog.CreatePlaylist(ctx, title, description, visibility)
}

func (r *recordingCatalog) DeletePlaylist(ctx context.Context, playlistID string) error {
	r.deleteCtxErr = ctx.Err()
	return r.MockCatalog.DeletePlaylist(ctx, playlistID)
}

var _ services.DestinationCatalog = (*recordingCatalog)(nil)

func newWriter(dest services.DestinationCatalog) *Writer {
	return NewWriter(dest, models.YouTube, "", NewCompensator(time.Second, testLogger), testLogger)
}

func TestWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a private playlist with the stock description then inserts in order", func(t *testing.T) {
		dest := &recordingCatalog{MockCatalog: th.NewMockCatalog(models.YouTube)}

		id, err := newWriter(dest).CreateAndPopulate(ctx, testJob(), hits("a", "b", "c"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != "P1" {
			t.Errorf("expected P1, got %s", id)
		}
		if dest.title != "Road Trip" || dest.visibility != models.Private {
			t.Errorf("unexpected create args %q %q", dest.title, dest.visibility)
		}
		if dest.description != "Playlist converted from Spotify to YouTube with crossover" {
			t.Errorf("unexpected description %q", dest.description)
		}
		if got := dest.Added("P1"); len(got) != 3 || got[0] != "a" || got[2] != "c" {
			t.Errorf("expected ordered inserts, got %v", got)
		}
		if calls := dest.Calls(); len(calls) != 2 || calls[0] != "create" || calls[1] != "add" {
			t.Errorf("expected create then add, got %v", calls)
		}
	})

	t.Run("create failure has nothing to roll back", func(t *testing.T) {
		dest := th.NewMockCatalog(models.YouTube)
		dest.CreateErr = shared.NewFailure(shared.QuotaExceeded, "youtube", services.OpCreatePlaylist, 403, nil)

		id, err := newWriter(dest).CreateAndPopulate(ctx, testJob(), hits("a"))
		if id != "" {
			t.Errorf("expected no playlist id, got %s", id)
		}

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != models.StageCreate {
			t.Fatalf("expected create StageError, got %v", err)
		}
		if !errors.Is(err, shared.ErrQuotaExceeded) {
			t.Errorf("expected quota failure to be preserved, got %v", err)
		}
		if dest.CallCount("add") != 0 || dest.CallCount("delete") != 0 {
			t.Errorf("expected no add or delete, got %v", dest.Calls())
		}
	})

	t.Run("insert failure deletes the playlist exactly once", func(t *testing.T) {
		dest := th.NewMockCatalog(models.YouTube)
		dest.AddErr = errors.New("backend error")

		id, err := newWriter(dest).CreateAndPopulate(ctx, testJob(), hits("a", "b"))
		if id != "P1" {
			t.Errorf("expected created id to be returned, got %q", id)
		}

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != models.StageInsert {
			t.Fatalf("expected insert StageError, got %v", err)
		}
		if stageErr.Failure.Kind != shared.Transient || stageErr.RollbackErr != nil {
			t.Errorf("unexpected stage error %+v", stageErr)
		}
		if deleted := dest.Deleted(); len(deleted) != 1 || deleted[0] != "P1" {
			t.Errorf("expected one delete of P1, got %v", deleted)
		}
	})

	t.Run("failed rollback is reported", func(t *testing.T) {
		dest := th.NewMockCatalog(models.YouTube)
		dest.AddErr = errors.New("backend error")
		dest.DeleteErr = errors.New("delete failed")

		_, err := newWriter(dest).CreateAndPopulate(ctx, testJob(), hits("a"))

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.RollbackErr == nil {
			t.Fatalf("expected rollback error, got %v", err)
		}
		if dest.CallCount("delete") != 1 {
			t.Errorf("expected rollback not to be retried, got %d deletes", dest.CallCount("delete"))
		}
	})
}

func TestCompensator(t *testing.T) {
	t.Run("deletes even when the job context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dest := &recordingCatalog{MockCatalog: th.NewMockCatalog(models.Spotify)}
		if err := NewCompensator(0, testLogger).Rollback(ctx, dest, "P9"); err != nil {
			t.Fatalf("expected rollback to succeed, got %v", err)
		}
		if dest.deleteCtxErr != nil {
			t.Errorf("expected a live context for the delete, got %v", dest.deleteCtxErr)
		}
	})

	t.Run("wraps delete failures", func(t *testing.T) {
		dest := th.NewMockCatalog(models.Spotify)
		dest.DeleteErr = shared.NewFailure(shared.NotFound, "spotify", services.OpDeletePlaylist, 404, nil)

		err := NewCompensator(time.Second, testLogger).Rollback(context.Background(), dest, "P9")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected wrapped failure, got %v", err)
		}
	})
}
