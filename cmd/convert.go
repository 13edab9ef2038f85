package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/crossover/internal/formatter"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/repositories"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
	"github.com/desertthunder/crossover/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ErrConversionFailed is returned when a conversion ends in any state other than success.
var ErrConversionFailed = errors.New("conversion failed")

// Convert copies a playlist from one service to another.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	source, err := models.ParseService(cmd.String("from"))
	if err != nil {
		return err
	}
	destination, err := models.ParseService(cmd.String("to"))
	if err != nil {
		return err
	}

	sourceCatalog, err := r.catalog(source)
	if err != nil {
		return err
	}
	destCatalog, err := r.catalog(destination)
	if err != nil {
		return err
	}

	job := models.NewConversionJob(cmd.String("user"), source, destination, cmd.String("playlist"), cmd.String("title"))
	if err := job.Validate(); err != nil {
		return err
	}

	orchestrator, err := r.orchestrator(cmd.String("visibility"), sourceCatalog, destCatalog)
	if err != nil {
		return err
	}

	r.logger.Info("starting conversion", "job", job.ID, "from", source, "to", destination, "playlist", job.SourcePlaylistID)

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.drainProgress(progress)
	}()

	outcome, err := orchestrator.Run(ctx, job, progress)
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	if err := formatter.RenderOutcome(r.output, job, outcome); err != nil {
		return err
	}

	if path := cmd.String("misses-csv"); path != "" && len(outcome.Misses) > 0 {
		if err := formatter.WriteMissesCSV(path, outcome.Misses); err != nil {
			r.logger.Warn("failed to write misses", "path", path, "error", err)
		} else {
			r.writePlain("Unmatched tracks written to %s\n", path)
		}
	}

	if !outcome.Succeeded() {
		if outcome.Reason != nil {
			return fmt.Errorf("%w: %w", ErrConversionFailed, outcome.Reason)
		}
		return fmt.Errorf("%w: %s", ErrConversionFailed, outcome.Status)
	}
	return nil
}

// orchestrator builds a conversion pipeline from config, backed by the search cache when the
// database is available.
func (r *Runner) orchestrator(visibility string, catalogs ...services.Catalog) (*tasks.Orchestrator, error) {
	conv := r.config.Conversion
	if visibility == "" {
		visibility = conv.PlaylistVisibility
	}
	switch models.Visibility(visibility) {
	case "", models.Private, models.Public, models.Unlisted:
	default:
		return nil, fmt.Errorf("%w: unknown visibility %q", shared.ErrInvalidArgument, visibility)
	}

	opts := tasks.Options{
		Concurrency: conv.MaxConcurrency,
		SearchRate:  conv.SearchRate,
		Timeout:     conv.Timeout.Duration,
		Visibility:  models.Visibility(visibility),
	}

	var playlists *repositories.PlaylistCacheRepository
	if db, err := r.database(); err != nil {
		r.logger.Warn("database unavailable, searching without cache", "error", err)
	} else {
		opts.Cache = repositories.NewSearchCacheRepository(db, conv.SearchCacheTTL.Duration)
		playlists = repositories.NewPlaylistCacheRepository(db)
	}

	o := tasks.NewOrchestrator(r.auth, opts, r.logger, catalogs...)
	if playlists != nil {
		o.OnSuccess(func(ctx context.Context, job models.ConversionJob, _ models.ConversionOutcome) error {
			return playlists.Invalidate(ctx, job.UserID, job.Destination)
		})
	}
	return o, nil
}

func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
		switch update.Phase {
		case tasks.Searching:
			if update.Step == 0 || update.Step == update.Total {
				r.writePlain("🔍 %s\n", update.Message)
			}
		case tasks.Matched, tasks.Creating, tasks.Created, tasks.Inserting:
			r.writePlain("📝 %s\n", update.Message)
		}
	}
}

func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a playlist between Spotify and YouTube",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "Source service (spotify or youtube)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Destination service (spotify or youtube)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Source playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Title of the created playlist",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Local user the conversion runs for",
				Value: defaultUser,
			},
			&cli.StringFlag{
				Name:  "visibility",
				Usage: "Created playlist visibility (private, public or unlisted)",
			},
			&cli.StringFlag{
				Name:  "misses-csv",
				Usage: "Write unmatched tracks to a CSV file",
			},
		},
		Action: r.Convert,
	}
}
