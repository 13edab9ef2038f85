package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/crossover/internal/formatter"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/repositories"
	"github.com/urfave/cli/v3"
)

const defaultUser = "default"

// Playlists lists the user's playlists on a service, served from the local cache unless --refresh is set.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := models.ParseService(cmd.StringArg("service"))
	if err != nil {
		return err
	}
	catalog, err := r.catalog(svc)
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	user := cmd.String("user")
	repo := repositories.NewPlaylistCacheRepository(db)
	logger := r.logger.With("service", svc, "user", user)

	var playlists []models.Playlist
	var fetchedAt time.Time
	cached := false

	if !cmd.Bool("refresh") {
		playlists, fetchedAt, cached, err = repo.List(ctx, user, svc)
		if err != nil {
			logger.Warn("playlist cache unavailable", "error", err)
			cached = false
		}
	}

	if !cached {
		logger.Info("fetching playlists")
		playlists, err = catalog.Playlists(ctx)
		if err != nil {
			return fmt.Errorf("failed to list %s playlists: %w", svc.DisplayName(), err)
		}
		if err := repo.Replace(ctx, user, svc, playlists); err != nil {
			logger.Warn("failed to cache playlists", "error", err)
		}
		fetchedAt = time.Time{}
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}
	return formatter.RenderPlaylists(r.output, svc, playlists, fetchedAt)
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List playlists on a service",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "service"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "Local user the cache entries belong to",
				Value: defaultUser,
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Bypass the local cache",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}
