package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/repositories"
	"github.com/urfave/cli/v3"
)

// CachePrune removes search results older than the configured TTL.
func (r *Runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	repo := repositories.NewSearchCacheRepository(db, r.config.Conversion.SearchCacheTTL.Duration)
	n, err := repo.Prune(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune search cache: %w", err)
	}

	r.logger.Info("search cache pruned", "removed", n)
	return r.writePlain("✓ Removed %d expired search results\n", n)
}

// CacheInvalidate drops the cached playlist listing for a service.
func (r *Runner) CacheInvalidate(ctx context.Context, cmd *cli.Command) error {
	svc, err := models.ParseService(cmd.StringArg("service"))
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	user := cmd.String("user")
	if err := repositories.NewPlaylistCacheRepository(db).Invalidate(ctx, user, svc); err != nil {
		return fmt.Errorf("failed to invalidate playlists: %w", err)
	}
	return r.writePlain("✓ Cleared cached %s playlists for %s\n", svc.DisplayName(), user)
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local cache",
		Commands: []*cli.Command{
			{
				Name:   "prune",
				Usage:  "Remove expired search results",
				Action: r.CachePrune,
			},
			{
				Name:  "invalidate",
				Usage: "Drop cached playlist listings for a service",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "service"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "Local user the cache entries belong to",
						Value: defaultUser,
					},
				},
				Action: r.CacheInvalidate,
			},
		},
	}
}
