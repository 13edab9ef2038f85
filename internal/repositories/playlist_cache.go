package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
)

// PlaylistCacheRepository stores the last fetched playlist listing per user and service.
type PlaylistCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlaylistCacheRepository creates a new PlaylistCacheRepository with the given database connection
func NewPlaylistCacheRepository(db *sql.DB) *PlaylistCacheRepository {
	return &PlaylistCacheRepository{db: db, now: time.Now}
}

// Replace swaps the cached listing for a user and service in a single transaction.
func (r *PlaylistCacheRepository) Replace(ctx context.Context, userID string, svc models.Service, playlists []models.Playlist) error {
	fetchedAt := r.now().UTC()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		del := sq.Delete("playlist_cache").Where(sq.Eq{"user_id": userID, "service": string(svc)})
		if _, err := exec(ctx, tx, del); err != nil {
			return fmt.Errorf("failed to clear playlist cache: %w", err)
		}

		if len(playlists) == 0 {
			return nil
		}

		insert := sq.Insert("playlist_cache").
			Columns("id", "user_id", "service", "playlist_id", "name", "description", "track_count", "public", "position", "fetched_at")
		for i, p := range playlists {
			insert = insert.Values(shared.GenerateID(), userID, string(svc), p.ID, p.Name, p.Description, p.TrackCount, p.Public, i, fetchedAt)
		}

		if _, err := exec(ctx, tx, insert); err != nil {
			return fmt.Errorf("failed to insert playlists: %w", err)
		}
		return nil
	})
}

// List returns the cached listing in its original order and when it was fetched.
//
// ok is false when nothing is cached for the user and service.
func (r *PlaylistCacheRepository) List(ctx context.Context, userID string, svc models.Service) (playlists []models.Playlist, fetchedAt time.Time, ok bool, err error) {
	query, args, err := sq.Select("playlist_id", "name", "description", "track_count", "public", "fetched_at").
		From("playlist_cache").
		Where(sq.Eq{"user_id": userID, "service": string(svc)}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to query playlist cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TrackCount, &p.Public, &fetchedAt); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("error iterating playlists: %w", err)
	}

	return playlists, fetchedAt, len(playlists) > 0, nil
}

// Invalidate drops the cached listing so the next read goes back to the service.
func (r *PlaylistCacheRepository) Invalidate(ctx context.Context, userID string, svc models.Service) error {
	del := sq.Delete("playlist_cache").Where(sq.Eq{"user_id": userID, "service": string(svc)})
	if _, err := exec(ctx, r.db, del); err != nil {
		return fmt.Errorf("failed to invalidate playlist cache: %w", err)
	}
	return nil
}
