package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
)

// DefaultSearchTTL is how long a destination search result stays valid.
const DefaultSearchTTL = 24 * time.Hour

// SearchCacheRepository stores destination search hits keyed by service and normalized query.
//
// Only hits are cached. A miss is never stored so a track added to the catalog later can still match.
type SearchCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSearchCacheRepository creates a SearchCacheRepository. A non-positive ttl uses [DefaultSearchTTL].
func NewSearchCacheRepository(db *sql.DB, ttl time.Duration) *SearchCacheRepository {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	return &SearchCacheRepository{db: db, ttl: ttl, now: time.Now}
}

func queryKey(d models.TrackDescriptor) string {
	return shared.NormalizeTrackKey(d.Title, d.Artist)
}

// Lookup returns the cached hit for a descriptor. ok is false when nothing fresh is cached.
func (r *SearchCacheRepository) Lookup(ctx context.Context, svc models.Service, d models.TrackDescriptor) (*models.Hit, bool, error) {
	query, args, err := sq.Select("item_id", "title", "artist", "album", "thumbnail", "cached_at").
		From("search_cache").
		Where(sq.Eq{"service": string(svc), "query_key": queryKey(d)}).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		hit      models.Hit
		cachedAt time.Time
	)
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&hit.ItemID, &hit.Title, &hit.Artist, &hit.Album, &hit.Thumbnail, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read search cache: %w", err)
	}

	if r.now().Sub(cachedAt) > r.ttl {
		return nil, false, nil
	}

	hit.Descriptor = d
	return &hit, true, nil
}

// Store upserts a hit for a descriptor.
func (r *SearchCacheRepository) Store(ctx context.Context, svc models.Service, d models.TrackDescriptor, hit models.Hit) error {
	if hit.ItemID == "" {
		return fmt.Errorf("%w: hit has no item id", shared.ErrInvalidInput)
	}

	insert := sq.Insert("search_cache").
		Columns("id", "service", "query_key", "item_id", "title", "artist", "album", "thumbnail", "cached_at").
		Values(shared.GenerateID(), string(svc), queryKey(d), hit.ItemID, hit.Title, hit.Artist, hit.Album, hit.Thumbnail, r.now().UTC()).
		Suffix(`ON CONFLICT (service, query_key) DO UPDATE SET
			item_id = excluded.item_id,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			thumbnail = excluded.thumbnail,
			cached_at = excluded.cached_at`)

	if _, err := exec(ctx, r.db, insert); err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (r *SearchCacheRepository) Prune(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.ttl).UTC()

	result, err := exec(ctx, r.db, sq.Delete("search_cache").Where(sq.Lt{"cached_at": cutoff}))
	if err != nil {
		return 0, fmt.Errorf("failed to prune search cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
