package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSearchCacheRepository(t *testing.T) {
	ctx := context.Background()
	descriptor := models.TrackDescriptor{Title: "Song", Artist: "Band"}
	hit := models.Hit{ItemID: "vid1", Title: "Band - Song", Artist: "BandVEVO", Thumbnail: "https://img"}

	t.Run("Store and Lookup", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t), time.Hour)

		if err := repo.Store(ctx, models.YouTube, descriptor, hit); err != nil {
			t.Fatalf("failed to store: %v", err)
		}

		got, ok, err := repo.Lookup(ctx, models.YouTube, models.TrackDescriptor{Title: "  song ", Artist: "BAND"})
		if err != nil {
			t.Fatalf("failed to lookup: %v", err)
		}
		if !ok {
			t.Fatal("expected cached hit for normalized descriptor")
		}
		if got.ItemID != "vid1" || got.Title != "Band - Song" || got.Thumbnail != "https://img" {
			t.Errorf("unexpected hit %+v", got)
		}
	})

	t.Run("Lookup is scoped by service", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t), time.Hour)

		if err := repo.Store(ctx, models.YouTube, descriptor, hit); err != nil {
			t.Fatalf("failed to store: %v", err)
		}

		if _, ok, err := repo.Lookup(ctx, models.Spotify, descriptor); err != nil || ok {
			t.Errorf("expected no spotify entry, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("Store overwrites", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t), time.Hour)

		if err := repo.Store(ctx, models.YouTube, descriptor, hit); err != nil {
			t.Fatalf("failed to store: %v", err)
		}
		if err := repo.Store(ctx, models.YouTube, descriptor, models.Hit{ItemID: "vid2"}); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		got, ok, err := repo.Lookup(ctx, models.YouTube, descriptor)
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if got.ItemID != "vid2" {
			t.Errorf("expected overwritten item vid2, got %s", got.ItemID)
		}
	})

	t.Run("Expired entries are ignored and pruned", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t), time.Hour)
		start := time.Now()
		repo.now = func() time.Time { return start }

		if err := repo.Store(ctx, models.YouTube, descriptor, hit); err != nil {
			t.Fatalf("failed to store: %v", err)
		}

		repo.now = func() time.Time { return start.Add(2 * time.Hour) }
		if _, ok, err := repo.Lookup(ctx, models.YouTube, descriptor); err != nil || ok {
			t.Errorf("expected expired entry to miss, got ok=%v err=%v", ok, err)
		}

		removed, err := repo.Prune(ctx)
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 pruned row, got %d", removed)
		}
	})

	t.Run("Rejects hits without item id", func(t *testing.T) {
		repo := NewSearchCacheRepository(setupTestDB(t), 0)
		if repo.ttl != DefaultSearchTTL {
			t.Errorf("expected default ttl, got %s", repo.ttl)
		}
		if err := repo.Store(ctx, models.YouTube, descriptor, models.Hit{}); err == nil {
			t.Error("expected error for empty item id")
		}
	})
}

func TestPlaylistCacheRepository(t *testing.T) {
	ctx := context.Background()
	playlists := []models.Playlist{
		{ID: "p2", Name: "Second", TrackCount: 3},
		{ID: "p1", Name: "First", Description: "desc", TrackCount: 10, Public: true},
	}

	t.Run("Replace and List", func(t *testing.T) {
		repo := NewPlaylistCacheRepository(setupTestDB(t))

		if err := repo.Replace(ctx, "user1", models.Spotify, playlists); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, fetchedAt, ok, err := repo.List(ctx, "user1", models.Spotify)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if !ok || len(got) != 2 {
			t.Fatalf("expected 2 cached playlists, got %d", len(got))
		}
		if got[0] != playlists[0] || got[1] != playlists[1] {
			t.Errorf("expected listing order preserved, got %+v", got)
		}
		if fetchedAt.IsZero() {
			t.Error("expected fetched_at to be set")
		}
	})

	t.Run("Replace drops stale rows", func(t *testing.T) {
		repo := NewPlaylistCacheRepository(setupTestDB(t))

		if err := repo.Replace(ctx, "user1", models.Spotify, playlists); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}
		if err := repo.Replace(ctx, "user1", models.Spotify, playlists[:1]); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, _, _, err := repo.List(ctx, "user1", models.Spotify)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 1 || got[0].ID != "p2" {
			t.Errorf("expected only p2, got %+v", got)
		}
	})

	t.Run("Invalidate is scoped by user and service", func(t *testing.T) {
		repo := NewPlaylistCacheRepository(setupTestDB(t))

		for _, svc := range []models.Service{models.Spotify, models.YouTube} {
			if err := repo.Replace(ctx, "user1", svc, playlists); err != nil {
				t.Fatalf("failed to replace: %v", err)
			}
		}

		if err := repo.Invalidate(ctx, "user1", models.YouTube); err != nil {
			t.Fatalf("failed to invalidate: %v", err)
		}

		if _, _, ok, _ := repo.List(ctx, "user1", models.YouTube); ok {
			t.Error("expected youtube listing to be invalidated")
		}
		if _, _, ok, _ := repo.List(ctx, "user1", models.Spotify); !ok {
			t.Error("expected spotify listing to survive")
		}
	})
}
