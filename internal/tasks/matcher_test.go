package tasks

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
	th "github.com/desertthunder/crossover/internal/testing"
)

var testLogger = shared.NewLogger(io.Discard)

// memoryCache is an in-memory [SearchCache].
type memoryCache struct {
	mu       sync.Mutex
	entries  map[string]models.Hit
	readErr  error
	writeErr error
	stores   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]models.Hit{}}
}

func (c *memoryCache) key(svc models.Service, d models.TrackDescriptor) string {
	return string(svc) + "/" + shared.NormalizeTrackKey(d.Title, d.Artist)
}

func (c *memoryCache) Lookup(_ context.Context, svc models.Service, d models.TrackDescriptor) (*models.Hit, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	hit, ok := c.entries[c.key(svc, d)]
	if !ok {
		return nil, false, nil
	}
	return &hit, true, nil
}

func (c *memoryCache) Store(_ context.Context, svc models.Service, d models.TrackDescriptor, hit models.Hit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	if c.writeErr != nil {
		return c.writeErr
	}
	c.entries[c.key(svc, d)] = hit
	return nil
}

func failure(kind shared.FailureKind, svc models.Service) error {
	return shared.NewFailure(kind, string(svc), "search", 0, errors.New(kind.String()))
}

func TestMatcher(t *testing.T) {
	ctx := context.Background()
	song := models.TrackDescriptor{Title: "Song A", Artist: "X"}

	t.Run("returns a hit with index and descriptor", func(t *testing.T) {
		dest := th.NewMockCatalog(models.YouTube)
		dest.Hits["Song A"] = &models.Hit{ItemID: "vidA"}

		hit, miss, err := NewMatcher(dest, models.YouTube, nil, testLogger).Match(ctx, 3, song)
		if err != nil || miss != nil {
			t.Fatalf("expected hit, got miss=%v err=%v", miss, err)
		}
		if hit.ItemID != "vidA" || hit.Index != 3 || hit.Descriptor != song {
			t.Errorf("unexpected hit %+v", hit)
		}

		searched := dest.Searched()
		if len(searched) != 1 || searched[0].Title != "Song A" || searched[0].Artist != "X" {
			t.Errorf("expected exactly one query with title and artist, got %+v", searched)
		}
	})

	t.Run("no results is a NotFound miss", func(t *testing.T) {
		dest := th.NewMockCatalog(models.YouTube)

		_, miss, err := NewMatcher(dest, models.YouTube, nil, testLogger).Match(ctx, 0, song)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if miss == nil || miss.Reason != shared.NotFound || miss.Descriptor != song {
			t.Errorf("expected NotFound miss, got %+v", miss)
		}
	})

	t.Run("classified failures", func(t *testing.T) {
		tests := []struct {
			name      string
			err       error
			wantFatal bool
			wantMiss  shared.FailureKind
		}{
			{"unauthorized aborts", failure(shared.Unauthorized, models.YouTube), true, 0},
			{"quota aborts", failure(shared.QuotaExceeded, models.YouTube), true, 0},
			{"not found misses", failure(shared.NotFound, models.YouTube), false, shared.NotFound},
			{"transient misses", failure(shared.Transient, models.YouTube), false, shared.Transient},
			{"unclassified misses as transient", errors.New("boom"), false, shared.Transient},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dest := th.NewMockCatalog(models.YouTube)
				dest.SearchErrs["Song A"] = tt.err

				_, miss, err := NewMatcher(dest, models.YouTube, nil, testLogger).Match(ctx, 0, song)
				if tt.wantFatal {
					var f *shared.Failure
					if !errors.As(err, &f) || !f.Kind.Fatal() {
						t.Fatalf("expected fatal failure, got %v", err)
					}
					if miss != nil {
						t.Error("expected no miss alongside a fatal failure")
					}
					return
				}

				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if miss == nil || miss.Reason != tt.wantMiss {
					t.Errorf("expected %s miss, got %+v", tt.wantMiss, miss)
				}
			})
		}
	})

	t.Run("cache", func(t *testing.T) {
		t.Run("stores hits and serves them without searching", func(t *testing.T) {
			dest := th.NewMockCatalog(models.YouTube)
			dest.Hits["Song A"] = &models.Hit{ItemID: "vidA"}
			cache := newMemoryCache()
			matcher := NewMatcher(dest, models.YouTube, cache, testLogger)

			if _, _, err := matcher.Match(ctx, 0, song); err != nil {
				t.Fatalf("first match failed: %v", err)
			}
			hit, miss, err := matcher.Match(ctx, 5, song)
			if err != nil || miss != nil {
				t.Fatalf("second match failed: miss=%v err=%v", miss, err)
			}
			if hit.ItemID != "vidA" || hit.Index != 5 {
				t.Errorf("unexpected cached hit %+v", hit)
			}
			if n := dest.CallCount("search"); n != 1 {
				t.Errorf("expected 1 search, got %d", n)
			}
		})

		t.Run("misses are not cached", func(t *testing.T) {
			cache := newMemoryCache()
			_, _, _ = NewMatcher(th.NewMockCatalog(models.YouTube), models.YouTube, cache, testLogger).Match(ctx, 0, song)
			if cache.stores != 0 {
				t.Errorf("expected no stores, got %d", cache.stores)
			}
		})

		t.Run("cache errors are ignored", func(t *testing.T) {
			dest := th.NewMockCatalog(models.YouTube)
			dest.Hits["Song A"] = &models.Hit{ItemID: "vidA"}
			cache := newMemoryCache()
			cache.readErr = errors.New("read failed")
			cache.writeErr = errors.New("write failed")

			hit, miss, err := NewMatcher(dest, models.YouTube, cache, testLogger).Match(ctx, 0, song)
			if err != nil || miss != nil || hit.ItemID != "vidA" {
				t.Errorf("expected hit despite cache errors, got hit=%+v miss=%v err=%v", hit, miss, err)
			}
		})
	})
}
