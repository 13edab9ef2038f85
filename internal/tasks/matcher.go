package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
)

// SearchCache stores destination search hits between runs.
//
// Implemented by repositories.SearchCacheRepository.
type SearchCache interface {
	Lookup(ctx context.Context, svc models.Service, d models.TrackDescriptor) (*models.Hit, bool, error)
	Store(ctx context.Context, svc models.Service, d models.TrackDescriptor, hit models.Hit) error
}

// Matcher resolves one track descriptor against a destination catalog.
type Matcher struct {
	catalog services.DestinationCatalog
	service models.Service
	cache   SearchCache
	logger  *log.Logger
}

// NewMatcher creates a Matcher. cache may be nil.
func NewMatcher(catalog services.DestinationCatalog, service models.Service, cache SearchCache, logger *log.Logger) *Matcher {
	return &Matcher{catalog: catalog, service: service, cache: cache, logger: logger}
}

// Match issues exactly one search for d.
//
// A hit or a per-track [models.Miss] is returned for every outcome that should not stop the batch.
// Unauthorized and quota failures come back as the error instead, and the caller must abort.
func (m *Matcher) Match(ctx context.Context, index int, d models.TrackDescriptor) (models.Hit, *models.Miss, error) {
	if hit, ok := m.cached(ctx, d); ok {
		hit.Index = index
		return *hit, nil, nil
	}

	found, err := m.catalog.Search(ctx, services.SearchQuery{Title: d.Title, Artist: d.Artist})
	if err != nil {
		failure := shared.AsFailure(err, string(m.service), services.OpSearch)
		if failure.Kind.Fatal() {
			return models.Hit{}, nil, failure
		}

		reason := shared.Transient
		if failure.Kind == shared.NotFound {
			reason = shared.NotFound
		}
		m.logger.Debug("search failed", "track", d, "reason", reason, "error", err)
		return models.Hit{}, &models.Miss{Index: index, Descriptor: d, Reason: reason, Err: failure}, nil
	}

	if found == nil {
		return models.Hit{}, &models.Miss{Index: index, Descriptor: d, Reason: shared.NotFound}, nil
	}

	hit := *found
	hit.Index = index
	hit.Descriptor = d
	m.store(ctx, d, hit)
	return hit, nil, nil
}

func (m *Matcher) cached(ctx context.Context, d models.TrackDescriptor) (*models.Hit, bool) {
	if m.cache == nil {
		return nil, false
	}
	hit, ok, err := m.cache.Lookup(ctx, m.service, d)
	if err != nil {
		m.logger.Warn("search cache read failed", "track", d, "error", err)
		return nil, false
	}
	return hit, ok
}

func (m *Matcher) store(ctx context.Context, d models.TrackDescriptor, hit models.Hit) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Store(ctx, m.service, d, hit); err != nil {
		m.logger.Warn("search cache write failed", "track", d, "error", err)
	}
}
