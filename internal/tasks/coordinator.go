package tasks

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConcurrency bounds the number of in-flight searches when none is configured.
const DefaultConcurrency = 8

// SearchResult is the complete outcome of a search phase.
//
// Hits are in input order; len(Hits)+len(Misses) equals the number of descriptors searched.
type SearchResult struct {
	Hits   []models.Hit
	Misses []models.Miss
}

// ItemIDs returns the destination IDs of all hits, in order.
func (r *SearchResult) ItemIDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ItemID
	}
	return ids
}

// Coordinator fans a track list out to a [Matcher].
type Coordinator struct {
	matcher     *Matcher
	concurrency int
	limiter     *rate.Limiter
	progress    chan<- ProgressUpdate
	logger      *log.Logger
}

// NewCoordinator creates a Coordinator. A non-positive concurrency uses [DefaultConcurrency];
// a nil limiter disables pacing.
func NewCoordinator(matcher *Matcher, concurrency int, limiter *rate.Limiter, logger *log.Logger) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{matcher: matcher, concurrency: concurrency, limiter: limiter, logger: logger}
}

// WithProgress sets the channel per-track updates are published on.
func (c *Coordinator) WithProgress(progress chan<- ProgressUpdate) *Coordinator {
	c.progress = progress
	return c
}

type matchSlot struct {
	hit  *models.Hit
	miss *models.Miss
}

// SearchAll matches every descriptor concurrently.
//
// Misses never stop siblings. The first Unauthorized or QuotaExceeded failure cancels the shared
// context, no further searches start, partial results are dropped, and the [*shared.Failure] is returned.
func (c *Coordinator) SearchAll(ctx context.Context, descriptors []models.TrackDescriptor) (*SearchResult, error) {
	slots := make([]matchSlot, len(descriptors))
	total := len(descriptors)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, d := range descriptors {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if c.limiter != nil {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			hit, miss, err := c.matcher.Match(gctx, i, d)
			if err != nil {
				c.logger.Warn("aborting search", "track", d, "error", err)
				return err
			}

			if miss != nil {
				slots[i].miss = miss
			} else {
				slots[i].hit = &hit
			}

			step := int(done.Add(1))
			sendProgress(c.progress, searchTracksUpdate(step, total, d))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var failure *shared.Failure
		if errors.As(err, &failure) {
			return nil, failure
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &SearchResult{}
	for _, slot := range slots {
		switch {
		case slot.hit != nil:
			result.Hits = append(result.Hits, *slot.hit)
		case slot.miss != nil:
			result.Misses = append(result.Misses, *slot.miss)
		}
	}
	return result, nil
}
