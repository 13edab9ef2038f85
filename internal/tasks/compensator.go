package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/services"
)

// DefaultRollbackTimeout bounds the compensating delete.
const DefaultRollbackTimeout = 30 * time.Second

// Compensator deletes a playlist whose population failed.
type Compensator struct {
	timeout time.Duration
	logger  *log.Logger
}

// NewCompensator creates a Compensator. A non-positive timeout uses [DefaultRollbackTimeout].
func NewCompensator(timeout time.Duration, logger *log.Logger) *Compensator {
	if timeout <= 0 {
		timeout = DefaultRollbackTimeout
	}
	return &Compensator{timeout: timeout, logger: logger}
}

// Rollback issues one delete call for playlistID and returns nil when the playlist is gone.
//
// The delete runs even if ctx is already cancelled, since a timed-out insert is the common case.
// A failed delete is logged and returned, never retried.
func (c *Compensator) Rollback(ctx context.Context, destination services.DestinationCatalog, playlistID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	if err := destination.DeletePlaylist(ctx, playlistID); err != nil {
		c.logger.Error("rollback failed, playlist left behind", "playlist", playlistID, "error", err)
		return fmt.Errorf("failed to delete playlist %s: %w", playlistID, err)
	}

	c.logger.Info("rolled back playlist", "playlist", playlistID)
	return nil
}
