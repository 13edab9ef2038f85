// package models defines the data model for playlist conversion
package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/crossover/internal/shared"
)

// Service identifies a music service.
type Service string

const (
	Spotify Service = "spotify"
	YouTube Service = "youtube"
)

// ParseService resolves user input such as "ytmusic" or "Spotify" to a [Service].
func ParseService(s string) (Service, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spotify", "spot":
		return Spotify, nil
	case "youtube", "yt", "ytmusic":
		return YouTube, nil
	default:
		return "", fmt.Errorf("%w: invalid service '%s' (must be 'spotify' or 'youtube')", shared.ErrInvalidArgument, s)
	}
}

// DisplayName returns the user-facing service name.
func (s Service) DisplayName() string {
	switch s {
	case Spotify:
		return "Spotify"
	case YouTube:
		return "YouTube"
	default:
		return string(s)
	}
}

// Visibility is the privacy setting of a created playlist.
type Visibility string

const (
	Private  Visibility = "private"
	Public   Visibility = "public"
	Unlisted Visibility = "unlisted"
)

// Playlist represents a music playlist from any service
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// TrackDescriptor is a source track reduced to what the destination search needs.
type TrackDescriptor struct {
	Title  string
	Artist string // Empty for sources without artist metadata
}

func (d TrackDescriptor) String() string {
	if d.Artist == "" {
		return d.Title
	}
	return d.Artist + " - " + d.Title
}

// Hit is a descriptor matched to a destination catalog item.
type Hit struct {
	Index      int // Position of the descriptor in the source list
	Descriptor TrackDescriptor
	ItemID     string // Spotify track URI or YouTube video ID
	Title      string
	Artist     string
	Album      string
	Thumbnail  string
}

// Miss is a descriptor that could not be matched.
type Miss struct {
	Index      int
	Descriptor TrackDescriptor
	Reason     shared.FailureKind // NotFound or Transient
	Err        error
}

// ConversionJob describes one conversion run.
type ConversionJob struct {
	ID               string
	Source           Service
	Destination      Service
	PlaylistTitle    string
	SourcePlaylistID string
	UserID           string
}

// NewConversionJob creates a job with a fresh ID.
func NewConversionJob(userID string, source, destination Service, sourcePlaylistID, title string) ConversionJob {
	return ConversionJob{
		ID:               shared.GenerateID(),
		Source:           source,
		Destination:      destination,
		PlaylistTitle:    title,
		SourcePlaylistID: sourcePlaylistID,
		UserID:           userID,
	}
}

// Validate checks that the job can be run.
func (j ConversionJob) Validate() error {
	switch {
	case j.Source == "" || j.Destination == "":
		return fmt.Errorf("%w: source and destination services are required", shared.ErrMissingArgument)
	case j.Source == j.Destination:
		return fmt.Errorf("%w: source and destination must differ", shared.ErrInvalidArgument)
	case j.SourcePlaylistID == "":
		return fmt.Errorf("%w: source playlist ID", shared.ErrMissingArgument)
	case strings.TrimSpace(j.PlaylistTitle) == "":
		return fmt.Errorf("%w: playlist title", shared.ErrMissingArgument)
	}
	return nil
}

// Description is the stock description written to the created playlist.
func (j ConversionJob) Description() string {
	return fmt.Sprintf("Playlist converted from %s to %s with crossover", j.Source.DisplayName(), j.Destination.DisplayName())
}
