// package services defines the catalog interfaces used by a conversion and implements them for Spotify and YouTube
package services

import (
	"context"

	"github.com/desertthunder/crossover/internal/models"
)

// SearchQuery is a single destination catalog lookup.
type SearchQuery struct {
	Title  string
	Artist string // Optional
}

// SourceCatalog reads playlists from the service a conversion starts on.
type SourceCatalog interface {
	// ListTracks returns every track of a playlist, already paginated and flattened.
	ListTracks(ctx context.Context, playlistID string) ([]models.TrackDescriptor, error)

	// Playlists returns the authenticated user's playlists.
	Playlists(ctx context.Context) ([]models.Playlist, error)
}

// DestinationCatalog searches and writes to the service a conversion ends on.
//
// Implementations return a classified [shared.Failure] for every failed call.
type DestinationCatalog interface {
	// Search returns the best match for q, or nil when the catalog has no result.
	Search(ctx context.Context, q SearchQuery) (*models.Hit, error)

	// CreatePlaylist creates an empty playlist and returns its ID.
	CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error)

	// AddItems inserts item IDs into a playlist using as few calls as the API allows.
	AddItems(ctx context.Context, playlistID string, itemIDs []string) error

	// DeletePlaylist removes a playlist from the user's library.
	DeletePlaylist(ctx context.Context, playlistID string) error
}

// Catalog is a music service that can act as either end of a conversion.
type Catalog interface {
	SourceCatalog
	DestinationCatalog
	Name() models.Service
}

// AuthProvider reports whether a user currently holds a usable session with a service.
type AuthProvider interface {
	IsAuthorized(userID string, svc models.Service) bool
}

// TokenAuthorizer is an [AuthProvider] backed by configured access tokens.
//
// It has no notion of users: a service is authorized for everyone once it has a token.
type TokenAuthorizer struct {
	tokens map[models.Service]string
}

// NewTokenAuthorizer creates a TokenAuthorizer from per-service access tokens.
func NewTokenAuthorizer(tokens map[models.Service]string) *TokenAuthorizer {
	cp := make(map[models.Service]string, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &TokenAuthorizer{tokens: cp}
}

// IsAuthorized implements [AuthProvider].
func (a *TokenAuthorizer) IsAuthorized(_ string, svc models.Service) bool {
	return a.tokens[svc] != ""
}

var (
	_ Catalog      = (*SpotifyService)(nil)
	_ Catalog      = (*YouTubeService)(nil)
	_ AuthProvider = (*TokenAuthorizer)(nil)
)
