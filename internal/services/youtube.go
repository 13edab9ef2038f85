// YouTube Data API v3 implementation of [Catalog]
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	youtubePageSize int64 = 50
	// musicCategoryID restricts searches to the Music video category.
	musicCategoryID = "10"
)

// YouTubeService implements [Catalog] on top of the generated YouTube client.
type YouTubeService struct {
	client *youtube.Service
}

// NewYouTubeService creates a YouTube service from Google client options.
func NewYouTubeService(ctx context.Context, opts ...option.ClientOption) (*YouTubeService, error) {
	client, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}
	return &YouTubeService{client: client}, nil
}

// NewYouTubeServiceWithToken creates a YouTube service authorized by a bearer token.
func NewYouTubeServiceWithToken(ctx context.Context, token *oauth2.Token) (*YouTubeService, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing youtube access token", shared.ErrMissingCredentials)
	}
	return NewYouTubeService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
}

// Name returns the service name.
func (y *YouTubeService) Name() models.Service {
	return models.YouTube
}

func (y *YouTubeService) fail(op string, err error) error {
	return ClassifyGoogleError(string(models.YouTube), op, err)
}

// Playlists retrieves all playlists owned by the authenticated channel.
func (y *YouTubeService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist

	call := y.client.Playlists.List([]string{"snippet", "contentDetails", "status"}).
		Mine(true).
		MaxResults(youtubePageSize)

	err := call.Pages(ctx, func(page *youtube.PlaylistListResponse) error {
		for _, item := range page.Items {
			p := models.Playlist{ID: item.Id}
			if item.Snippet != nil {
				p.Name = item.Snippet.Title
				p.Description = item.Snippet.Description
			}
			if item.ContentDetails != nil {
				p.TrackCount = int(item.ContentDetails.ItemCount)
			}
			if item.Status != nil {
				p.Public = item.Status.PrivacyStatus == string(models.Public)
			}
			playlists = append(playlists, p)
		}
		return nil
	})
	if err != nil {
		return nil, y.fail(OpListPlaylists, err)
	}
	return playlists, nil
}

// ListTracks retrieves every video title of a playlist.
//
// Titles are returned as published; channel names stand in for the artist only when they
// come from an auto-generated "- Topic" channel.
func (y *YouTubeService) ListTracks(ctx context.Context, playlistID string) ([]models.TrackDescriptor, error) {
	var tracks []models.TrackDescriptor

	call := y.client.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(youtubePageSize)

	err := call.Pages(ctx, func(page *youtube.PlaylistItemListResponse) error {
		for _, item := range page.Items {
			if item.Snippet == nil || unavailableVideo(item.Snippet.Title) {
				continue
			}
			descriptor := models.TrackDescriptor{Title: item.Snippet.Title}
			if artist, ok := strings.CutSuffix(item.Snippet.VideoOwnerChannelTitle, " - Topic"); ok {
				descriptor.Artist = artist
			}
			tracks = append(tracks, descriptor)
		}
		return nil
	})
	if err != nil {
		return nil, y.fail(OpListTracks, err)
	}
	return tracks, nil
}

func unavailableVideo(title string) bool {
	return title == "" || title == "Deleted video" || title == "Private video"
}

// youtubeSearchTerm places the artist first, matching how music uploads are usually titled.
func youtubeSearchTerm(q SearchQuery) string {
	return strings.TrimSpace(q.Artist + " " + q.Title)
}

// Search returns the top music video for q.
func (y *YouTubeService) Search(ctx context.Context, q SearchQuery) (*models.Hit, error) {
	resp, err := y.client.Search.List([]string{"id", "snippet"}).
		Q(youtubeSearchTerm(q)).
		Type("video").
		VideoCategoryId(musicCategoryID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, y.fail(OpSearch, err)
	}

	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		hit := &models.Hit{ItemID: item.Id.VideoId}
		if item.Snippet != nil {
			hit.Title = item.Snippet.Title
			hit.Artist = item.Snippet.ChannelTitle
			hit.Thumbnail = bestThumbnail(item.Snippet.Thumbnails)
		}
		return hit, nil
	}
	return nil, nil
}

// bestThumbnail returns the largest available thumbnail URL.
func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, thumb := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if thumb != nil && thumb.Url != "" {
			return thumb.Url
		}
	}
	return ""
}

// CreatePlaylist creates an empty playlist on the authenticated channel.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error) {
	if visibility == "" {
		visibility = models.Private
	}

	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: string(visibility)},
	}

	created, err := y.client.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return "", y.fail(OpCreatePlaylist, err)
	}
	if created.Id == "" {
		return "", shared.NewFailure(shared.Transient, string(models.YouTube), OpCreatePlaylist, 0, fmt.Errorf("%w: empty playlist id", shared.ErrAPIRequest))
	}
	return created.Id, nil
}

// AddItems inserts videos one at a time; the API has no batch insert. Stops at the first failure.
func (y *YouTubeService) AddItems(ctx context.Context, playlistID string, itemIDs []string) error {
	for _, videoID := range itemIDs {
		item := &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{
					Kind:    "youtube#video",
					VideoId: videoID,
				},
			},
		}
		if _, err := y.client.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
			return y.fail(OpAddItems, err)
		}
	}
	return nil
}

// DeletePlaylist deletes a playlist owned by the authenticated channel.
func (y *YouTubeService) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := y.client.Playlists.Delete(playlistID).Context(ctx).Do(); err != nil {
		return y.fail(OpDeletePlaylist, err)
	}
	return nil
}
