// Spotify Web API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/crossover/internal/models"
	"github.com/desertthunder/crossover/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// spotifyAddLimit is the most URIs the add-items endpoint accepts per request.
	spotifyAddLimit = 100
	spotifyPageSize = 50
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	URI     string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is nil for items that were removed from the catalog.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks is a page of playlist items.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyCreatePlaylist struct {
	Name          string `json:"name"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	Description   string `json:"description"`
}

type spotifyAddItems struct {
	URIs     []string `json:"uris"`
	Position int      `json:"position"`
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// SetTokenRefreshCallback registers a function called whenever the token source yields a new token.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Authenticate installs an OAuth2 session. Expects an "access_token" (with optional "refresh_token") in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	accessToken := credentials["access_token"]
	if accessToken == "" {
		return fmt.Errorf("%w: missing access_token in credentials", shared.ErrMissingCredentials)
	}

	s.token = &oauth2.Token{AccessToken: accessToken, RefreshToken: credentials["refresh_token"]}
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, s.token),
		callback: s.onTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

func (s *SpotifyService) Name() models.Service {
	return models.Spotify
}

// doRequest performs an authenticated JSON request against the Spotify API.
//
// Every failure is returned as a classified [*shared.Failure].
func (s *SpotifyService) doRequest(ctx context.Context, op, method, endpoint string, body, result any) error {
	service := string(models.Spotify)
	if s.token == nil {
		return shared.NewFailure(shared.Unauthorized, service, op, 0, shared.ErrNotAuthenticated)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return shared.NewFailure(shared.Transient, service, op, 0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return shared.NewFailure(shared.Transient, service, op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(service, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ClassifyStatus(service, op, resp.StatusCode, data)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return shared.NewFailure(shared.Transient, service, op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, OpProfile, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists retrieves all playlists for the authenticated user.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", spotifyPageSize, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, OpListPlaylists, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			playlists = append(playlists, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return playlists, nil
}

// ListTracks retrieves every track of a playlist. Items without a track (removed from the catalog) are skipped.
func (s *SpotifyService) ListTracks(ctx context.Context, playlistID string) ([]models.TrackDescriptor, error) {
	var tracks []models.TrackDescriptor
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), spotifyAddLimit, offset)

		var page SpotifyPaginatedPlaylistTracks
		if err := s.doRequest(ctx, OpListTracks, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.Name == "" {
				continue
			}
			descriptor := models.TrackDescriptor{Title: item.Track.Name}
			if len(item.Track.Artists) > 0 {
				descriptor.Artist = item.Track.Artists[0].Name
			}
			tracks = append(tracks, descriptor)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return tracks, nil
}

// spotifySearchTerm builds the field-filtered query, or the raw title when no artist is known.
func spotifySearchTerm(q SearchQuery) string {
	if q.Artist == "" {
		return q.Title
	}
	return fmt.Sprintf("track:%s artist:%s", q.Title, q.Artist)
}

// Search looks up the single best track for q.
func (s *SpotifyService) Search(ctx context.Context, q SearchQuery) (*models.Hit, error) {
	params := url.Values{}
	params.Set("q", spotifySearchTerm(q))
	params.Set("type", "track")
	params.Set("limit", "1")

	var response spotifySearchResponse
	if err := s.doRequest(ctx, OpSearch, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	if len(response.Tracks.Items) == 0 {
		return nil, nil
	}

	track := response.Tracks.Items[0]
	hit := &models.Hit{
		ItemID: track.URI,
		Title:  track.Name,
		Album:  track.Album.Name,
	}
	if hit.ItemID == "" {
		hit.ItemID = "spotify:track:" + track.ID
	}
	if len(track.Artists) > 0 {
		hit.Artist = track.Artists[0].Name
	}
	if len(track.Album.Images) > 0 {
		hit.Thumbnail = track.Album.Images[0].URL
	}
	return hit, nil
}

// CreatePlaylist creates an empty playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, title, description string, visibility models.Visibility) (string, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}

	body := spotifyCreatePlaylist{
		Name:        title,
		Public:      visibility == models.Public,
		Description: description,
	}

	var created SpotifySimplePlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	if err := s.doRequest(ctx, OpCreatePlaylist, http.MethodPost, endpoint, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", shared.NewFailure(shared.Transient, string(models.Spotify), OpCreatePlaylist, 0, fmt.Errorf("%w: empty playlist id", shared.ErrAPIRequest))
	}
	return created.ID, nil
}

// AddItems inserts track URIs in chunks of [spotifyAddLimit], each chunk at position 0.
//
// Chunks are sent in reverse so the final playlist keeps the input order.
func (s *SpotifyService) AddItems(ctx context.Context, playlistID string, itemIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	chunks := chunk(itemIDs, spotifyAddLimit)
	for i := len(chunks) - 1; i >= 0; i-- {
		body := spotifyAddItems{URIs: chunks[i], Position: 0}
		if err := s.doRequest(ctx, OpAddItems, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// DeletePlaylist unfollows the playlist, which is how the Web API removes it from the owner's library.
func (s *SpotifyService) DeletePlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, OpDeletePlaylist, http.MethodDelete, endpoint, nil, nil)
}

func chunk(items []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// refreshableTokenSource reports every new token issued by the wrapped source.
type refreshableTokenSource struct {
	mu       sync.Mutex
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
