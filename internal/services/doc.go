// Package services defines the catalog interfaces a conversion runs against and implements them for Spotify and YouTube.
//
// # Catalogs
//
// A [SourceCatalog] lists the tracks of a playlist. A [DestinationCatalog] searches for a track and writes
// playlists. Both music services implement the full [Catalog] so either can sit at either end of a conversion.
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Web API over plain HTTP using an [oauth2] client, which refreshes the
// token transparently when a refresh token is configured. Items are added in chunks of 100, each at position 0.
// Deleting a playlist unfollows it, since the Web API has no hard delete.
//
// # YouTube Implementation
//
// [YouTubeService] wraps the generated youtube/v3 client. It inserts playlist items one call per video,
// and searches are restricted to the Music category.
//
// # Failure Classification
//
// Every failed call comes back as a [*shared.Failure] carrying the service name, the operation, and a kind:
//   - 401, or a token that cannot be refreshed : [shared.Unauthorized]
//   - 429, or a 403 whose body or reason is about quota : [shared.QuotaExceeded]
//   - 404 : [shared.NotFound]
//   - anything else : [shared.Transient]
//
// [ClassifyStatus] handles raw HTTP responses and [ClassifyGoogleError] handles [googleapi.Error] values.
package services
