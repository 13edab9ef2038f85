package services

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/desertthunder/crossover/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Operation names used in classified failures.
const (
	OpListTracks     = "list-tracks"
	OpListPlaylists  = "list-playlists"
	OpProfile        = "profile"
	OpSearch         = "search"
	OpCreatePlaylist = "create-playlist"
	OpAddItems       = "add-items"
	OpDeletePlaylist = "delete-playlist"
)

// googleQuotaReasons are the error reasons the YouTube Data API uses for exhausted limits.
var googleQuotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// ClassifyStatus maps a non-2xx HTTP response to a [shared.Failure].
func ClassifyStatus(service, op string, status int, body []byte) *shared.Failure {
	var err error
	if len(body) > 0 {
		err = errors.New(string(bytes.TrimSpace(body)))
	}

	switch status {
	case http.StatusUnauthorized:
		return shared.NewFailure(shared.Unauthorized, service, op, status, err)
	case http.StatusTooManyRequests:
		return shared.NewFailure(shared.QuotaExceeded, service, op, status, err)
	case http.StatusNotFound:
		return shared.NewFailure(shared.NotFound, service, op, status, err)
	case http.StatusForbidden:
		lower := bytes.ToLower(body)
		if bytes.Contains(lower, []byte("quota")) || bytes.Contains(lower, []byte("rate limit")) {
			return shared.NewFailure(shared.QuotaExceeded, service, op, status, err)
		}
	}

	return shared.NewFailure(shared.Transient, service, op, status, err)
}

// ClassifyGoogleError maps an error returned by a Google API client call to a [shared.Failure].
//
// A 403 without a reason is treated as quota exhaustion, which is what the API reports when a
// project's daily units run out behind some proxies.
func ClassifyGoogleError(service, op string, err error) *shared.Failure {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return classifyTransportError(service, op, err)
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return shared.NewFailure(shared.Unauthorized, service, op, gerr.Code, err)
	case http.StatusTooManyRequests:
		return shared.NewFailure(shared.QuotaExceeded, service, op, gerr.Code, err)
	case http.StatusNotFound:
		return shared.NewFailure(shared.NotFound, service, op, gerr.Code, err)
	case http.StatusForbidden:
		if len(gerr.Errors) == 0 {
			return shared.NewFailure(shared.QuotaExceeded, service, op, gerr.Code, err)
		}
		for _, item := range gerr.Errors {
			if googleQuotaReasons[item.Reason] {
				return shared.NewFailure(shared.QuotaExceeded, service, op, gerr.Code, err)
			}
		}
	}

	return shared.NewFailure(shared.Transient, service, op, gerr.Code, err)
}

// classifyTransportError handles failures that never produced an API response.
//
// A token that cannot be refreshed means the session is gone.
func classifyTransportError(service, op string, err error) *shared.Failure {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return shared.NewFailure(shared.Unauthorized, service, op, 0, err)
	}
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return shared.NewFailure(shared.Unauthorized, service, op, 0, err)
	}
	return shared.NewFailure(shared.Transient, service, op, 0, err)
}
