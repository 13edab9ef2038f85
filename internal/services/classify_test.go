package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/desertthunder/crossover/internal/shared"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   shared.FailureKind
	}{
		{"unauthorized", http.StatusUnauthorized, "", shared.Unauthorized},
		{"too many requests", http.StatusTooManyRequests, "", shared.QuotaExceeded},
		{"not found", http.StatusNotFound, "", shared.NotFound},
		{"forbidden quota", http.StatusForbidden, `{"error":"Quota exceeded"}`, shared.QuotaExceeded},
		{"forbidden rate limit", http.StatusForbidden, `API rate limit exceeded`, shared.QuotaExceeded},
		{"forbidden scope", http.StatusForbidden, `{"error":"Insufficient client scope"}`, shared.Transient},
		{"server error", http.StatusBadGateway, "", shared.Transient},
		{"bad request", http.StatusBadRequest, "", shared.Transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ClassifyStatus("spotify", OpSearch, tt.status, []byte(tt.body))
			if f.Kind != tt.want {
				t.Errorf("expected %s, got %s", tt.want, f.Kind)
			}
			if f.Service != "spotify" || f.Operation != OpSearch || f.Status != tt.status {
				t.Errorf("unexpected failure metadata %+v", f)
			}
		})
	}
}

func TestClassifyGoogleError(t *testing.T) {
	gerr := func(code int, reasons ...string) error {
		e := &googleapi.Error{Code: code, Message: "failed"}
		for _, r := range reasons {
			e.Errors = append(e.Errors, googleapi.ErrorItem{Reason: r})
		}
		return fmt.Errorf("wrapped: %w", e)
	}

	tests := []struct {
		name string
		err  error
		want shared.FailureKind
	}{
		{"401", gerr(http.StatusUnauthorized, "authError"), shared.Unauthorized},
		{"403 quotaExceeded", gerr(http.StatusForbidden, "quotaExceeded"), shared.QuotaExceeded},
		{"403 dailyLimitExceeded", gerr(http.StatusForbidden, "dailyLimitExceeded"), shared.QuotaExceeded},
		{"403 userRateLimitExceeded", gerr(http.StatusForbidden, "userRateLimitExceeded"), shared.QuotaExceeded},
		{"403 without reason", gerr(http.StatusForbidden), shared.QuotaExceeded},
		{"403 forbidden", gerr(http.StatusForbidden, "forbidden"), shared.Transient},
		{"404", gerr(http.StatusNotFound, "playlistNotFound"), shared.NotFound},
		{"429", gerr(http.StatusTooManyRequests), shared.QuotaExceeded},
		{"500", gerr(http.StatusInternalServerError, "backendError"), shared.Transient},
		{"token refresh", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}, shared.Unauthorized},
		{"network", errors.New("connection reset"), shared.Transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ClassifyGoogleError("youtube", OpAddItems, tt.err)
			if f.Kind != tt.want {
				t.Errorf("expected %s, got %s", tt.want, f.Kind)
			}
			if f.Service != "youtube" || f.Operation != OpAddItems {
				t.Errorf("unexpected failure metadata %+v", f)
			}
			if !errors.Is(f, tt.err) && !errors.Is(f.Err, tt.err) {
				t.Error("expected original error to be preserved")
			}
		})
	}

	t.Run("nil", func(t *testing.T) {
		if f := ClassifyGoogleError("youtube", OpSearch, nil); f != nil {
			t.Errorf("expected nil, got %v", f)
		}
	})
}
