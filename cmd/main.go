package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crossover/internal/services"
	"github.com/desertthunder/crossover/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv(".env")

	runner := NewRunner(RunnerOpts{
		Config:   config,
		Catalogs: buildCatalogs(ctx, config, logger),
		Logger:   logger,
	})
	defer runner.close()

	app := &cli.Command{
		Name:     "crossover",
		Usage:    "Convert playlists between Spotify & YouTube",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		runner.close()
		logger.Fatalf("application error: %v", err)
	}
}

// buildCatalogs creates a client for every service with usable credentials.
func buildCatalogs(ctx context.Context, config *shared.Config, logger *log.Logger) []services.Catalog {
	var catalogs []services.Catalog

	sp := config.Credentials.Spotify
	if sp.ClientID != "" && sp.ClientSecret != "" {
		svc, err := services.NewSpotifyService(map[string]string{
			"client_id":     sp.ClientID,
			"client_secret": sp.ClientSecret,
			"redirect_uri":  sp.RedirectURI,
		})
		if err != nil {
			logger.Warn("spotify client unavailable", "error", err)
		} else {
			svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
				config.Credentials.Spotify.AccessToken = token.AccessToken
				if token.RefreshToken != "" {
					config.Credentials.Spotify.RefreshToken = token.RefreshToken
				}
				logger.Debug("spotify token refreshed", "expiry", token.Expiry)
			})
			if sp.AccessToken != "" {
				if err := svc.Authenticate(ctx, map[string]string{
					"access_token":  sp.AccessToken,
					"refresh_token": sp.RefreshToken,
				}); err != nil {
					logger.Warn("spotify authentication failed", "error", err)
				}
			}
			catalogs = append(catalogs, svc)
		}
	}

	yt := config.Credentials.YouTube
	if yt.AccessToken != "" {
		svc, err := services.NewYouTubeServiceWithToken(ctx, &oauth2.Token{
			AccessToken:  yt.AccessToken,
			RefreshToken: yt.RefreshToken,
			TokenType:    "Bearer",
		})
		if err != nil {
			logger.Warn("youtube client unavailable", "error", err)
		} else {
			catalogs = append(catalogs, svc)
		}
	}

	return catalogs
}
