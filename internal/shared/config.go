package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from the TOML file.
const (
	EnvSpotifyAccessToken = "CROSSOVER_SPOTIFY_ACCESS_TOKEN"
	EnvYouTubeAccessToken = "CROSSOVER_YOUTUBE_ACCESS_TOKEN"
	EnvDatabasePath       = "CROSSOVER_DATABASE_PATH"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Conversion  ConversionConfig  `toml:"conversion"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ConversionConfig tunes the conversion pipeline.
type ConversionConfig struct {
	MaxConcurrency     int      `toml:"max_concurrency"`     // Upper bound on in-flight searches
	SearchRate         float64  `toml:"search_rate"`         // Search requests per second
	Timeout            Duration `toml:"timeout"`             // Job-wide deadline, 0 disables
	SearchCacheTTL     Duration `toml:"search_cache_ttl"`    // How long cached search hits stay valid
	PlaylistVisibility string   `toml:"playlist_visibility"` // private, public or unlisted
}

// Duration wraps [time.Duration] so it can be written as "5m" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides tokens and the database path from the environment.
//
// Files are loaded into the environment first with godotenv; a missing file is not an error.
func (c *Config) ApplyEnv(files ...string) {
	_ = godotenv.Load(files...)

	if v, ok := os.LookupEnv(EnvSpotifyAccessToken); ok && v != "" {
		c.Credentials.Spotify.AccessToken = v
	}
	if v, ok := os.LookupEnv(EnvYouTubeAccessToken); ok && v != "" {
		c.Credentials.YouTube.AccessToken = v
	}
	if v, ok := os.LookupEnv(EnvDatabasePath); ok && v != "" {
		c.Database.Path = v
	}
}

// Validate checks the conversion settings.
func (c *Config) Validate() error {
	if c.Conversion.MaxConcurrency < 0 {
		return fmt.Errorf("%w: max_concurrency must not be negative", ErrInvalidConfig)
	}
	if c.Conversion.SearchRate < 0 {
		return fmt.Errorf("%w: search_rate must not be negative", ErrInvalidConfig)
	}
	switch c.Conversion.PlaylistVisibility {
	case "", "private", "public", "unlisted":
	default:
		return fmt.Errorf("%w: unknown playlist_visibility %q", ErrInvalidConfig, c.Conversion.PlaylistVisibility)
	}
	return nil
}
