package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"reccord/internal/models"
)

// Config holds all configuration for the application
type Config struct {
	// Application settings
	Port       string `envconfig:"PORT" default:"8080"`
	GinMode    string `envconfig:"GIN_MODE" default:"debug"`
	BaseURL    string `envconfig:"BASE_URL" default:"http://localhost:8080"`
	MongodbURL string `envconfig:"MONGODB_URL" required:"true"`
	ValkeyURL  string `envconfig:"VALKEY_URL"`

	// Spotify app credentials (user tokens are per-credential, stored)
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`

	// Apple Music developer-token credentials
	AppleMusicKeyID   string `envconfig:"APPLE_MUSIC_KEY_ID"`
	AppleMusicTeamID  string `envconfig:"APPLE_MUSIC_TEAM_ID"`
	AppleMusicKeyFile string `envconfig:"APPLE_MUSIC_KEY_FILE"`

	// Sync behavior
	ListSize          int           `envconfig:"LIST_SIZE" default:"10"`
	TopSongsStaleness time.Duration `envconfig:"TOP_SONGS_STALENESS" default:"24h"`
	PlaylistStaleness time.Duration `envconfig:"PLAYLIST_STALENESS" default:"1h"`
	ProviderTimeout   time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"10s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.ListSize < 1 {
		return nil, fmt.Errorf("LIST_SIZE must be at least 1, got %d", cfg.ListSize)
	}

	return &cfg, nil
}

// SpotifyEnabled reports whether Spotify app credentials are configured
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// AppleMusicEnabled reports whether Apple Music credentials are configured
func (c *Config) AppleMusicEnabled() bool {
	return c.AppleMusicKeyID != "" && c.AppleMusicTeamID != "" && c.AppleMusicKeyFile != ""
}

// EnabledServices returns the services the process can sync from, in
// canonical source order
func (c *Config) EnabledServices() []models.Service {
	var services []models.Service
	if c.SpotifyEnabled() {
		services = append(services, models.ServiceSpotify)
	}
	if c.AppleMusicEnabled() {
		services = append(services, models.ServiceAppleMusic)
	}
	return services
}

// Staleness returns the watermark age beyond which a list of the given
// mode becomes a sync candidate
func (c *Config) Staleness(mode models.SyncMode) time.Duration {
	if mode == models.ModePlaylist {
		return c.PlaylistStaleness
	}
	return c.TopSongsStaleness
}
