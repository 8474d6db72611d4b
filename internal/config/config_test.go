package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reccord/internal/models"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.ListSize)
	assert.Equal(t, 24*time.Hour, cfg.TopSongsStaleness)
	assert.Equal(t, time.Hour, cfg.PlaylistStaleness)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
}

func TestLoad_MissingMongoURL(t *testing.T) {
	t.Setenv("MONGODB_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsZeroListSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LIST_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LIST_SIZE", "5")
	t.Setenv("PLAYLIST_STALENESS", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.ListSize)
	assert.Equal(t, 30*time.Minute, cfg.PlaylistStaleness)
}

func TestEnabledServices(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []models.Service
	}{
		{
			name: "none configured",
			env:  map[string]string{},
			want: nil,
		},
		{
			name: "spotify only",
			env: map[string]string{
				"SPOTIFY_CLIENT_ID":     "id",
				"SPOTIFY_CLIENT_SECRET": "secret",
			},
			want: []models.Service{models.ServiceSpotify},
		},
		{
			name: "apple music needs all three settings",
			env: map[string]string{
				"APPLE_MUSIC_KEY_ID":  "key",
				"APPLE_MUSIC_TEAM_ID": "team",
			},
			want: nil,
		},
		{
			name: "both configured in canonical order",
			env: map[string]string{
				"SPOTIFY_CLIENT_ID":     "id",
				"SPOTIFY_CLIENT_SECRET": "secret",
				"APPLE_MUSIC_KEY_ID":    "key",
				"APPLE_MUSIC_TEAM_ID":   "team",
				"APPLE_MUSIC_KEY_FILE":  "/etc/keys/apple.p8",
			},
			want: []models.Service{models.ServiceSpotify, models.ServiceAppleMusic},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.EnabledServices())
		})
	}
}

func TestStaleness(t *testing.T) {
	cfg := &Config{
		TopSongsStaleness: 24 * time.Hour,
		PlaylistStaleness: time.Hour,
	}

	assert.Equal(t, 24*time.Hour, cfg.Staleness(models.ModeTopSongs))
	assert.Equal(t, time.Hour, cfg.Staleness(models.ModePlaylist))
}
