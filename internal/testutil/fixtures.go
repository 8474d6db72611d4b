package testutil

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reccord/internal/models"
	"reccord/internal/services"
)

// TimePtr returns a pointer to t, for optional timestamp fields
func TimePtr(t time.Time) *time.Time {
	return &t
}

// ProviderTrack builds a minimal provider track for merge/rank tests
func ProviderTrack(name, artist, isrc string, playCount int) services.ProviderTrack {
	return services.ProviderTrack{
		Name:      name,
		Artist:    artist,
		ISRC:      isrc,
		PlayCount: playCount,
	}
}

// SpotifyCredential builds a stored Spotify connection
func SpotifyCredential(userID string, expiresAt time.Time) *models.SyncCredential {
	return &models.SyncCredential{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Service:      models.ServiceSpotify,
		AccessToken:  "spotify-access-token",
		RefreshToken: "spotify-refresh-token",
		ExpiresAt:    expiresAt,
	}
}

// AppleCredential builds a stored Apple Music connection
func AppleCredential(userID string, expiresAt time.Time) *models.SyncCredential {
	return &models.SyncCredential{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		Service:        models.ServiceAppleMusic,
		MusicUserToken: "apple-music-user-token",
		ExpiresAt:      expiresAt,
	}
}

// TopSongsConfig builds a top-songs sync config over the given sources
func TopSongsConfig(listID, userID string, sources ...models.Service) *models.SyncConfig {
	return &models.SyncConfig{
		ID:         primitive.NewObjectID(),
		ListID:     listID,
		UserID:     userID,
		Mode:       models.ModeTopSongs,
		Sources:    sources,
		TimeWindow: models.WindowThisMonth,
	}
}

// PlaylistConfig builds a playlist-mirror sync config
func PlaylistConfig(listID, userID string, source models.Service, playlistURL string) *models.SyncConfig {
	return &models.SyncConfig{
		ID:          primitive.NewObjectID(),
		ListID:      listID,
		UserID:      userID,
		Mode:        models.ModePlaylist,
		Sources:     []models.Service{source},
		TimeWindow:  models.WindowAllTime,
		PlaylistURL: playlistURL,
	}
}
