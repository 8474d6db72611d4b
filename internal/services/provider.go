package services

import (
	"context"
	"time"

	"reccord/internal/models"
)

// ProviderTrack is a track record in a service's native shape, produced
// fresh by each fetch call and never persisted directly.
type ProviderTrack struct {
	Name         string     `json:"name"`
	Artist       string     `json:"artist"`
	Album        string     `json:"album,omitempty"`
	URL          string     `json:"url,omitempty"`
	ISRC         string     `json:"isrc,omitempty"`
	PlayCount    int        `json:"play_count"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`
}

// PlaylistTrack is one entry of a mirrored playlist, already projected to
// the published-item shape (description is the artist list joined by comma).
type PlaylistTrack struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// AccessToken carries the credentials a fetch call needs. Bearer is the
// Spotify access token or the Apple Music developer token; UserToken is
// the Music-User-Token header value and is empty for Spotify.
type AccessToken struct {
	Bearer    string
	UserToken string
}

// TrackFetcher translates a credential and time window into a bounded list
// of tracks from one streaming service.
type TrackFetcher interface {
	// Service returns the service this fetcher talks to
	Service() models.Service

	// TopTracks fetches the user's listening history for the window
	TopTracks(ctx context.Context, token AccessToken, window models.TimeWindow) ([]ProviderTrack, error)

	// PlaylistTracks fetches up to the first ten tracks of a playlist,
	// in playlist order, given any of the service's playlist URL shapes
	PlaylistTracks(ctx context.Context, token AccessToken, playlistURL string) ([]PlaylistTrack, error)
}
