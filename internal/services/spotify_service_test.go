package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reccord/internal/models"
)

func newSpotifyTestService(t *testing.T, handler http.HandlerFunc) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service := NewSpotifyService(5 * time.Second)
	service.apiURL = server.URL
	return service
}

func spotifyTopTracksJSON(names ...string) map[string]interface{} {
	items := make([]map[string]interface{}, len(names))
	for i, name := range names {
		items[i] = map[string]interface{}{
			"name":          name,
			"artists":       []map[string]interface{}{{"name": "MGMT"}},
			"album":         map[string]interface{}{"name": "Oracular Spectacular"},
			"external_urls": map[string]interface{}{"spotify": "https://open.spotify.com/track/" + name},
			"external_ids":  map[string]interface{}{"isrc": "US-" + name},
		}
	}
	return map[string]interface{}{"items": items}
}

func TestSpotifyTopTracks(t *testing.T) {
	service := newSpotifyTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/top/tracks", r.URL.Path)
		assert.Equal(t, "short_term", r.URL.Query().Get("time_range"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spotifyTopTracksJSON("first", "second", "third"))
	})

	tracks, err := service.TopTracks(context.Background(), AccessToken{Bearer: "access-token"}, models.WindowThisWeek)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, "first", tracks[0].Name)
	assert.Equal(t, "MGMT", tracks[0].Artist)
	assert.Equal(t, "Oracular Spectacular", tracks[0].Album)
	assert.Equal(t, "US-first", tracks[0].ISRC)
	assert.Equal(t, "https://open.spotify.com/track/first", tracks[0].URL)
	assert.Nil(t, tracks[0].LastPlayedAt)

	// Rank survives as a descending weight
	assert.Equal(t, 3, tracks[0].PlayCount)
	assert.Equal(t, 2, tracks[1].PlayCount)
	assert.Equal(t, 1, tracks[2].PlayCount)
}

func TestSpotifyTimeRange(t *testing.T) {
	testCases := []struct {
		window   models.TimeWindow
		expected string
	}{
		{models.WindowThisWeek, "short_term"},
		{models.WindowThisMonth, "short_term"},
		{models.WindowPast6Months, "medium_term"},
		{models.WindowPastYear, "long_term"},
		{models.WindowAllTime, "long_term"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.window), func(t *testing.T) {
			assert.Equal(t, tc.expected, spotifyTimeRange(tc.window))
		})
	}
}

func TestSpotifyTopTracks_ErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		expectKind error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthenticationFailed},
		{"forbidden", http.StatusForbidden, ErrAuthenticationFailed},
		{"not found", http.StatusNotFound, ErrResourceUnavailable},
		{"upstream failure", http.StatusBadGateway, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service := newSpotifyTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.statusCode)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{"status": tc.statusCode, "message": "the provider said no"},
				})
			})

			_, err := service.TopTracks(context.Background(), AccessToken{Bearer: "x"}, models.WindowAllTime)
			require.Error(t, err)

			var providerErr *ProviderError
			require.ErrorAs(t, err, &providerErr)
			assert.Equal(t, models.ServiceSpotify, providerErr.Service)
			assert.Equal(t, tc.statusCode, providerErr.StatusCode)
			assert.Equal(t, "the provider said no", providerErr.Message)

			if tc.expectKind != nil {
				assert.ErrorIs(t, err, tc.expectKind)
			}
		})
	}
}

func TestSpotifyPlaylistTracks(t *testing.T) {
	service := newSpotifyTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playlists/37i9dQZF1DXcBWIGoYBM5M/tracks", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"track": map[string]interface{}{
					"name":          "Kids",
					"artists":       []map[string]interface{}{{"name": "MGMT"}, {"name": "Sofi Tukker"}},
					"external_urls": map[string]interface{}{"spotify": "https://open.spotify.com/track/1"},
				}},
				{"track": nil}, // local file entry
				{"track": map[string]interface{}{
					"name":    "Intro",
					"artists": []map[string]interface{}{{"name": "The xx"}},
				}},
			},
		})
	})

	tracks, err := service.PlaylistTracks(context.Background(), AccessToken{Bearer: "x"},
		"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, "Kids", tracks[0].Name)
	assert.Equal(t, "MGMT, Sofi Tukker", tracks[0].Description)
	assert.Equal(t, "https://open.spotify.com/track/1", tracks[0].URL)
	assert.Equal(t, "Intro", tracks[1].Name)
}

func TestParseSpotifyPlaylistID(t *testing.T) {
	testCases := []struct {
		name        string
		url         string
		expectedID  string
		expectError bool
	}{
		{
			name:       "canonical URL",
			url:        "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expectedID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:       "without protocol",
			url:        "open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expectedID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:       "user-scoped URL",
			url:        "https://open.spotify.com/user/spotify/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expectedID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:       "URI form",
			url:        "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expectedID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:       "query string ignored",
			url:        "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expectedID: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:        "track URL rejected",
			url:         "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
			expectError: true,
		},
		{
			name:        "empty",
			url:         "",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseSpotifyPlaylistID(tc.url)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedID, id)
		})
	}
}
