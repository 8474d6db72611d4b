package services

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"reccord/internal/models"
)

// SpotifyService fetches listening history and playlists from the Spotify
// Web API. Token refresh is not handled here; callers pass an access token
// already validated by the token manager.
type SpotifyService struct {
	client *resty.Client
	apiURL string
}

const (
	spotifyAPIURL = "https://api.spotify.com/v1"

	// Spotify caps top-tracks page size at 50; we fetch 25 to mirror the
	// Apple Music recently-played event budget.
	spotifyTopTracksLimit = 25
)

// NewSpotifyService creates a new Spotify fetcher
func NewSpotifyService(timeout time.Duration) *SpotifyService {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &SpotifyService{
		client: client,
		apiURL: spotifyAPIURL,
	}
}

// Service returns the service tag
func (s *SpotifyService) Service() models.Service {
	return models.ServiceSpotify
}

// TopTracks fetches the user's top tracks for the nearest native time-range
// bucket. Spotify windows server-side, so no client-side date filtering is
// applied. The endpoint is ranked but carries no play counts; each track is
// assigned a descending weight so rank survives the cross-source merge.
func (s *SpotifyService) TopTracks(ctx context.Context, token AccessToken, window models.TimeWindow) ([]ProviderTrack, error) {
	var result spotifyTopTracksResponse
	var apiErr spotifyErrorResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token.Bearer).
		SetQueryParams(map[string]string{
			"time_range": spotifyTimeRange(window),
			"limit":      strconv.Itoa(spotifyTopTracksLimit),
		}).
		SetResult(&result).
		SetError(&apiErr).
		Get(s.apiURL + "/me/top/tracks")

	if err != nil {
		return nil, requestError(models.ServiceSpotify, "top_tracks", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.ServiceSpotify, "top_tracks", resp.StatusCode(), apiErr.message(resp))
	}

	tracks := make([]ProviderTrack, 0, len(result.Items))
	for i, item := range result.Items {
		tracks = append(tracks, ProviderTrack{
			Name:      item.Name,
			Artist:    joinArtists(item.Artists),
			Album:     item.Album.Name,
			URL:       item.ExternalURLs.Spotify,
			ISRC:      item.ExternalIDs.ISRC,
			PlayCount: len(result.Items) - i,
		})
	}

	return tracks, nil
}

// PlaylistTracks fetches the first ten tracks of a playlist in playlist order
func (s *SpotifyService) PlaylistTracks(ctx context.Context, token AccessToken, playlistURL string) ([]PlaylistTrack, error) {
	playlistID, err := ParseSpotifyPlaylistID(playlistURL)
	if err != nil {
		return nil, err
	}

	var result spotifyPlaylistTracksResponse
	var apiErr spotifyErrorResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token.Bearer).
		SetQueryParams(map[string]string{
			"limit":  "10",
			"fields": "items(track(name,artists(name),external_urls))",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Get(s.apiURL + "/playlists/" + playlistID + "/tracks")

	if err != nil {
		return nil, requestError(models.ServiceSpotify, "playlist_tracks", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.ServiceSpotify, "playlist_tracks", resp.StatusCode(), apiErr.message(resp))
	}

	tracks := make([]PlaylistTrack, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Track == nil {
			// Local files and removed tracks come back as null entries
			continue
		}
		tracks = append(tracks, PlaylistTrack{
			Name:        item.Track.Name,
			Description: joinArtists(item.Track.Artists),
			URL:         item.Track.ExternalURLs.Spotify,
		})
		if len(tracks) == 10 {
			break
		}
	}

	return tracks, nil
}

// spotifyTimeRange maps a time window to the nearest native bucket
func spotifyTimeRange(window models.TimeWindow) string {
	switch window {
	case models.WindowThisWeek, models.WindowThisMonth:
		return "short_term"
	case models.WindowPast6Months:
		return "medium_term"
	default:
		return "long_term"
	}
}

// Spotify playlist URL shapes: canonical, user-scoped, and URI form
var spotifyPlaylistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?open\.spotify\.com/(?:user/[^/]+/)?playlist/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`^spotify:playlist:([a-zA-Z0-9]+)$`),
}

// ParseSpotifyPlaylistID extracts a playlist ID from any supported URL shape
func ParseSpotifyPlaylistID(playlistURL string) (string, error) {
	for _, pattern := range spotifyPlaylistPatterns {
		matches := pattern.FindStringSubmatch(playlistURL)
		if len(matches) > 1 && matches[1] != "" {
			return matches[1], nil
		}
	}
	return "", &ProviderError{
		Service:   models.ServiceSpotify,
		Operation: "parse_playlist_url",
		Message:   "unrecognized playlist URL: " + playlistURL,
	}
}

// joinArtists flattens a Spotify artist list into a comma-joined string
func joinArtists(artists []spotifyArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// Spotify API response structures
type spotifyTopTracksResponse struct {
	Items []spotifyTrack `json:"items"`
}

type spotifyPlaylistTracksResponse struct {
	Items []spotifyPlaylistItem `json:"items"`
}

type spotifyPlaylistItem struct {
	Track *spotifyTrack `json:"track"`
}

type spotifyTrack struct {
	Name         string             `json:"name"`
	Artists      []spotifyArtist    `json:"artists"`
	Album        spotifyAlbum       `json:"album"`
	ExternalURLs spotifyExternalURL `json:"external_urls"`
	ExternalIDs  spotifyExternalIDs `json:"external_ids"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name string `json:"name"`
}

type spotifyExternalURL struct {
	Spotify string `json:"spotify"`
}

type spotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

type spotifyErrorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *spotifyErrorResponse) message(resp *resty.Response) string {
	if e.Error.Message != "" {
		return e.Error.Message
	}
	return resp.Status()
}
