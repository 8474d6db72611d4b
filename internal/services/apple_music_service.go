package services

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"reccord/internal/models"
)

// AppleMusicService fetches listening history and playlists from the Apple
// Music API. Every call carries the service-level developer token as the
// bearer plus the user's Music-User-Token header.
type AppleMusicService struct {
	client *resty.Client
	apiURL string
}

const (
	appleMusicAPIURL = "https://api.music.apple.com/v1"

	// The recently-played endpoint pages at 25 events max
	appleRecentlyPlayedLimit = 25
)

// NewAppleMusicService creates a new Apple Music fetcher
func NewAppleMusicService(timeout time.Duration) *AppleMusicService {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &AppleMusicService{
		client: client,
		apiURL: appleMusicAPIURL,
	}
}

// Service returns the service tag
func (s *AppleMusicService) Service() models.Service {
	return models.ServiceAppleMusic
}

// TopTracks fetches listening history for the window. Apple Music has no
// native long-window top-tracks endpoint, so short windows aggregate the
// recently-played event stream and filter by play date, falling back to
// heavy rotation when nothing survives the filter; long windows go to
// heavy rotation directly.
func (s *AppleMusicService) TopTracks(ctx context.Context, token AccessToken, window models.TimeWindow) ([]ProviderTrack, error) {
	switch window {
	case models.WindowThisWeek, models.WindowThisMonth:
		tracks, err := s.recentlyPlayed(ctx, token, window)
		if err != nil {
			return nil, err
		}
		if len(tracks) > 0 {
			return tracks, nil
		}
		// Nothing recent enough; heavy rotation is the provider's own
		// top-tracks approximation and better than an empty list
		return s.heavyRotation(ctx, token)
	default:
		return s.heavyRotation(ctx, token)
	}
}

// recentlyPlayed aggregates up to 25 play events into per-track counts and
// latest play timestamps, then filters to plays inside the window. Events
// without a play date cannot be placed in the window and are dropped by
// the filter.
func (s *AppleMusicService) recentlyPlayed(ctx context.Context, token AccessToken, window models.TimeWindow) ([]ProviderTrack, error) {
	var result appleMusicResourceResponse

	resp, err := s.userRequest(ctx, token).
		SetQueryParam("limit", strconv.Itoa(appleRecentlyPlayedLimit)).
		SetResult(&result).
		Get(s.apiURL + "/me/recent/played/tracks")

	if err != nil {
		return nil, requestError(models.ServiceAppleMusic, "recently_played", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.ServiceAppleMusic, "recently_played", resp.StatusCode(), appleErrorMessage(resp))
	}

	// Accumulate play counts per track across the event stream
	index := make(map[string]int)
	var aggregated []ProviderTrack
	for _, song := range result.Data {
		track := convertAppleSong(song)
		key := appleDedupKey(track)
		i, seen := index[key]
		if !seen {
			index[key] = len(aggregated)
			aggregated = append(aggregated, track)
			continue
		}
		aggregated[i].PlayCount++
		if track.LastPlayedAt != nil && (aggregated[i].LastPlayedAt == nil || track.LastPlayedAt.After(*aggregated[i].LastPlayedAt)) {
			aggregated[i].LastPlayedAt = track.LastPlayedAt
		}
	}

	duration, bounded := window.Duration()
	if !bounded {
		return aggregated, nil
	}

	cutoff := time.Now().Add(-duration)
	filtered := make([]ProviderTrack, 0, len(aggregated))
	for _, track := range aggregated {
		if track.LastPlayedAt != nil && track.LastPlayedAt.After(cutoff) {
			filtered = append(filtered, track)
		}
	}
	return filtered, nil
}

// heavyRotation fetches the provider's top-tracks approximation. The
// endpoint carries no play counts or timestamps, so each track gets a
// single play and no last-played date.
func (s *AppleMusicService) heavyRotation(ctx context.Context, token AccessToken) ([]ProviderTrack, error) {
	var result appleMusicResourceResponse

	resp, err := s.userRequest(ctx, token).
		SetResult(&result).
		Get(s.apiURL + "/me/history/heavy-rotation")

	if err != nil {
		return nil, requestError(models.ServiceAppleMusic, "heavy_rotation", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.ServiceAppleMusic, "heavy_rotation", resp.StatusCode(), appleErrorMessage(resp))
	}

	tracks := make([]ProviderTrack, 0, len(result.Data))
	for _, resource := range result.Data {
		if resource.Type != "" && resource.Type != "songs" && resource.Type != "library-songs" {
			// Heavy rotation mixes in albums and playlists
			continue
		}
		track := convertAppleSong(resource)
		track.PlayCount = 1
		track.LastPlayedAt = nil
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// PlaylistTracks fetches the first ten tracks of a catalog playlist
func (s *AppleMusicService) PlaylistTracks(ctx context.Context, token AccessToken, playlistURL string) ([]PlaylistTrack, error) {
	storefront, playlistID, err := ParseAppleMusicPlaylistID(playlistURL)
	if err != nil {
		return nil, err
	}

	var result appleMusicResourceResponse

	resp, err := s.userRequest(ctx, token).
		SetQueryParam("limit", "10").
		SetResult(&result).
		Get(s.apiURL + "/catalog/" + storefront + "/playlists/" + playlistID + "/tracks")

	if err != nil {
		return nil, requestError(models.ServiceAppleMusic, "playlist_tracks", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.ServiceAppleMusic, "playlist_tracks", resp.StatusCode(), appleErrorMessage(resp))
	}

	tracks := make([]PlaylistTrack, 0, len(result.Data))
	for _, song := range result.Data {
		tracks = append(tracks, PlaylistTrack{
			Name:        song.Attributes.Name,
			Description: song.Attributes.ArtistName,
			URL:         song.Attributes.URL,
		})
		if len(tracks) == 10 {
			break
		}
	}

	return tracks, nil
}

// CurrentUserStorefront resolves the storefront of the authorized user,
// used by connect flows to localize catalog lookups
func (s *AppleMusicService) CurrentUserStorefront(ctx context.Context, token AccessToken) (string, error) {
	var result appleMusicResourceResponse

	resp, err := s.userRequest(ctx, token).
		SetResult(&result).
		Get(s.apiURL + "/me/storefront")

	if err != nil {
		return "", requestError(models.ServiceAppleMusic, "storefront", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", statusError(models.ServiceAppleMusic, "storefront", resp.StatusCode(), appleErrorMessage(resp))
	}
	if len(result.Data) == 0 {
		return "", &ProviderError{
			Service:   models.ServiceAppleMusic,
			Operation: "storefront",
			Message:   "no storefront data returned",
		}
	}

	return result.Data[0].ID, nil
}

// userRequest prepares a request with both auth headers set
func (s *AppleMusicService) userRequest(ctx context.Context, token AccessToken) *resty.Request {
	return s.client.R().
		SetContext(ctx).
		SetAuthToken(token.Bearer).
		SetHeader("Music-User-Token", token.UserToken)
}

// appleDedupKey mirrors the merge engine's keying for intra-source
// aggregation of play events
func appleDedupKey(t ProviderTrack) string {
	if t.ISRC != "" {
		return "isrc:" + t.ISRC
	}
	return "name:" + strings.ToLower(strings.TrimSpace(t.Name)) + "|artist:" + strings.ToLower(strings.TrimSpace(t.Artist))
}

func convertAppleSong(song appleMusicResource) ProviderTrack {
	track := ProviderTrack{
		Name:      song.Attributes.Name,
		Artist:    song.Attributes.ArtistName,
		Album:     song.Attributes.AlbumName,
		URL:       song.Attributes.URL,
		ISRC:      song.Attributes.ISRC,
		PlayCount: 1,
	}
	if song.Attributes.LastPlayedDate != "" {
		if played, err := time.Parse(time.RFC3339, song.Attributes.LastPlayedDate); err == nil {
			track.LastPlayedAt = &played
		}
	}
	return track
}

// Apple Music playlist URL shapes, with and without the display-name segment
var appleMusicPlaylistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?music\.apple\.com/([a-z]{2})/playlist/(?:[^/]+/)?(pl\.[a-zA-Z0-9-]+)`),
}

// ParseAppleMusicPlaylistID extracts the storefront and playlist ID from a
// playlist URL
func ParseAppleMusicPlaylistID(playlistURL string) (storefront, playlistID string, err error) {
	for _, pattern := range appleMusicPlaylistPatterns {
		matches := pattern.FindStringSubmatch(playlistURL)
		if len(matches) > 2 && matches[2] != "" {
			return matches[1], matches[2], nil
		}
	}
	return "", "", &ProviderError{
		Service:   models.ServiceAppleMusic,
		Operation: "parse_playlist_url",
		Message:   "unrecognized playlist URL: " + playlistURL,
	}
}

func appleErrorMessage(resp *resty.Response) string {
	var apiErr appleMusicErrorResponse
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && len(apiErr.Errors) > 0 {
		e := apiErr.Errors[0]
		if e.Detail != "" {
			return e.Detail
		}
		if e.Title != "" {
			return e.Title
		}
	}
	return resp.Status()
}

// Apple Music API response structures
type appleMusicResourceResponse struct {
	Data []appleMusicResource `json:"data"`
}

type appleMusicResource struct {
	ID         string               `json:"id"`
	Type       string               `json:"type"`
	Attributes appleMusicAttributes `json:"attributes"`
}

type appleMusicAttributes struct {
	Name           string `json:"name"`
	ArtistName     string `json:"artistName"`
	AlbumName      string `json:"albumName"`
	ISRC           string `json:"isrc"`
	URL            string `json:"url"`
	LastPlayedDate string `json:"lastPlayedDate,omitempty"`
}

type appleMusicErrorResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}
