// Package aggregate merges listening history from multiple streaming
// services into a single ranked, deduplicated track list.
package aggregate

import (
	"strings"
	"time"

	"reccord/internal/models"
	"reccord/internal/services"
)

// Track is the unified track shape all sources are normalized into.
// Within one merge run at most one Track exists per dedup key; PlayCount
// is the sum of contributions from every source that matched the key and
// Sources records each contributing service.
type Track struct {
	Name         string           `json:"name"`
	Artist       string           `json:"artist"`
	Album        string           `json:"album,omitempty"`
	URL          string           `json:"url,omitempty"`
	ISRC         string           `json:"isrc,omitempty"`
	PlayCount    int              `json:"play_count"`
	LastPlayedAt *time.Time       `json:"last_played_at,omitempty"`
	Sources      []models.Service `json:"sources"`
}

// Key computes the dedup key for a track: the ISRC when present, otherwise
// normalized name+artist. Two tracks with the same title and artist but
// different ISRC availability across sources may fail to merge; that
// asymmetry is accepted rather than second-guessed with fuzzy matching.
func Key(t Track) string {
	if t.ISRC != "" {
		return "isrc:" + t.ISRC
	}
	name := strings.ToLower(strings.TrimSpace(t.Name))
	artist := strings.ToLower(strings.TrimSpace(t.Artist))
	return "name:" + name + "|artist:" + artist
}

// HasSource reports whether the track already credits the given service
func (t *Track) HasSource(s models.Service) bool {
	for _, src := range t.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// addSource unions a service into the track's source set, preserving order
func (t *Track) addSource(s models.Service) {
	if !t.HasSource(s) {
		t.Sources = append(t.Sources, s)
	}
}

// SourceTag returns the comma-joined service tags for persistence
func (t *Track) SourceTag() string {
	tags := make([]string, len(t.Sources))
	for i, s := range t.Sources {
		tags[i] = string(s)
	}
	return strings.Join(tags, ",")
}

// Normalize maps provider-native records into unified tracks, tagging each
// with exactly the one source it came from. Records with a non-positive
// play count are floored to one play.
func Normalize(tracks []services.ProviderTrack, source models.Service) []Track {
	normalized := make([]Track, 0, len(tracks))
	for _, pt := range tracks {
		playCount := pt.PlayCount
		if playCount < 1 {
			playCount = 1
		}
		normalized = append(normalized, Track{
			Name:         pt.Name,
			Artist:       pt.Artist,
			Album:        pt.Album,
			URL:          pt.URL,
			ISRC:         pt.ISRC,
			PlayCount:    playCount,
			LastPlayedAt: pt.LastPlayedAt,
			Sources:      []models.Service{source},
		})
	}
	return normalized
}
