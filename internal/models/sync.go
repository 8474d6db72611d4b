package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service identifies a connected streaming service
type Service string

const (
	ServiceSpotify    Service = "SPOTIFY"
	ServiceAppleMusic Service = "APPLE_MUSIC"
)

// ServiceOrder is the canonical processing order for multi-source merges.
// Spotify is processed first; the merge engine's "keep existing unless empty"
// rules make this order observable when sources disagree on url/isrc.
var ServiceOrder = []Service{ServiceSpotify, ServiceAppleMusic}

// SyncMode distinguishes the two kinds of auto-sourced lists
type SyncMode string

const (
	ModeTopSongs SyncMode = "TOP_SONGS"
	ModePlaylist SyncMode = "PLAYLIST"
)

// TimeWindow selects how far back listening history is considered
type TimeWindow string

const (
	WindowThisWeek    TimeWindow = "THIS_WEEK"
	WindowThisMonth   TimeWindow = "THIS_MONTH"
	WindowPast6Months TimeWindow = "PAST_6_MONTHS"
	WindowPastYear    TimeWindow = "PAST_YEAR"
	WindowAllTime     TimeWindow = "ALL_TIME"
)

// Duration returns the window length. ok is false for WindowAllTime,
// which applies no date filter.
func (w TimeWindow) Duration() (d time.Duration, ok bool) {
	switch w {
	case WindowThisWeek:
		return 7 * 24 * time.Hour, true
	case WindowThisMonth:
		return 30 * 24 * time.Hour, true
	case WindowPast6Months:
		return 180 * 24 * time.Hour, true
	case WindowPastYear:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// SyncCredential holds a user's connection to one streaming service.
// For Spotify, AccessToken rotates and RefreshToken is long-lived. For
// Apple Music, MusicUserToken is the non-refreshable user token and
// AccessToken is unused (the developer token is service-level, not stored).
type SyncCredential struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	Service        Service            `bson:"service" json:"service"`
	AccessToken    string             `bson:"access_token,omitempty" json:"-"`
	RefreshToken   string             `bson:"refresh_token,omitempty" json:"-"`
	MusicUserToken string             `bson:"music_user_token,omitempty" json:"-"`
	ExpiresAt      time.Time          `bson:"expires_at" json:"expires_at"`
	ProviderUserID string             `bson:"provider_user_id,omitempty" json:"provider_user_id,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// SyncConfig describes how one list is automatically sourced.
// It belongs to exactly one list, which belongs to UserID. A config may
// outlive the credentials it depends on (disconnect does not cascade);
// the sync engine must tolerate that.
type SyncConfig struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ListID       string             `bson:"list_id" json:"list_id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	Mode         SyncMode           `bson:"mode" json:"mode"`
	Sources      []Service          `bson:"sources" json:"sources"`
	TimeWindow   TimeWindow         `bson:"time_window" json:"time_window"`
	PlaylistURL  string             `bson:"playlist_url,omitempty" json:"playlist_url,omitempty"`
	LastSyncedAt *time.Time         `bson:"last_synced_at,omitempty" json:"last_synced_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasSource reports whether the config includes the given service.
func (c *SyncConfig) HasSource(s Service) bool {
	for _, src := range c.Sources {
		if src == s {
			return true
		}
	}
	return false
}

// OrderedSources returns the config's sources in canonical merge order.
func (c *SyncConfig) OrderedSources() []Service {
	ordered := make([]Service, 0, len(c.Sources))
	for _, s := range ServiceOrder {
		if c.HasSource(s) {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// ListItem is one published entry of a list. The item set for a list is
// replaced wholesale on every sync; SortOrder is the rank index.
type ListItem struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ListID        string             `bson:"list_id" json:"list_id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	URL           string             `bson:"url,omitempty" json:"url,omitempty"`
	SortOrder     int                `bson:"sort_order" json:"sort_order"`
	ISRC          string             `bson:"isrc,omitempty" json:"isrc,omitempty"`
	AlbumName     string             `bson:"album_name,omitempty" json:"album_name,omitempty"`
	SourceService string             `bson:"source_service,omitempty" json:"source_service,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
