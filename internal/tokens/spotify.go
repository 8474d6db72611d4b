package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"reccord/internal/models"
	"reccord/internal/repositories"
	"reccord/internal/services"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// Applied when the token endpoint omits expires_in
	spotifyDefaultExpiry = 3600 * time.Second
)

// SpotifyTokenManager refreshes Spotify access tokens via the stored
// long-lived refresh token.
type SpotifyTokenManager struct {
	credentials repositories.CredentialRepository
	conf        *oauth2.Config
	buffer      time.Duration
	now         func() time.Time
}

// NewSpotifyTokenManager creates a token manager for Spotify connections
func NewSpotifyTokenManager(credentials repositories.CredentialRepository, clientID, clientSecret string) *SpotifyTokenManager {
	return &SpotifyTokenManager{
		credentials: credentials,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		buffer: RefreshBuffer,
		now:    time.Now,
	}
}

// Service returns the service tag
func (m *SpotifyTokenManager) Service() models.Service {
	return models.ServiceSpotify
}

// EnsureValid returns the stored access token, refreshing it first when it
// expires within the buffer. The refreshed token and expiry are persisted
// before returning; Spotify may rotate the refresh token, in which case the
// new one is stored too.
func (m *SpotifyTokenManager) EnsureValid(ctx context.Context, userID string) (services.AccessToken, error) {
	cred, err := m.credentials.Find(ctx, userID, models.ServiceSpotify)
	if err != nil {
		return services.AccessToken{}, fmt.Errorf("failed to load spotify credential: %w", err)
	}
	if cred == nil {
		return services.AccessToken{}, fmt.Errorf("spotify connection for user %s: %w", userID, services.ErrCredentialNotFound)
	}

	if cred.ExpiresAt.Sub(m.now()) >= m.buffer {
		return services.AccessToken{Bearer: cred.AccessToken}, nil
	}

	if cred.RefreshToken == "" {
		return services.AccessToken{}, fmt.Errorf("spotify connection for user %s has no refresh token: %w", userID, services.ErrExpiredCredential)
	}

	tok, err := m.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		return services.AccessToken{}, &services.ProviderError{
			Service:   models.ServiceSpotify,
			Operation: "refresh_token",
			Message:   "refresh grant failed",
			Err:       err,
		}
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = m.now().Add(spotifyDefaultExpiry)
	}

	cred.AccessToken = tok.AccessToken
	cred.ExpiresAt = expiry
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}

	if err := m.credentials.Save(ctx, cred); err != nil {
		return services.AccessToken{}, fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	slog.Info("Spotify access token refreshed", "user_id", userID, "expires_at", expiry)

	return services.AccessToken{Bearer: tok.AccessToken}, nil
}
