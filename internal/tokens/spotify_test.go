package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reccord/internal/models"
	"reccord/internal/services"
	"reccord/internal/testutil"
)

func newTokenEndpoint(t *testing.T, response map[string]interface{}) (*httptest.Server, *int) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestSpotifyEnsureValid_FreshTokenNotRefreshed(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.SpotifyCredential("user-1", time.Now().Add(10*time.Minute))
	repo.On("Find", mock.Anything, "user-1", models.ServiceSpotify).Return(cred, nil)

	server, calls := newTokenEndpoint(t, nil)
	manager := NewSpotifyTokenManager(repo, "client-id", "client-secret")
	manager.conf.Endpoint.TokenURL = server.URL

	token, err := manager.EnsureValid(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, cred.AccessToken, token.Bearer)
	assert.Zero(t, *calls, "no refresh expected for a token outside the buffer")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSpotifyEnsureValid_RefreshesInsideBuffer(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.SpotifyCredential("user-1", time.Now().Add(4*time.Minute))
	repo.On("Find", mock.Anything, "user-1", models.ServiceSpotify).Return(cred, nil)
	repo.On("Save", mock.Anything, cred).Return(nil)

	server, calls := newTokenEndpoint(t, map[string]interface{}{
		"access_token":  "refreshed-access-token",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": "rotated-refresh-token",
	})
	manager := NewSpotifyTokenManager(repo, "client-id", "client-secret")
	manager.conf.Endpoint.TokenURL = server.URL

	token, err := manager.EnsureValid(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, "refreshed-access-token", token.Bearer)
	assert.Equal(t, "refreshed-access-token", cred.AccessToken)
	assert.Equal(t, "rotated-refresh-token", cred.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cred.ExpiresAt, time.Minute)
	repo.AssertCalled(t, "Save", mock.Anything, cred)
}

func TestSpotifyEnsureValid_DefaultExpiryWhenOmitted(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.SpotifyCredential("user-1", time.Now().Add(-time.Minute))
	repo.On("Find", mock.Anything, "user-1", models.ServiceSpotify).Return(cred, nil)
	repo.On("Save", mock.Anything, cred).Return(nil)

	server, _ := newTokenEndpoint(t, map[string]interface{}{
		"access_token": "refreshed-access-token",
		"token_type":   "Bearer",
		// no expires_in: fall back to 3600s
	})
	manager := NewSpotifyTokenManager(repo, "client-id", "client-secret")
	manager.conf.Endpoint.TokenURL = server.URL

	_, err := manager.EnsureValid(context.Background(), "user-1")
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(spotifyDefaultExpiry), cred.ExpiresAt, time.Minute)
}

func TestSpotifyEnsureValid_CredentialNotFound(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	repo.On("Find", mock.Anything, "user-1", models.ServiceSpotify).Return(nil, nil)

	manager := NewSpotifyTokenManager(repo, "client-id", "client-secret")

	_, err := manager.EnsureValid(context.Background(), "user-1")
	assert.ErrorIs(t, err, services.ErrCredentialNotFound)
}

func TestSpotifyEnsureValid_MissingRefreshToken(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.SpotifyCredential("user-1", time.Now().Add(time.Minute))
	cred.RefreshToken = ""
	repo.On("Find", mock.Anything, "user-1", models.ServiceSpotify).Return(cred, nil)

	manager := NewSpotifyTokenManager(repo, "client-id", "client-secret")

	_, err := manager.EnsureValid(context.Background(), "user-1")
	assert.ErrorIs(t, err, services.ErrExpiredCredential)
}

func TestSpotifyEnsureValid_RefreshFailureWrapped(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.SpotifyCredential("user-1", time.Now().Add(time.Minute))
	repo.On("Find", mock.Anything, "user-1", models.ServiceSpotify).Return(cred, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	manager := NewSpotifyTokenManager(repo, "client-id", "client-secret")
	manager.conf.Endpoint.TokenURL = server.URL

	_, err := manager.EnsureValid(context.Background(), "user-1")
	require.Error(t, err)

	var providerErr *services.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, models.ServiceSpotify, providerErr.Service)
	assert.Equal(t, "refresh_token", providerErr.Operation)
}
