package tokens

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reccord/internal/cache"
	"reccord/internal/models"
	"reccord/internal/services"
	"reccord/internal/testutil"
)

func writeTestKey(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "authkey.p8")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	require.NoError(t, os.WriteFile(path, pemData, 0o600))

	return path, key
}

func newAppleManager(t *testing.T, repo *testutil.MockCredentialRepository) (*AppleTokenManager, *ecdsa.PrivateKey) {
	t.Helper()

	keyFile, key := writeTestKey(t)
	manager, err := NewAppleTokenManager(repo, cache.NewMemoryCache(), "KEY123", "TEAM456", keyFile)
	require.NoError(t, err)

	return manager, key
}

func TestNewAppleTokenManager_BadKeyFile(t *testing.T) {
	_, err := NewAppleTokenManager(&testutil.MockCredentialRepository{}, cache.NewMemoryCache(), "KEY123", "TEAM456", "/nonexistent/authkey.p8")
	assert.Error(t, err)
}

func TestParseApplePrivateKey_RejectsNonECDSA(t *testing.T) {
	_, err := ParseApplePrivateKey([]byte("not a pem block"))
	assert.Error(t, err)
}

func TestAppleDeveloperToken_SignedWithClaims(t *testing.T) {
	manager, key := newAppleManager(t, &testutil.MockCredentialRepository{})

	signed, err := manager.DeveloperToken(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "KEY123", parsed.Header["kid"])

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "TEAM456", claims["iss"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(appleDeveloperTokenTTL), exp.Time, time.Minute)
}

func TestAppleDeveloperToken_Cached(t *testing.T) {
	manager, _ := newAppleManager(t, &testutil.MockCredentialRepository{})

	base := time.Now()
	manager.now = func() time.Time { return base }

	first, err := manager.DeveloperToken(context.Background())
	require.NoError(t, err)

	// A later clock would produce a different iat, so an identical token
	// proves the cached copy was served
	manager.now = func() time.Time { return base.Add(time.Hour) }

	second, err := manager.DeveloperToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAppleEnsureValid_ReturnsBothTokens(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.AppleCredential("user-1", time.Now().Add(24*time.Hour))
	repo.On("Find", mock.Anything, "user-1", models.ServiceAppleMusic).Return(cred, nil)

	manager, _ := newAppleManager(t, repo)

	token, err := manager.EnsureValid(context.Background(), "user-1")
	require.NoError(t, err)

	assert.NotEmpty(t, token.Bearer)
	assert.Equal(t, cred.MusicUserToken, token.UserToken)
}

func TestAppleEnsureValid_UserTokenInsideBufferFails(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	cred := testutil.AppleCredential("user-1", time.Now().Add(4*time.Minute))
	repo.On("Find", mock.Anything, "user-1", models.ServiceAppleMusic).Return(cred, nil)

	manager, _ := newAppleManager(t, repo)

	// The Music User Token has no refresh grant; inside the buffer the
	// manager must fail rather than hand out a token about to lapse
	_, err := manager.EnsureValid(context.Background(), "user-1")
	assert.ErrorIs(t, err, services.ErrExpiredCredential)
}

func TestAppleEnsureValid_CredentialNotFound(t *testing.T) {
	repo := &testutil.MockCredentialRepository{}
	repo.On("Find", mock.Anything, "user-1", models.ServiceAppleMusic).Return(nil, nil)

	manager, _ := newAppleManager(t, repo)

	_, err := manager.EnsureValid(context.Background(), "user-1")
	assert.ErrorIs(t, err, services.ErrCredentialNotFound)
}
