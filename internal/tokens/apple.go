package tokens

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reccord/internal/cache"
	"reccord/internal/models"
	"reccord/internal/repositories"
	"reccord/internal/services"
)

const (
	// Apple allows developer tokens up to six months; cache slightly
	// short of the claim so a fresh one is signed before the old lapses
	appleDeveloperTokenTTL      = 180 * 24 * time.Hour
	appleDeveloperTokenCacheKey = "tokens:apple_music:developer"
)

// AppleTokenManager handles the two-token Apple Music scheme: a
// service-level developer JWT signed with the team's ES256 key, and the
// per-user Music User Token, which cannot be refreshed programmatically.
type AppleTokenManager struct {
	credentials repositories.CredentialRepository
	cache       cache.Cache
	keyID       string
	teamID      string
	privateKey  *ecdsa.PrivateKey
	buffer      time.Duration
	now         func() time.Time
}

// NewAppleTokenManager creates a token manager for Apple Music connections,
// loading the ES256 signing key from keyFile
func NewAppleTokenManager(credentials repositories.CredentialRepository, tokenCache cache.Cache, keyID, teamID, keyFile string) (*AppleTokenManager, error) {
	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	privateKey, err := ParseApplePrivateKey(keyData)
	if err != nil {
		return nil, err
	}

	return &AppleTokenManager{
		credentials: credentials,
		cache:       tokenCache,
		keyID:       keyID,
		teamID:      teamID,
		privateKey:  privateKey,
		buffer:      RefreshBuffer,
		now:         time.Now,
	}, nil
}

// ParseApplePrivateKey decodes a PEM-encoded PKCS#8 ECDSA private key
func ParseApplePrivateKey(pemData []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block from private key")
	}

	privateKey, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	ecdsaKey, ok := privateKey.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not ECDSA")
	}

	return ecdsaKey, nil
}

// Service returns the service tag
func (m *AppleTokenManager) Service() models.Service {
	return models.ServiceAppleMusic
}

// DeveloperToken returns the service-level JWT, signing a new one only when
// the cached copy has expired
func (m *AppleTokenManager) DeveloperToken(ctx context.Context) (string, error) {
	if cached, err := m.cache.Get(ctx, appleDeveloperTokenCacheKey); err == nil && len(cached) > 0 {
		return string(cached), nil
	}

	now := m.now()
	claims := jwt.MapClaims{
		"iss": m.teamID,
		"iat": now.Unix(),
		"exp": now.Add(appleDeveloperTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = m.keyID

	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", &services.ProviderError{
			Service:   models.ServiceAppleMusic,
			Operation: "developer_token",
			Message:   "failed to sign developer token",
			Err:       err,
		}
	}

	if err := m.cache.Set(ctx, appleDeveloperTokenCacheKey, []byte(signed), appleDeveloperTokenTTL-24*time.Hour); err != nil {
		slog.Error("Failed to cache Apple Music developer token", "error", err)
	}

	slog.Info("Apple Music developer token signed", "expires_at", now.Add(appleDeveloperTokenTTL))

	return signed, nil
}

// EnsureValid returns the developer token plus the user's Music User Token.
// A user token within the buffer of expiry fails the call: Apple offers no
// refresh grant, so the user must re-authorize interactively.
func (m *AppleTokenManager) EnsureValid(ctx context.Context, userID string) (services.AccessToken, error) {
	cred, err := m.credentials.Find(ctx, userID, models.ServiceAppleMusic)
	if err != nil {
		return services.AccessToken{}, fmt.Errorf("failed to load apple music credential: %w", err)
	}
	if cred == nil {
		return services.AccessToken{}, fmt.Errorf("apple music connection for user %s: %w", userID, services.ErrCredentialNotFound)
	}

	if cred.ExpiresAt.Sub(m.now()) < m.buffer {
		return services.AccessToken{}, fmt.Errorf("apple music user token for user %s: %w", userID, services.ErrExpiredCredential)
	}

	developerToken, err := m.DeveloperToken(ctx)
	if err != nil {
		return services.AccessToken{}, err
	}

	return services.AccessToken{
		Bearer:    developerToken,
		UserToken: cred.MusicUserToken,
	}, nil
}
