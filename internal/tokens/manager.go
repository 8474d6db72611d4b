// Package tokens keeps per-user service credentials valid ahead of fetch
// calls, refreshing where the provider allows it.
package tokens

import (
	"context"
	"time"

	"reccord/internal/models"
	"reccord/internal/services"
)

// RefreshBuffer is the safety margin before expiry: a token within this
// buffer is refreshed (or rejected, when not refreshable) rather than used.
const RefreshBuffer = 5 * time.Minute

// Manager guarantees the caller a token valid for at least RefreshBuffer.
type Manager interface {
	// Service returns the service this manager holds credentials for
	Service() models.Service

	// EnsureValid returns a usable token for the user, refreshing and
	// persisting it first when it is within the buffer of expiry.
	// Fails with services.ErrCredentialNotFound when the user has no
	// connection, or services.ErrExpiredCredential when a
	// non-refreshable token has lapsed.
	EnsureValid(ctx context.Context, userID string) (services.AccessToken, error)
}
