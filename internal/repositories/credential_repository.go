package repositories

import (
	"context"

	"reccord/internal/models"
)

// CredentialRepository defines data operations for service connections
type CredentialRepository interface {
	// Find returns the credential for a user/service pair, or nil when
	// the user has no connection to that service
	Find(ctx context.Context, userID string, service models.Service) (*models.SyncCredential, error)

	// Save creates or updates a credential
	Save(ctx context.Context, credential *models.SyncCredential) error

	// Delete removes a connection on explicit disconnect. Sync configs
	// referencing the service are left in place.
	Delete(ctx context.Context, userID string, service models.Service) error
}
