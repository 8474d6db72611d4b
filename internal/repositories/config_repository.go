package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"reccord/internal/models"
)

// SyncConfigRepository defines data operations for list sync configs
type SyncConfigRepository interface {
	// FindByList returns the config for a list, or nil when the list is
	// not auto-sourced
	FindByList(ctx context.Context, listID string) (*models.SyncConfig, error)

	// FindDue returns configs of the given mode whose watermark is null
	// or older than cutoff
	FindDue(ctx context.Context, mode models.SyncMode, cutoff time.Time) ([]*models.SyncConfig, error)

	// Save creates or updates a config
	Save(ctx context.Context, config *models.SyncConfig) error

	// UpdateWatermark advances last_synced_at. The watermark only moves
	// forward; it is updated after every sync attempt.
	UpdateWatermark(ctx context.Context, id primitive.ObjectID, ts time.Time) error
}
