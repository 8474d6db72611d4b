package repositories

import (
	"context"

	"reccord/internal/models"
)

// ListItemRepository defines data operations for published list items
type ListItemRepository interface {
	// FindByList returns a list's items ordered by sort order
	FindByList(ctx context.Context, listID string) ([]*models.ListItem, error)

	// Replace deletes the list's current items and inserts the new set.
	// There is no incremental diff; the previous set is discarded whole.
	Replace(ctx context.Context, listID string, items []*models.ListItem) error
}
