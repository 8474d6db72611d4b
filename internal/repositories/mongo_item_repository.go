package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reccord/internal/models"
)

// mongoListItemRepository implements ListItemRepository using MongoDB
type mongoListItemRepository struct {
	collection *mongo.Collection
}

// NewMongoListItemRepository creates a new MongoDB-backed list item repository
func NewMongoListItemRepository(db *models.Database) ListItemRepository {
	return &mongoListItemRepository{
		collection: db.DB.Collection("list_items"),
	}
}

// FindByList returns a list's items ordered by sort order
func (r *mongoListItemRepository) FindByList(ctx context.Context, listID string) ([]*models.ListItem, error) {
	opts := options.Find().SetSort(bson.M{"sort_order": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"list_id": listID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find list items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*models.ListItem
	for cursor.Next(ctx) {
		var item models.ListItem
		if err := cursor.Decode(&item); err != nil {
			slog.Error("Failed to decode list item", "error", err)
			continue
		}
		items = append(items, &item)
	}

	return items, cursor.Err()
}

// Replace deletes a list's items and inserts the new set. Delete-then-insert
// is scoped to one list; concurrent syncs of the same list are last-writer-wins.
func (r *mongoListItemRepository) Replace(ctx context.Context, listID string, items []*models.ListItem) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"list_id": listID}); err != nil {
		return fmt.Errorf("failed to clear list items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(items))
	for i, item := range items {
		item.ListID = listID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		docs[i] = item
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert list items: %w", err)
	}
	return nil
}
