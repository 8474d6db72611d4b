package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reccord/internal/models"
)

// mongoSyncConfigRepository implements SyncConfigRepository using MongoDB
type mongoSyncConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoSyncConfigRepository creates a new MongoDB-backed config repository
func NewMongoSyncConfigRepository(db *models.Database) SyncConfigRepository {
	return &mongoSyncConfigRepository{
		collection: db.DB.Collection("sync_configs"),
	}
}

// FindByList returns the config for a list
func (r *mongoSyncConfigRepository) FindByList(ctx context.Context, listID string) (*models.SyncConfig, error) {
	var config models.SyncConfig
	err := r.collection.FindOne(ctx, bson.M{"list_id": listID}).Decode(&config)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sync config: %w", err)
	}
	return &config, nil
}

// FindDue returns configs whose watermark is null or older than cutoff
func (r *mongoSyncConfigRepository) FindDue(ctx context.Context, mode models.SyncMode, cutoff time.Time) ([]*models.SyncConfig, error) {
	filter := bson.M{
		"mode": mode,
		"$or": []bson.M{
			{"last_synced_at": nil},
			{"last_synced_at": bson.M{"$exists": false}},
			{"last_synced_at": bson.M{"$lt": cutoff}},
		},
	}

	opts := options.Find().SetSort(bson.M{"last_synced_at": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due configs: %w", err)
	}
	defer cursor.Close(ctx)

	var configs []*models.SyncConfig
	for cursor.Next(ctx) {
		var config models.SyncConfig
		if err := cursor.Decode(&config); err != nil {
			slog.Error("Failed to decode sync config", "error", err)
			continue
		}
		configs = append(configs, &config)
	}

	return configs, cursor.Err()
}

// Save creates or updates a config
func (r *mongoSyncConfigRepository) Save(ctx context.Context, config *models.SyncConfig) error {
	now := time.Now()
	config.UpdatedAt = now

	if config.ID.IsZero() {
		config.CreatedAt = now
		result, err := r.collection.InsertOne(ctx, config)
		if err != nil {
			return fmt.Errorf("failed to insert sync config: %w", err)
		}
		config.ID = result.InsertedID.(primitive.ObjectID)
		return nil
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": config.ID}, config)
	if err != nil {
		return fmt.Errorf("failed to update sync config: %w", err)
	}
	return nil
}

// UpdateWatermark advances last_synced_at for a config
func (r *mongoSyncConfigRepository) UpdateWatermark(ctx context.Context, id primitive.ObjectID, ts time.Time) error {
	update := bson.M{"$set": bson.M{"last_synced_at": ts, "updated_at": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update watermark: %w", err)
	}
	return nil
}
