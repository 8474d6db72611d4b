package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reccord/internal/models"
)

// mongoCredentialRepository implements CredentialRepository using MongoDB
type mongoCredentialRepository struct {
	collection *mongo.Collection
}

// NewMongoCredentialRepository creates a new MongoDB-backed credential repository
func NewMongoCredentialRepository(db *models.Database) CredentialRepository {
	return &mongoCredentialRepository{
		collection: db.DB.Collection("sync_credentials"),
	}
}

// Find returns the credential for a user/service pair
func (r *mongoCredentialRepository) Find(ctx context.Context, userID string, service models.Service) (*models.SyncCredential, error) {
	var credential models.SyncCredential
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "service": service}).Decode(&credential)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	return &credential, nil
}

// Save creates or updates a credential, keyed on user/service
func (r *mongoCredentialRepository) Save(ctx context.Context, credential *models.SyncCredential) error {
	now := time.Now()
	credential.UpdatedAt = now
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = now
	}

	if credential.ID.IsZero() {
		filter := bson.M{"user_id": credential.UserID, "service": credential.Service}
		update := bson.M{"$set": credential}
		opts := options.Update().SetUpsert(true)

		result, err := r.collection.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			return fmt.Errorf("failed to upsert credential: %w", err)
		}
		if result.UpsertedID != nil {
			credential.ID = result.UpsertedID.(primitive.ObjectID)
		}
		return nil
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": credential.ID}, credential)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return nil
}

// Delete removes a credential on disconnect
func (r *mongoCredentialRepository) Delete(ctx context.Context, userID string, service models.Service) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "service": service})
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
