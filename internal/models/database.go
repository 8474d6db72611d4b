package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database represents the database connection
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase creates a new database connection
func NewDatabase(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	clientOptions := options.Client().
		ApplyURI(mongoURL).
		SetMaxPoolSize(20).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)

	return &Database{
		Client: client,
		DB:     db,
	}, nil
}

// Close closes the database connection
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// CreateIndexes creates the indexes the sync engine queries against
func (d *Database) CreateIndexes(ctx context.Context) error {
	credentials := d.DB.Collection("sync_credentials")
	credentialIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "service", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := credentials.Indexes().CreateMany(ctx, credentialIndexes); err != nil {
		return err
	}

	configs := d.DB.Collection("sync_configs")
	configIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "list_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Sweep query: due configs per mode by watermark age
			Keys: bson.D{{Key: "mode", Value: 1}, {Key: "last_synced_at", Value: 1}},
		},
	}
	if _, err := configs.Indexes().CreateMany(ctx, configIndexes); err != nil {
		return err
	}

	items := d.DB.Collection("list_items")
	itemIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "list_id", Value: 1}, {Key: "sort_order", Value: 1}},
		},
	}
	if _, err := items.Indexes().CreateMany(ctx, itemIndexes); err != nil {
		return err
	}

	return nil
}
