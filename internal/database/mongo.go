package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/hospital-api/internal/store"
)

// ConnectMongo dials the server and verifies it answers a ping before
// returning the database handle.
func ConnectMongo(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	logrus.WithField("database", name).Info("Successfully connected to MongoDB")
	return client, client.Database(name), nil
}

// EnsureIndexes creates the unique and listing indexes every collection
// relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	live := mongo.IndexModel{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "isDeleted", Value: 1}}}

	indexes := map[string][]mongo.IndexModel{
		store.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			live,
		},
		store.HospitalsCollection: {live},
		store.PatientsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hospitalId", Value: 1}}},
			live,
		},
		store.AuditCollection: {
			{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resourceId", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
