package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCollection[T any] struct {
	coll *mongo.Collection
}

func NewMongoCollection[T any](db *mongo.Database, name string) *MongoCollection[T] {
	return &MongoCollection[T]{coll: db.Collection(name)}
}

func (c *MongoCollection[T]) Insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	return nil
}

func (c *MongoCollection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

func (c *MongoCollection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (c *MongoCollection[T]) Find(ctx context.Context, filter bson.M, page Page) ([]*T, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if page.Skip > 0 {
		findOptions.SetSkip(page.Skip)
	}
	if page.Limit > 0 {
		findOptions.SetLimit(page.Limit)
	}

	cursor, err := c.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := make([]*T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return docs, nil
}

func (c *MongoCollection[T]) Set(ctx context.Context, filter bson.M, fields bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	err := c.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}
