// Package store is the document persistence port. Every resource is kept in
// its own collection and addressed by ObjectID; filters and updates use bson
// field paths so the same calls work against MongoDB and the in-memory
// adapter.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

const (
	UsersCollection     = "users"
	HospitalsCollection = "hospitals"
	PatientsCollection  = "patients"
	AuditCollection     = "audit_logs"
)

// Page bounds a listing. A zero Limit means no limit.
type Page struct {
	Skip  int64
	Limit int64
}

// Collection is the set of single-document operations the services need.
// Set is atomic per document: the filter is evaluated and the update applied
// in one step, which is what refresh-token rotation relies on.
type Collection[T any] interface {
	Insert(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	FindOne(ctx context.Context, filter bson.M) (*T, error)
	Find(ctx context.Context, filter bson.M, page Page) ([]*T, error)
	Set(ctx context.Context, filter bson.M, fields bson.M) (*T, error)
}

// ByID builds the canonical identifier filter, merged with any extra
// conditions.
func ByID(id primitive.ObjectID, extra bson.M) bson.M {
	f := bson.M{"_id": id}
	for k, v := range extra {
		f[k] = v
	}
	return f
}
