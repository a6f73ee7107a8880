package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record holds the lifecycle fields shared by every stored resource. A record
// is active, inactive-but-present, or soft-deleted; it is never removed.
type Record struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (r *Record) Meta() *Record { return r }

// Activate stamps a freshly built record before its first insert.
func (r *Record) Activate(now time.Time) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.IsActive = true
	r.IsDeleted = false
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Live reports whether the record shows up in default listings.
func (r *Record) Live() bool {
	return r.IsActive && !r.IsDeleted
}

// Input is a validated create payload that knows how to build its document.
type Input[T any] interface {
	Build() (*T, error)
}

// Patch is a partial update. Normalize drops blank values so that only
// present, non-empty fields survive; Fields returns them keyed by bson path.
type Patch interface {
	Normalize()
	Fields() map[string]any
}

func blankAll(ps ...**string) {
	for _, p := range ps {
		if *p != nil && **p == "" {
			*p = nil
		}
	}
}

// oid converts a hex identifier that has already passed objectid validation.
func oid(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}

func oids(hexes []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		out = append(out, oid(h))
	}
	return out
}
