package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is an append-only trace of one lifecycle mutation.
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID    primitive.ObjectID `bson:"actorId" json:"actorId"`
	ActorRole  Role               `bson:"actorRole" json:"actorRole"`
	Action     string             `bson:"action" json:"action"`
	Resource   string             `bson:"resource" json:"resource"`
	ResourceID primitive.ObjectID `bson:"resourceId" json:"resourceId"`
	Fields     []string           `bson:"fields,omitempty" json:"fields,omitempty"`
	At         time.Time          `bson:"at" json:"at"`
}
