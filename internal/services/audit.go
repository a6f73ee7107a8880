package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/policy"
	"github.com/harentsoaR/hospital-api/internal/store"
)

// AuditRecorder appends one entry per successful lifecycle mutation. A
// failed write is logged and never fails the mutation it describes.
type AuditRecorder struct {
	logs store.Collection[models.AuditLog]
	log  *logrus.Logger
	now  func() time.Time
}

func NewAuditRecorder(logs store.Collection[models.AuditLog], log *logrus.Logger) *AuditRecorder {
	return &AuditRecorder{logs: logs, log: log, now: time.Now}
}

func (a *AuditRecorder) Record(ctx context.Context, actor models.Caller, action policy.Action, resource policy.Resource, id primitive.ObjectID, fields []string) {
	if a == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         primitive.NewObjectID(),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     string(action),
		Resource:   string(resource),
		ResourceID: id,
		Fields:     fields,
		At:         a.now().UTC(),
	}
	if err := a.logs.Insert(ctx, entry); err != nil {
		a.log.WithFields(logrus.Fields{
			"action":     action,
			"resource":   resource,
			"resourceId": id.Hex(),
		}).Warnf("Failed to create audit log: %v", err)
	}
}

// List returns entries oldest first, optionally narrowed to one resource
// kind or one record.
func (a *AuditRecorder) List(ctx context.Context, caller models.Caller, resource, resourceID string, page store.Page) ([]*models.AuditLog, error) {
	if !policy.Authorize(caller.Role, policy.List, policy.Audit) {
		return nil, apperrors.ErrForbidden
	}

	filter := bson.M{}
	if resource != "" {
		filter["resource"] = resource
	}
	if resourceID != "" {
		id, err := primitive.ObjectIDFromHex(resourceID)
		if err != nil {
			return nil, &apperrors.FieldError{Field: "resourceId", Err: apperrors.ErrInvalidReference, Detail: "resourceId must be a valid identifier"}
		}
		filter["resourceId"] = id
	}
	return a.logs.Find(ctx, filter, page)
}
