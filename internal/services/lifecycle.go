package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/policy"
	"github.com/harentsoaR/hospital-api/internal/store"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// NewPage clamps caller-supplied paging values.
func NewPage(skip, limit int64) store.Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return store.Page{Skip: skip, Limit: limit}
}

type FilterKind int

const (
	FilterString FilterKind = iota
	FilterRef
)

// Definition describes one resource type to the lifecycle manager.
type Definition[T any] struct {
	Resource   policy.Resource
	Collection store.Collection[T]

	// Filters whitelists the list query keys, by bson path.
	Filters map[string]FilterKind

	// Owner returns the user a record belongs to. Nil disables ownership
	// grants for the resource.
	Owner func(*T) primitive.ObjectID

	// Prepare runs on a validated, built document right before insert.
	Prepare func(ctx context.Context, doc *T) error

	// Populate resolves references for detailed reads.
	Populate func(ctx context.Context, doc *T) error

	// DeleteFields are cleared alongside the soft-delete flag.
	DeleteFields bson.M
}

// Manager runs the create, read, list, update and soft-delete workflow for
// one resource. Every entry point consults the policy before touching the
// store.
type Manager[T any, P interface {
	*T
	Meta() *models.Record
}] struct {
	def       Definition[T]
	validator *utils.Validator
	audit     *AuditRecorder
	log       *logrus.Logger
	now       func() time.Time
}

func NewManager[T any, P interface {
	*T
	Meta() *models.Record
}](def Definition[T], v *utils.Validator, audit *AuditRecorder, log *logrus.Logger) *Manager[T, P] {
	return &Manager[T, P]{
		def:       def,
		validator: v,
		audit:     audit,
		log:       log,
		now:       time.Now,
	}
}

func (m *Manager[T, P]) Resource() policy.Resource { return m.def.Resource }

func (m *Manager[T, P]) Create(ctx context.Context, caller models.Caller, in models.Input[T]) (*T, error) {
	if !policy.Authorize(caller.Role, policy.Create, m.def.Resource) {
		return nil, apperrors.ErrForbidden
	}
	return m.create(ctx, caller, in)
}

// create skips the policy check; public registration enters here.
func (m *Manager[T, P]) create(ctx context.Context, actor models.Caller, in models.Input[T]) (*T, error) {
	if err := m.validator.Validate(in); err != nil {
		return nil, err
	}
	doc, err := in.Build()
	if err != nil {
		return nil, err
	}
	P(doc).Meta().Activate(m.now().UTC())

	if m.def.Prepare != nil {
		if err := m.def.Prepare(ctx, doc); err != nil {
			return nil, err
		}
	}

	if err := m.def.Collection.Insert(ctx, doc); err != nil {
		return nil, m.storeErr("create", err)
	}

	id := P(doc).Meta().ID
	if actor.ID.IsZero() {
		actor = models.Caller{ID: id}
	}
	m.audit.Record(ctx, actor, policy.Create, m.def.Resource, id, nil)
	return doc, nil
}

// GetByID returns the record even when it is soft-deleted; the isDeleted
// flag tells the caller.
func (m *Manager[T, P]) GetByID(ctx context.Context, caller models.Caller, id string, populate bool) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := m.admit(ctx, caller, policy.Read, oid)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if doc, err = m.def.Collection.FindByID(ctx, oid); err != nil {
			return nil, m.storeErr("get", err)
		}
	}

	if populate && m.def.Populate != nil {
		if err := m.def.Populate(ctx, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// List returns live records only. Unknown query keys are ignored and the
// liveness conditions always win over supplied values.
func (m *Manager[T, P]) List(ctx context.Context, caller models.Caller, query map[string]string, page store.Page) ([]*T, error) {
	if !policy.Authorize(caller.Role, policy.List, m.def.Resource) {
		return nil, apperrors.ErrForbidden
	}

	filter := bson.M{}
	for key, kind := range m.def.Filters {
		raw, ok := query[key]
		if !ok || raw == "" {
			continue
		}
		if kind == FilterRef {
			ref, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				return nil, &apperrors.FieldError{Field: key, Err: apperrors.ErrInvalidReference, Detail: key + " must be a valid identifier"}
			}
			filter[key] = ref
			continue
		}
		filter[key] = raw
	}
	filter["isActive"] = true
	filter["isDeleted"] = false

	docs, err := m.def.Collection.Find(ctx, filter, page)
	if err != nil {
		return nil, m.storeErr("list", err)
	}
	return docs, nil
}

// Update applies only the present, non-empty fields of patch. Concurrent
// updates to one record are applied whole, last write wins.
func (m *Manager[T, P]) Update(ctx context.Context, caller models.Caller, id string, patch models.Patch) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if _, err := m.admit(ctx, caller, policy.Update, oid); err != nil {
		return nil, err
	}

	patch.Normalize()
	if err := m.validator.Validate(patch); err != nil {
		return nil, err
	}

	live := store.ByID(oid, bson.M{"isDeleted": false})
	fields := patch.Fields()
	if _, ok := fields["isActive"]; ok && !bool(policy.Authorize(caller.Role, policy.SetActive, m.def.Resource)) {
		return nil, apperrors.ErrForbidden
	}
	if len(fields) == 0 {
		doc, err := m.def.Collection.FindOne(ctx, live)
		if err != nil {
			return nil, m.storeErr("update", err)
		}
		return doc, nil
	}

	changed := make([]string, 0, len(fields))
	for k := range fields {
		changed = append(changed, k)
	}
	sort.Strings(changed)

	set := bson.M{"updatedAt": m.now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	doc, err := m.def.Collection.Set(ctx, live, set)
	if err != nil {
		return nil, m.storeErr("update", err)
	}

	m.audit.Record(ctx, caller, policy.Update, m.def.Resource, oid, changed)
	return doc, nil
}

// SoftDelete flags the record as deleted. Nothing is removed and nothing
// referring to the record is touched.
func (m *Manager[T, P]) SoftDelete(ctx context.Context, caller models.Caller, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	if _, err := m.admit(ctx, caller, policy.Delete, oid); err != nil {
		return err
	}

	set := bson.M{"isDeleted": true, "updatedAt": m.now().UTC()}
	for k, v := range m.def.DeleteFields {
		set[k] = v
	}
	if _, err := m.def.Collection.Set(ctx, store.ByID(oid, bson.M{"isDeleted": false}), set); err != nil {
		return m.storeErr("delete", err)
	}

	m.audit.Record(ctx, caller, policy.Delete, m.def.Resource, oid, nil)
	return nil
}

// admit checks the role table and then the ownership rule. The record is
// loaded only when ownership has to be proven, and returned in that case.
func (m *Manager[T, P]) admit(ctx context.Context, caller models.Caller, action policy.Action, id primitive.ObjectID) (*T, error) {
	if policy.Authorize(caller.Role, action, m.def.Resource) {
		return nil, nil
	}
	if m.def.Owner == nil || !policy.SelfPermitted(action, m.def.Resource) || caller.ID.IsZero() {
		return nil, apperrors.ErrForbidden
	}

	doc, err := m.def.Collection.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrForbidden
	}
	if err != nil {
		return nil, m.storeErr("authorize", err)
	}
	if !policy.AuthorizeOwner(caller, action, m.def.Resource, m.def.Owner(doc)) {
		return nil, apperrors.ErrForbidden
	}
	return doc, nil
}

func (m *Manager[T, P]) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s %s: %w", op, m.def.Resource, apperrors.ErrNotFound)
	case errors.Is(err, store.ErrDuplicateKey):
		return fmt.Errorf("%s %s: %w", op, m.def.Resource, apperrors.ErrConflict)
	default:
		m.log.WithError(err).WithField("resource", m.def.Resource).Errorf("store %s failed", op)
		return fmt.Errorf("%s %s: %w", op, m.def.Resource, err)
	}
}

// ParseID validates a path identifier.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, &apperrors.FieldError{Field: "id", Err: apperrors.ErrInvalidIdentifier, Detail: "id must be a valid identifier"}
	}
	return oid, nil
}
