package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/policy"
	"github.com/harentsoaR/hospital-api/internal/store"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

type Stores struct {
	Users     store.Collection[models.User]
	Hospitals store.Collection[models.Hospital]
	Patients  store.Collection[models.Patient]
	Audit     store.Collection[models.AuditLog]
}

func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Users:     store.NewMongoCollection[models.User](db, store.UsersCollection),
		Hospitals: store.NewMongoCollection[models.Hospital](db, store.HospitalsCollection),
		Patients:  store.NewMongoCollection[models.Patient](db, store.PatientsCollection),
		Audit:     store.NewMongoCollection[models.AuditLog](db, store.AuditCollection),
	}
}

// NewMemoryStores mirrors the unique indexes database.EnsureIndexes creates.
func NewMemoryStores() Stores {
	return Stores{
		Users:     store.NewMemoryCollection[models.User]("email"),
		Hospitals: store.NewMemoryCollection[models.Hospital](),
		Patients:  store.NewMemoryCollection[models.Patient]("userId"),
		Audit:     store.NewMemoryCollection[models.AuditLog](),
	}
}

type Resources struct {
	Users     *Manager[models.User, *models.User]
	Hospitals *Manager[models.Hospital, *models.Hospital]
	Patients  *Manager[models.Patient, *models.Patient]
}

func NewResources(st Stores, v *utils.Validator, audit *AuditRecorder, log *logrus.Logger, bcryptCost int) *Resources {
	users := Definition[models.User]{
		Resource:   policy.User,
		Collection: st.Users,
		Filters:    map[string]FilterKind{"role": FilterString},
		Owner:      func(u *models.User) primitive.ObjectID { return u.ID },
		Prepare: func(_ context.Context, u *models.User) error {
			hash, err := utils.HashPassword(u.Password, bcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u.Password = hash
			return nil
		},
		DeleteFields: bson.M{"refreshToken": ""},
	}

	hospitals := Definition[models.Hospital]{
		Resource:   policy.Hospital,
		Collection: st.Hospitals,
		Filters: map[string]FilterKind{
			"address.city":  FilterString,
			"address.state": FilterString,
		},
	}

	patients := Definition[models.Patient]{
		Resource:   policy.Patient,
		Collection: st.Patients,
		Filters: map[string]FilterKind{
			"hospitalId":     FilterRef,
			"assignedDoctor": FilterRef,
			"gender":         FilterString,
			"bloodGroup":     FilterString,
		},
		Owner: func(p *models.Patient) primitive.ObjectID { return p.UserID },
		Prepare: func(ctx context.Context, p *models.Patient) error {
			_, err := st.Users.FindOne(ctx, store.ByID(p.UserID, bson.M{"isDeleted": false}))
			if errors.Is(err, store.ErrNotFound) {
				return &apperrors.FieldError{Field: "userId", Err: apperrors.ErrInvalidReference, Detail: "userId does not refer to an existing user"}
			}
			return err
		},
		Populate: func(ctx context.Context, p *models.Patient) error {
			var err error
			if p.User, err = optional[models.User](st.Users.FindByID(ctx, p.UserID)); err != nil {
				return err
			}
			if p.AssignedDoctor != nil {
				if p.Doctor, err = optional[models.User](st.Users.FindByID(ctx, *p.AssignedDoctor)); err != nil {
					return err
				}
			}
			if p.HospitalID != nil {
				if p.Hospital, err = optional[models.Hospital](st.Hospitals.FindByID(ctx, *p.HospitalID)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return &Resources{
		Users:     NewManager[models.User, *models.User](users, v, audit, log),
		Hospitals: NewManager[models.Hospital, *models.Hospital](hospitals, v, audit, log),
		Patients:  NewManager[models.Patient, *models.Patient](patients, v, audit, log),
	}
}

// optional treats a dangling reference as absent.
func optional[T any](doc *T, err error) (*T, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}
