package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

type testEnv struct {
	stores    Stores
	resources *Resources
	tokens    *TokenService
	auth      *AuthService
	audit     *AuditRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	st := NewMemoryStores()
	v := utils.NewValidator()
	audit := NewAuditRecorder(st.Audit, log)
	res := NewResources(st, v, audit, log, bcrypt.MinCost)
	signer := utils.NewTokenSigner("access-secret", "refresh-secret", time.Minute, time.Hour)
	tokens := NewTokenService(st.Users, signer, NewMemoryDenylist(), log)

	return &testEnv{
		stores:    st,
		resources: res,
		tokens:    tokens,
		auth:      NewAuthService(res.Users, st.Users, tokens, v, log),
		audit:     audit,
	}
}

func (e *testEnv) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	u, err := e.auth.Bootstrap(context.Background(), &models.UserInput{
		Email:    email,
		Password: "secret123",
		FullName: "Test " + string(role),
		Role:     role,
	})
	if err != nil {
		t.Fatalf("create %s user: %v", role, err)
	}
	return u
}

func callerOf(u *models.User) models.Caller {
	return models.Caller{ID: u.ID, Role: u.Role}
}

func anyCaller(role models.Role) models.Caller {
	return models.Caller{ID: primitive.NewObjectID(), Role: role}
}

func patientInput(userID primitive.ObjectID) *models.PatientInput {
	return &models.PatientInput{
		UserID:           userID.Hex(),
		Age:              30,
		BloodGroup:       "O+",
		MedicalHistory:   "none",
		Allergies:        []string{"pollen"},
		EmergencyContact: "555-0100",
		CurrentCondition: "stable",
		Gender:           models.GenderFemale,
	}
}

func hospitalInput(name, city string) *models.HospitalInput {
	return &models.HospitalInput{
		Name:    name,
		Address: &models.Address{State: "MH", City: city, Pincode: "411001"},
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
