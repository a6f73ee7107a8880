package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/services"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

type envelope struct {
	StatusCode int                 `json:"statusCode"`
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Errors     []map[string]string `json:"errors"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	auth   *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	st := services.NewMemoryStores()
	v := utils.NewValidator()
	audit := services.NewAuditRecorder(st.Audit, log)
	res := services.NewResources(st, v, audit, log, bcrypt.MinCost)
	signer := utils.NewTokenSigner("access-secret", "refresh-secret", time.Minute, time.Hour)
	tokens := services.NewTokenService(st.Users, signer, services.NewMemoryDenylist(), log)
	auth := services.NewAuthService(res.Users, st.Users, tokens, v, log)

	h := NewHandler(auth, tokens, res, audit, false)
	router := NewRouter(h, log, RouterConfig{CORSOrigins: []string{"http://localhost:3000"}, BodyLimit: 16 * 1024})
	return &testServer{t: t, router: router, auth: auth}
}

func (s *testServer) do(method, path string, body any, token string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: response is not an envelope: %s", method, path, w.Body.String())
	}
	if env.StatusCode != w.Code {
		s.t.Errorf("%s %s: envelope statusCode %d differs from HTTP status %d", method, path, env.StatusCode, w.Code)
	}
	return w, env
}

func (s *testServer) bootstrap(email string, role models.Role) *models.User {
	s.t.Helper()
	u, err := s.auth.Bootstrap(context.Background(), &models.UserInput{
		Email: email, Password: "secret123", FullName: string(role), Role: role,
	})
	if err != nil {
		s.t.Fatal(err)
	}
	return u
}

func (s *testServer) login(email string) services.TokenPair {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auths/login", gin.H{"email": email, "password": "secret123"}, "")
	if w.Code != http.StatusOK {
		s.t.Fatalf("login %s: %d %s", email, w.Code, env.Message)
	}
	var pair services.TokenPair
	if err := json.Unmarshal(env.Data, &pair); err != nil {
		s.t.Fatal(err)
	}
	return pair
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/auths/register", gin.H{
		"email": "a@x.com", "password": "secret123", "fullName": "A",
	}, "")
	if w.Code != http.StatusCreated || !env.Success {
		t.Fatalf("register: %d %s", w.Code, env.Message)
	}
	if bytes.Contains(env.Data, []byte("password")) || bytes.Contains(env.Data, []byte("secret123")) {
		t.Errorf("password leaked in response: %s", env.Data)
	}
	user := decode[map[string]any](t, env.Data)
	if user["role"] != "Patient" || user["isActive"] != true || user["isDeleted"] != false {
		t.Errorf("unexpected user %v", user)
	}

	w, env = s.do(http.MethodPost, "/api/v1/auths/login", gin.H{"email": "a@x.com", "password": "secret123"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, env.Message)
	}
	pair := decode[map[string]any](t, env.Data)
	if pair["accessToken"] == "" || pair["refreshToken"] == "" {
		t.Errorf("expected tokens, got %v", pair)
	}
	if !strings.Contains(strings.Join(w.Header().Values("Set-Cookie"), ";"), "accessToken=") {
		t.Error("expected access token cookie")
	}

	w, env = s.do(http.MethodPost, "/api/v1/auths/login", gin.H{"email": "a@x.com", "password": "wrong-pass"}, "")
	if w.Code != http.StatusUnauthorized || env.Success {
		t.Errorf("expected 401 failure envelope, got %d %+v", w.Code, env)
	}
	if env.Errors == nil {
		t.Error("failure envelope must carry errors")
	}
}

func TestRegister_MissingField(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/v1/auths/register", gin.H{"password": "secret123", "fullName": "A"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(env.Errors) != 1 || env.Errors[0]["field"] != "email" {
		t.Errorf("expected email field error, got %v", env.Errors)
	}

	w, _ = s.do(http.MethodPost, "/api/v1/auths/register", "{not json", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", w.Code)
	}
}

func TestRegister_PrivilegedRoleRejected(t *testing.T) {
	s := newTestServer(t)

	for _, role := range []string{"Hospital", "Doctor", "Admin"} {
		t.Run(role, func(t *testing.T) {
			w, env := s.do(http.MethodPost, "/api/v1/auths/register", gin.H{
				"email": "self@x.com", "password": "secret123", "fullName": "Self", "role": role,
			}, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, env.Message)
			}
			if len(env.Errors) != 1 || env.Errors[0]["field"] != "role" {
				t.Errorf("expected role field error, got %v", env.Errors)
			}

			w, _ = s.do(http.MethodPost, "/api/v1/auths/login", gin.H{"email": "self@x.com", "password": "secret123"}, "")
			if w.Code != http.StatusUnauthorized {
				t.Errorf("rejected registration must not create an account, login got %d", w.Code)
			}
		})
	}

	w, env := s.do(http.MethodPost, "/api/v1/auths/register", gin.H{
		"email": "self@x.com", "password": "secret123", "fullName": "Self", "role": "Patient",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("explicit Patient role: %d %s", w.Code, env.Message)
	}
}

func TestDeactivateUser(t *testing.T) {
	s := newTestServer(t)
	s.bootstrap("admin@x.com", models.RoleAdmin)
	s.bootstrap("h@x.com", models.RoleHospital)
	doctor := s.bootstrap("doc@x.com", models.RoleDoctor)
	admin := s.login("admin@x.com")
	hospital := s.login("h@x.com")
	s.login("doc@x.com")

	w, env := s.do(http.MethodPatch, "/api/v1/users/"+doctor.ID.Hex(), gin.H{"isActive": false}, hospital.AccessToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("hospital deactivating a user: expected 403, got %d (%s)", w.Code, env.Message)
	}

	w, env = s.do(http.MethodPatch, "/api/v1/users/"+doctor.ID.Hex(), gin.H{"isActive": false}, admin.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate: %d %s", w.Code, env.Message)
	}
	if got := decode[map[string]any](t, env.Data); got["isActive"] != false || got["isDeleted"] != false {
		t.Errorf("expected inactive but present user, got %v", got)
	}

	w, _ = s.do(http.MethodPost, "/api/v1/auths/login", gin.H{"email": "doc@x.com", "password": "secret123"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("inactive user login: expected 401, got %d", w.Code)
	}
}

func TestDeleteMissingHospital_Message(t *testing.T) {
	s := newTestServer(t)
	s.bootstrap("admin@x.com", models.RoleAdmin)
	admin := s.login("admin@x.com")

	w, env := s.do(http.MethodDelete, "/api/v1/hospitals/"+primitive.NewObjectID().Hex(), nil, admin.AccessToken)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if env.Message != "resource not found" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestPatientLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := s.bootstrap("p@x.com", models.RolePatient)
	s.bootstrap("h@x.com", models.RoleHospital)
	hospital := s.login("h@x.com")

	w, env := s.do(http.MethodPost, "/api/v1/patients", gin.H{
		"userId":           owner.ID.Hex(),
		"age":              30,
		"bloodGroup":       "A+",
		"medicalHistory":   "asthma",
		"allergies":        []string{"dust"},
		"emergencyContact": "555-0101",
		"currentCondition": "stable",
		"gender":           "Male",
	}, hospital.AccessToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create patient: %d %s", w.Code, env.Message)
	}
	created := decode[models.Patient](t, env.Data)

	w, env = s.do(http.MethodPatch, "/api/v1/patients/"+created.ID.Hex(), gin.H{"age": 40, "unknown": "ignored"}, hospital.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("patch patient: %d %s", w.Code, env.Message)
	}
	updated := decode[models.Patient](t, env.Data)
	if updated.Age != 40 {
		t.Errorf("expected age 40, got %d", updated.Age)
	}
	if updated.BloodGroup != created.BloodGroup || updated.MedicalHistory != created.MedicalHistory ||
		updated.EmergencyContact != created.EmergencyContact || updated.Gender != created.Gender {
		t.Errorf("fields other than age changed: %+v", updated)
	}

	// the owning patient can read its own record, populated
	self := s.login("p@x.com")
	w, env = s.do(http.MethodGet, "/api/v1/patients/"+created.ID.Hex()+"?populate=true", nil, self.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("self read: %d %s", w.Code, env.Message)
	}
	if got := decode[models.Patient](t, env.Data); got.User == nil || got.User.Email != "p@x.com" {
		t.Error("expected populated user")
	}

	w, _ = s.do(http.MethodGet, "/api/v1/patients", nil, self.AccessToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("patient listing patients: expected 403, got %d", w.Code)
	}

	w, _ = s.do(http.MethodDelete, "/api/v1/patients/"+created.ID.Hex(), nil, hospital.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
	_, env = s.do(http.MethodGet, "/api/v1/patients", nil, hospital.AccessToken)
	if list := decode[[]models.Patient](t, env.Data); len(list) != 0 {
		t.Errorf("soft-deleted patient still listed")
	}
	_, env = s.do(http.MethodGet, "/api/v1/patients/"+created.ID.Hex(), nil, hospital.AccessToken)
	if got := decode[models.Patient](t, env.Data); !got.IsDeleted {
		t.Error("expected isDeleted=true on direct read")
	}
}

func TestHospitalErrors(t *testing.T) {
	s := newTestServer(t)
	s.bootstrap("admin@x.com", models.RoleAdmin)
	s.bootstrap("doc@x.com", models.RoleDoctor)
	admin := s.login("admin@x.com")
	doctor := s.login("doc@x.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		token  string
		want   int
	}{
		{"delete missing", http.MethodDelete, "/api/v1/hospitals/" + primitive.NewObjectID().Hex(), nil, admin.AccessToken, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/v1/hospitals/xyz", nil, admin.AccessToken, http.StatusBadRequest},
		{"no token", http.MethodGet, "/api/v1/hospitals", nil, "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/hospitals", nil, "abc.def.ghi", http.StatusUnauthorized},
		{"doctor lists hospitals", http.MethodGet, "/api/v1/hospitals", nil, doctor.AccessToken, http.StatusForbidden},
		{"doctor creates hospital", http.MethodPost, "/api/v1/hospitals", gin.H{"name": "x"}, doctor.AccessToken, http.StatusForbidden},
		{"missing address", http.MethodPost, "/api/v1/hospitals", gin.H{"name": "x"}, admin.AccessToken, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/api/v1/hospitals?limit=many", nil, admin.AccessToken, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/wards", nil, admin.AccessToken, http.StatusNotFound},
		{"too large", http.MethodPost, "/api/v1/hospitals", gin.H{"name": strings.Repeat("x", 20*1024)}, admin.AccessToken, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(tt.method, tt.path, tt.body, tt.token)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, w.Code, env.Message)
			}
			if env.Success {
				t.Error("failure must report success=false")
			}
		})
	}
}

func TestHospitalCreateAndList(t *testing.T) {
	s := newTestServer(t)
	s.bootstrap("admin@x.com", models.RoleAdmin)
	admin := s.login("admin@x.com")

	for _, city := range []string{"Pune", "Delhi"} {
		w, env := s.do(http.MethodPost, "/api/v1/hospitals", gin.H{
			"name":    "General " + city,
			"address": gin.H{"state": "S", "city": city, "pincode": "100001"},
		}, admin.AccessToken)
		if w.Code != http.StatusCreated {
			t.Fatalf("create: %d %s", w.Code, env.Message)
		}
	}

	_, env := s.do(http.MethodGet, "/api/v1/hospitals?address.city=Delhi", nil, admin.AccessToken)
	list := decode[[]models.Hospital](t, env.Data)
	if len(list) != 1 || list[0].Address.City != "Delhi" {
		t.Errorf("expected one Delhi hospital, got %d", len(list))
	}

	_, env = s.do(http.MethodGet, "/api/v1/hospitals?limit=1", nil, admin.AccessToken)
	if list := decode[[]models.Hospital](t, env.Data); len(list) != 1 {
		t.Errorf("expected limit to apply, got %d", len(list))
	}

	w, env := s.do(http.MethodGet, "/api/v1/audit-logs?resource=hospital", nil, admin.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("audit logs: %d", w.Code)
	}
	if logs := decode[[]models.AuditLog](t, env.Data); len(logs) != 2 {
		t.Errorf("expected 2 audit entries, got %d", len(logs))
	}
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.bootstrap("a@x.com", models.RoleDoctor)
	first := s.login("a@x.com")

	w, env := s.do(http.MethodPost, "/api/v1/auths/refresh-token", nil, "",
		&http.Cookie{Name: "refreshToken", Value: first.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh via cookie: %d %s", w.Code, env.Message)
	}
	second := decode[services.TokenPair](t, env.Data)

	w, _ = s.do(http.MethodPost, "/api/v1/auths/refresh-token", gin.H{"refreshToken": first.RefreshToken}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("reused refresh token: expected 401, got %d", w.Code)
	}

	w, env = s.do(http.MethodGet, "/api/v1/auths/me", nil, "",
		&http.Cookie{Name: "accessToken", Value: second.AccessToken})
	if w.Code != http.StatusOK {
		t.Fatalf("me via cookie: %d %s", w.Code, env.Message)
	}

	w, _ = s.do(http.MethodPost, "/api/v1/auths/logout", nil, second.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	w, _ = s.do(http.MethodGet, "/api/v1/auths/me", nil, second.AccessToken)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("access token after logout: expected 401, got %d", w.Code)
	}
	w, _ = s.do(http.MethodPost, "/api/v1/auths/refresh-token", gin.H{"refreshToken": second.RefreshToken}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: expected 401, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/health", nil, "")
	if w.Code != http.StatusOK || !env.Success {
		t.Errorf("health: %d %+v", w.Code, env)
	}
}
