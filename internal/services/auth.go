package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/store"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

type AuthService struct {
	users     *Manager[models.User, *models.User]
	store     store.Collection[models.User]
	tokens    *TokenService
	validator *utils.Validator
	log       *logrus.Logger
}

func NewAuthService(users *Manager[models.User, *models.User], st store.Collection[models.User], tokens *TokenService, v *utils.Validator, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, store: st, tokens: tokens, validator: v, log: log}
}

// Register is the public sign-up path. It runs the user create workflow
// without a caller, so no role grant is needed.
func (s *AuthService) Register(ctx context.Context, in *models.RegisterInput) (*models.User, error) {
	return s.users.create(ctx, models.Caller{}, in)
}

// Bootstrap creates an account of any role, Admin included, outside of the
// HTTP surface.
func (s *AuthService) Bootstrap(ctx context.Context, in *models.UserInput) (*models.User, error) {
	return s.users.create(ctx, models.Caller{}, in)
}

func (s *AuthService) Login(ctx context.Context, in *models.LoginInput) (*TokenPair, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.store.FindOne(ctx, bson.M{"email": email, "isDeleted": false})
	if errors.Is(err, store.ErrNotFound) {
		utils.BurnPasswordCheck(in.Password)
		s.log.Warnf("Login failed: unknown email %s", email)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !utils.CheckPasswordHash(in.Password, user.Password) {
		s.log.Warnf("Login failed: wrong password for user %s", user.ID.Hex())
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.log.Warnf("Login failed: inactive user %s", user.ID.Hex())
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.tokens.IssueTokens(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token required", apperrors.ErrInvalidToken)
	}
	return s.tokens.RotateRefresh(ctx, refreshToken)
}

// Logout ends the session: the stored refresh token is cleared and the
// presented access token is denylisted.
func (s *AuthService) Logout(ctx context.Context, caller models.Caller, claims *utils.Claims) error {
	if err := s.tokens.Revoke(ctx, caller.ID); err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return err
	}
	if err := s.tokens.RevokeAccess(ctx, claims); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.store.FindOne(ctx, store.ByID(caller.ID, bson.M{"isDeleted": false}))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
