package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/store"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// TokenService issues access/refresh pairs and keeps the single live
// refresh token of each user on the user document.
type TokenService struct {
	users    store.Collection[models.User]
	signer   *utils.TokenSigner
	denylist Denylist
	log      *logrus.Logger
}

func NewTokenService(users store.Collection[models.User], signer *utils.TokenSigner, denylist Denylist, log *logrus.Logger) *TokenService {
	return &TokenService{users: users, signer: signer, denylist: denylist, log: log}
}

func (s *TokenService) Signer() *utils.TokenSigner { return s.signer }

func (s *TokenService) sign(user *models.User) (string, string, error) {
	access, _, err := s.signer.Sign(user.ID, user.Role, utils.AccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, _, err := s.signer.Sign(user.ID, "", utils.RefreshToken)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueTokens signs a fresh pair and stores the refresh token, replacing any
// previous one.
func (s *TokenService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, refresh, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	stored, err := s.users.Set(ctx,
		store.ByID(user.ID, bson.M{"isDeleted": false}),
		bson.M{"refreshToken": refresh, "updatedAt": time.Now().UTC()},
	)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: stored}, nil
}

// VerifyAccess authenticates an access token, rejecting denylisted ones.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (models.Caller, *utils.Claims, error) {
	claims, err := s.signer.Parse(token, utils.AccessToken)
	if err != nil {
		return models.Caller{}, nil, err
	}

	denied, err := s.denylist.Denied(ctx, claims.ID)
	if err != nil {
		return models.Caller{}, nil, fmt.Errorf("check token denylist: %w", err)
	}
	if denied {
		return models.Caller{}, nil, fmt.Errorf("%w: token revoked", apperrors.ErrInvalidToken)
	}

	caller, err := claims.Caller()
	if err != nil {
		return models.Caller{}, nil, err
	}
	if !caller.Role.Valid() {
		return models.Caller{}, nil, fmt.Errorf("%w: unknown role", apperrors.ErrInvalidToken)
	}
	return caller, claims, nil
}

// RotateRefresh exchanges a refresh token for a new pair. The swap only
// succeeds while the stored token still equals old, so a token can be
// rotated at most once.
func (s *TokenService) RotateRefresh(ctx context.Context, old string) (*TokenPair, error) {
	claims, err := s.signer.Parse(old, utils.RefreshToken)
	if err != nil {
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", apperrors.ErrInvalidToken)
	}

	user, err := s.users.FindOne(ctx, store.ByID(userID, bson.M{"isActive": true, "isDeleted": false}))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	access, refresh, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	stored, err := s.users.Set(ctx,
		store.ByID(userID, bson.M{"isDeleted": false, "refreshToken": old}),
		bson.M{"refreshToken": refresh, "updatedAt": time.Now().UTC()},
	)
	if errors.Is(err, store.ErrNotFound) {
		s.log.WithField("userId", userID.Hex()).Warn("Refresh token reuse or concurrent rotation rejected")
		return nil, apperrors.ErrTokenMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: stored}, nil
}

// Revoke clears the stored refresh token so it can no longer be rotated.
func (s *TokenService) Revoke(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.users.Set(ctx, store.ByID(userID, nil), bson.M{"refreshToken": ""})
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAccess denylists an access token for the rest of its lifetime.
func (s *TokenService) RevokeAccess(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.denylist.Deny(ctx, claims.ID, ttl)
}
