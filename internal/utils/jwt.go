package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims carries the caller identity. The token id (jti) lives in
// RegisteredClaims.ID; refresh tokens carry no role.
type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role,omitempty"`
	Type   TokenType   `json:"type"`
	jwt.RegisteredClaims
}

// Caller converts verified claims into the request identity.
func (c *Claims) Caller() (models.Caller, error) {
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return models.Caller{}, fmt.Errorf("%w: bad subject", apperrors.ErrInvalidToken)
	}
	return models.Caller{ID: id, Role: c.Role}, nil
}

// TokenSigner signs access and refresh tokens with separate HS256 secrets.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenSigner {
	return &TokenSigner{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (s *TokenSigner) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenSigner) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenSigner) keys(typ TokenType) ([]byte, time.Duration) {
	if typ == RefreshToken {
		return s.refreshSecret, s.refreshTTL
	}
	return s.accessSecret, s.accessTTL
}

// Sign issues a token of the given type for the user.
func (s *TokenSigner) Sign(userID primitive.ObjectID, role models.Role, typ TokenType) (string, *Claims, error) {
	secret, ttl := s.keys(typ)
	if len(secret) == 0 {
		return "", nil, errors.New("token secret is not configured")
	}

	now := s.now()
	claims := &Claims{
		UserID: userID.Hex(),
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if typ == AccessToken {
		claims.Role = role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, claims, nil
}

// Parse verifies signature, expiry and token type. Every failure is
// reported as apperrors.ErrInvalidToken.
func (s *TokenSigner) Parse(tokenStr string, typ TokenType) (*Claims, error) {
	secret, _ := s.keys(typ)
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret not configured", apperrors.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token", apperrors.ErrInvalidToken, typ)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", apperrors.ErrInvalidToken)
	}
	return claims, nil
}
