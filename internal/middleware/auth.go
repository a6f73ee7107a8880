package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/models"
	"github.com/harentsoaR/hospital-api/internal/services"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	callerKey = "caller"
	claimsKey = "claims"
)

// AuthMiddleware authenticates the request from the Authorization header,
// falling back to the access token cookie.
func AuthMiddleware(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(AccessCookie)
		}
		if token == "" {
			utils.Fail(c, apperrors.ErrInvalidToken)
			return
		}

		caller, claims, err := tokens.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			utils.Fail(c, err)
			return
		}

		// Set caller info in the context for handlers to use
		c.Set(callerKey, caller)
		c.Set(claimsKey, claims)
		utils.RequestLogger(c).Data["userId"] = caller.ID.Hex()

		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// CallerFrom returns the identity AuthMiddleware stored on the request.
func CallerFrom(c *gin.Context) models.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return models.Caller{}
}

func ClaimsFrom(c *gin.Context) *utils.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok {
			return claims
		}
	}
	return nil
}
