package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/services"
)

// Handler holds the services the HTTP layer dispatches to. Its methods are
// the auth endpoints; the CRUD endpoints live on ResourceHandler.
type Handler struct {
	Auth         *services.AuthService
	Tokens       *services.TokenService
	Resources    *services.Resources
	Audit        *services.AuditRecorder
	CookieSecure bool
}

func NewHandler(auth *services.AuthService, tokens *services.TokenService, resources *services.Resources, audit *services.AuditRecorder, cookieSecure bool) *Handler {
	return &Handler{
		Auth:         auth,
		Tokens:       tokens,
		Resources:    resources,
		Audit:        audit,
		CookieSecure: cookieSecure,
	}
}

// bind decodes a JSON body. Unknown fields are ignored.
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.ErrPayloadTooLarge
	}
	return &apperrors.FieldError{
		Field:  "body",
		Err:    apperrors.ErrInvalidField,
		Detail: fmt.Sprintf("request body is not valid JSON: %v", err),
	}
}
