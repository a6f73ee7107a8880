package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
)

// LoggerKey is the gin context key holding the request-scoped *logrus.Entry.
const LoggerKey = "logger"

type SuccessResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

type ErrorResponse struct {
	StatusCode int                 `json:"statusCode"`
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Errors     []map[string]string `json:"errors"`
}

// RequestLogger returns the logger the logging middleware attached to the
// request, or the standard logger outside of one.
func RequestLogger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(LoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(statusCode, SuccessResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// Fail writes the failure envelope for err and aborts the chain. Errors
// outside the known taxonomy are logged and hidden behind a generic message.
func Fail(c *gin.Context, err error) {
	status := apperrors.Status(err)
	message := err.Error()

	switch {
	case status == http.StatusInternalServerError:
		RequestLogger(c).WithError(err).Error("request failed")
		message = "Internal server error"
	case errors.Is(err, apperrors.ErrValidation):
		switch fields := apperrors.Fields(err); len(fields) {
		case 0:
		case 1:
			message = fields[0]["message"]
		default:
			message = "Validation failed"
		}
	default:
		RequestLogger(c).WithError(err).Warn("request rejected")
		message = apperrors.Message(err)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     apperrors.Fields(err),
	})
}
