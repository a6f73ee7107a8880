package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

// BodyLimit rejects bodies larger than limit bytes. A declared length is
// checked up front; the body reader enforces the limit for chunked uploads,
// and the bind step reports the overflow.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			utils.Fail(c, apperrors.ErrPayloadTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
