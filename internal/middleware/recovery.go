package middleware

import (
	"fmt"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/hospital-api/internal/utils"
)

// Recovery turns a panic into the generic 500 envelope. The panic value and
// stack stay in the server log.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				utils.RequestLogger(c).
					WithField("stack", string(stack[:n])).
					Errorf("panic recovered: %v", r)

				utils.Fail(c, fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}
