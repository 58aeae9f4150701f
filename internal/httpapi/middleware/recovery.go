package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virajd/persona-memory/internal/logging"
)

// Recovery converts panics into a 500 JSON response instead of killing the
// connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logging.Errorw("panic recovered",
					"path", c.Request.URL.Path,
					"panic", r,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    50000,
					"message": "internal error",
				})
			}
		}()
		c.Next()
	}
}
