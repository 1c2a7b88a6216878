package middleware

import (
	"pulse-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler logs every error the handlers recorded on the context. The
// handlers write their own response bodies; this only observes.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || l == nil {
			return
		}

		err := c.Errors.Last().Err
		l.Errorf("%s %s -> %d: %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), err)
	}
}
