// Adapted from the teacher's internal/api/middleware/logging.go, pointed at
// internal/logging instead of internal/utils.
package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kjxref/kjxref/internal/logging"
)

// Logging returns a middleware that logs each HTTP request via logger.
func Logging(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		logMsg := fmt.Sprintf("method=%s path=%s status=%d latency_ms=%d client_ip=%s",
			method, path, statusCode, latency.Milliseconds(), clientIP)
		if query != "" {
			logMsg += fmt.Sprintf(" query=%s", query)
		}
		if len(c.Errors) > 0 {
			logMsg += fmt.Sprintf(" errors=%s", c.Errors.String())
		}

		switch {
		case statusCode >= 500:
			logger.Error(logMsg)
		case statusCode >= 400:
			logger.Warn(logMsg)
		default:
			logger.Info(logMsg)
		}
	}
}
