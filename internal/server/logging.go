package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"gymtrack/internal/auth"
	"gymtrack/internal/logger"
)

// RequestLoggingMiddleware logs each request with its outcome and the
// authenticated actor when one is present. Probe endpoints are
// skipped to keep the log readable.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if actorID, ok := auth.GetUserID(c); ok {
			fields = append(fields, "user_id", actorID)
		}

		if status >= 500 {
			fields = append(fields, "errors", c.Errors.String())
			logger.Error("HTTP request failed", fields...)
			return
		}
		logger.Info("HTTP request", fields...)
	}
}
