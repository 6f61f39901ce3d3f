package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/logger"
)

// RequestLogger пишет одну строку на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if fields["path"] == "" {
			fields["path"] = c.Request.URL.Path
		}
		if userID, ok := CurrentUserID(c); ok {
			fields["user_id"] = userID
		}

		entry := logger.Log.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("http запрос")
		case status >= 400:
			entry.Warn("http запрос")
		default:
			entry.Info("http запрос")
		}
	}
}
