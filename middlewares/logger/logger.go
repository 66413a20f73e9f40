package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/logger"
	"github.com/sirupsen/logrus"
)

// GinLogger logs one line per request to the shared loggers. 5xx responses go
// to the error log, 4xx to the warn log.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}
		if userID, ok := c.Get("user_id"); ok {
			entry["user_id"] = userID
		}

		switch {
		case status >= 500:
			logger.ErrorLogger.WithFields(entry).Error(c.Errors.String())
		case status >= 400:
			logger.WarnLogger.WithFields(entry).Warn("client error")
		default:
			logger.InfoLogger.WithFields(entry).Info("request handled")
		}
	}
}
