package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bryancris/tasqi-sub001/internal/platform"
)

// Logger creates a middleware for logging HTTP requests. Besides the
// usual method/path/status fields it records who made the request and
// what kind of client it was, when that information is available.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := c.GetString("userID"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if mode := c.GetHeader(platform.HeaderDisplayMode); mode != "" {
			fields = append(fields, zap.String("display_mode", mode))
		}
		if online := c.GetHeader(platform.HeaderOnline); online != "" {
			fields = append(fields, zap.String("client_online", online))
		}

		logger.Info("HTTP request", fields...)
	}
}
