package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oreforge/oreforge-server/pkg/logger"
)

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		log := logger.Get().With().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_addr", c.Request.RemoteAddr).
			Logger()

		c.Next()

		respLog := log.With().
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Int("body_size", c.Writer.Size()).
			Logger()

		if c.Writer.Status() >= 400 {
			respLog.Error().Msg("Request failed")
		} else {
			respLog.Info().Msg("Request completed")
		}
	}
}
