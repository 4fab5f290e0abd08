package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jengzang/livetrack-backend-go/internal/logging"
	"github.com/jengzang/livetrack-backend-go/internal/metrics"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// Logger middleware logs HTTP requests and records their duration
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		// Attach a request-scoped logger for handlers and services
		reqLog := logging.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), reqLog))

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), statusCode, latency)

		if raw != "" {
			path = path + "?" + raw
		}

		event := reqLog.Info()
		switch {
		case statusCode >= 500:
			event = reqLog.Error()
		case statusCode >= 400:
			event = reqLog.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", statusCode).
			Dur("latency", latency).
			Msg("request")
	}
}
