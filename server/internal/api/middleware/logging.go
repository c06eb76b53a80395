// Package middleware provides HTTP middleware for the Converge server.
//
// This package implements request logging, metrics, rate limiting, admin
// authentication, CORS handling and the context-binding stages that resolve
// a generated route's module, version and cluster before its handler runs.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"converge.io/converge/server/internal/logging"
	"converge.io/converge/server/internal/routetable"
	"converge.io/converge/server/internal/util"
)

// HeaderRequestID carries the request ID in requests and responses.
const HeaderRequestID = "X-Request-ID"

// RequestLogger creates a middleware that logs all HTTP requests using structured logging.
//
// This middleware:
// - Reuses a valid incoming X-Request-ID or generates a new one
// - Creates a request-scoped logger with standard fields
// - Stores logger in both Gin and request context
// - Logs request completion with duration and the matched route name
//
// Parameters:
//   - logger: Zap logger instance
//
// Returns:
//   - Gin middleware handler function
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if util.ValidateUUID(requestID) != nil {
			requestID = uuid.New().String()
		}
		c.Header(HeaderRequestID, requestID)

		start := time.Now()

		requestLogger := logger.With(
			zap.String(logging.FieldRequestID, requestID),
			zap.String(logging.FieldMethod, c.Request.Method),
			zap.String(logging.FieldHost, c.Request.Host),
			zap.String(logging.FieldPath, c.Request.URL.Path),
			zap.String(logging.FieldRemoteAddr, c.ClientIP()),
			zap.String(logging.FieldUserAgent, c.Request.UserAgent()),
		)

		c.Set(contextKeyLogger, requestLogger)
		c.Set(contextKeyRequestID, requestID)

		// Store in request context for non-gin code
		ctx := logging.WithLogger(c.Request.Context(), requestLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int(logging.FieldStatusCode, status),
			zap.Duration(logging.FieldDuration, duration),
			zap.Int("response_size", c.Writer.Size()),
		}
		if name := c.GetString(routetable.RouteNameKey); name != "" {
			fields = append(fields, zap.String(logging.FieldRouteName, name))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String(logging.FieldError, c.Errors.String()))
		}

		// The binding stages may have enriched the logger.
		requestLogger = GetLogger(c)

		switch {
		case status >= 500:
			requestLogger.Error("request completed with server error", fields...)
		case status >= 400:
			requestLogger.Warn("request completed with client error", fields...)
		default:
			requestLogger.Info("request completed", fields...)
		}
	}
}

const (
	contextKeyLogger    = "logger"
	contextKeyRequestID = "request_id"
)

// GetLogger retrieves the request-scoped logger from Gin context.
// Returns a no-op logger if not found.
func GetLogger(c *gin.Context) *zap.Logger {
	if logger, exists := c.Get(contextKeyLogger); exists {
		if l, ok := logger.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

// GetRequestID retrieves the request ID from Gin context.
// Returns empty string if not found.
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
