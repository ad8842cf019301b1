package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ReqLoggerKey is the gin context key of the request scoped logger.
	ReqLoggerKey = "reqLogger"
	RequestIDKey = "requestID"

	requestIDHeader = "X-Request-ID"
)

// RequestLogger tags each request with an id (taken from X-Request-ID when the
// client sends one) and stores a sugared logger carrying it in the context.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Set(ReqLoggerKey, log.With("requestId", id, "path", c.FullPath()))
		c.Next()
	}
}

// GetReqLogger returns the request scoped logger, or fallback when none is set.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}
