package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// CORSMiddleware sets the CORS headers on every response. With no allowed
// origins configured any origin is allowed. Otherwise a listed request origin
// is echoed back and every other request gets the first listed origin, which
// browsers will then refuse.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowOrigin(allowedOrigins, c.GetHeader("Origin")))
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		if len(allowedOrigins) > 0 {
			h.Add("Vary", "Origin")
		}
		c.Next()
	}
}

func allowOrigin(allowedOrigins []string, origin string) string {
	if len(allowedOrigins) == 0 {
		return "*"
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return allowedOrigins[0]
}
