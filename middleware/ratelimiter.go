package middleware

import (
	"net/http"
	"time"

	"github.com/CorrelAid/order_mailer/models"
	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware allows maxRequests per minute per client IP, taking the
// IP from the first of ipLookups that is present. A non-positive limit
// disables limiting.
func RateLimitMiddleware(maxRequests float64, ipLookups []string) gin.HandlerFunc {
	if maxRequests <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	perSecond := maxRequests / 60.0
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Minute})
	lmt.SetIPLookups(ipLookups)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request)
		if httpError != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.APIError{
				Error: "The API is at capacity, try again later.",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}
