package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"converge.io/converge/pkg/token"
)

// HeaderAdminToken is the header name for admin token authentication.
const HeaderAdminToken = "X-Converge-Admin-Token"

// respondAuthError sends an authentication error response.
//
// This uses a generic error message to prevent information disclosure
// that could aid attackers in token enumeration.
func respondAuthError(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      "unauthorized",
		"message":    "Authentication failed",
		"request_id": GetRequestID(c),
	})
}

// RequireAdminToken creates middleware that protects the admin API.
//
// This middleware:
// - Extracts the admin token from the X-Converge-Admin-Token header
// - Compares its HMAC against the configured token's HMAC in constant time
// - Returns 401 Unauthorized if the token is missing or wrong
// - Returns 403 Forbidden for every request if no admin token is configured
//
// Parameters:
//   - verifier: Configured admin token, or nil to disable the admin API
//
// Returns:
//   - Gin middleware handler function
func RequireAdminToken(verifier *token.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "forbidden",
				"message":    "Admin API is disabled",
				"request_id": GetRequestID(c),
			})
			return
		}

		provided := c.GetHeader(HeaderAdminToken)
		if provided == "" || !verifier.Verify(provided) {
			GetLogger(c).Warn("admin authentication failed")
			respondAuthError(c)
			return
		}

		c.Next()
	}
}

// LimitAuthFailures creates middleware that locks out clients repeatedly
// failing admin authentication.
//
// Every 401 answered to a client IP consumes one token of limiter. Once the
// IP has no tokens left, its requests are rejected with 429 before the token
// is checked, until the bucket refills.
//
// Parameters:
//   - limiter: Failure budget keyed by client IP
//
// Returns:
//   - Gin middleware handler function, to be placed before RequireAdminToken
func LimitAuthFailures(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if limiter.Exhausted(ip) {
			GetLogger(c).Warn("client locked out after repeated authentication failures")
			abortRateLimited(c, "auth_failure")
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			limiter.Allow(ip)
		}
	}
}
