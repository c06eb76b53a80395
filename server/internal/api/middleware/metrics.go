package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"converge.io/converge/server/internal/metrics"
	"converge.io/converge/server/internal/routetable"
)

// unmatchedRoute labels requests no route answered.
const unmatchedRoute = "unmatched"

// MetricsMiddleware creates a middleware that collects Prometheus metrics for HTTP requests.
//
// Requests are labelled by gin route for the API and by route name for
// generated routes, so label cardinality stays bounded by the route table.
// The middleware should be added early in the middleware chain.
//
// Returns:
//   - Gin middleware handler function
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.GetString(routetable.RouteNameKey)
		}
		if route == "" {
			route = unmatchedRoute
		}

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
