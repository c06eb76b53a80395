package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"converge.io/converge/server/internal/metrics"
	"converge.io/converge/server/internal/routetable"
)

func TestMetricsMiddleware_RouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	if err := metrics.Init(); err != nil {
		t.Fatalf("Failed to initialize metrics: %v", err)
	}

	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/api/v1/items/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path == "/docs/intro" {
			c.Set(routetable.RouteNameKey, "docs.show")
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNotFound)
	})

	tests := []struct {
		path   string
		route  string
		status string
	}{
		{"/api/v1/items/123", "/api/v1/items/:id", "200"},
		{"/docs/intro", "docs.show", "200"},
		{"/nowhere", unmatchedRoute, "404"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, tt.route, tt.status)
			before := testutil.ToFloat64(counter)

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("requests_total{route=%q,status=%s} increased by %v, want 1", tt.route, tt.status, got)
			}
		})
	}

	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v, want 0", got)
	}
}
