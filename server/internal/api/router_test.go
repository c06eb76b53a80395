package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"converge.io/converge/models"
	"converge.io/converge/pkg/token"
	"converge.io/converge/server/internal/api/handlers"
	"converge.io/converge/server/internal/api/middleware"
	"converge.io/converge/server/internal/metrics"
	"converge.io/converge/server/internal/registry"
)

const (
	testAdminToken = "test-admin-token-0123456789abcdefghijklmnopq"
	testSecret     = "a-secret-that-is-at-least-32-bytes-long"
)

const docsRegistry = `
modules:
  - id: docs
    path: /docs
    domain: example.com
    versions:
      - id: v1
        clusters:
          - id: eu
      - id: v2
`

const docsRegistryV3 = docsRegistry + `      - id: v3
`

const invalidRegistry = `
modules:
  - id: docs
    path: /docs
    versions:
      - id: v1
        default: true
      - id: v2
        default: true
`

type testServer struct {
	server       *httptest.Server
	routes       *LiveRoutes
	registryPath string
}

func setupTestServer(t *testing.T, contents string) *testServer {
	t.Helper()
	require.NoError(t, metrics.Init())

	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	verifier, err := token.NewVerifier(testAdminToken, testSecret)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	limiter := middleware.NewRateLimiter(1000, 1000, time.Minute)
	t.Cleanup(limiter.Stop)

	routes := NewLiveRoutes(registry.FileProvider{Path: path}, logger, limiter)

	gin.SetMode(gin.TestMode)
	router, err := SetupRouter(&RouterConfig{
		Logger:        logger,
		InstanceID:    "test-instance",
		Routes:        routes,
		AdminVerifier: verifier,
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{server: server, routes: routes, registryPath: path}
}

func (ts *testServer) do(t *testing.T, method, host, path string, admin bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.server.URL+path, nil)
	require.NoError(t, err)
	if host != "" {
		req.Host = host
	}
	if admin {
		req.Header.Set(middleware.HeaderAdminToken, testAdminToken)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_GeneratedRoutes(t *testing.T) {
	ts := setupTestServer(t, docsRegistry)
	_, err := ts.routes.Reload(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name      string
		path      string
		wantRoute string
		wantVer   string
		wantClu   string
		wantRes   string
	}{
		{"cluster show", "/docs/v1/eu/guide/install", "docs.v1.eu.show", "v1", "eu", "guide/install"},
		{"cluster search", "/docs/v1/eu/converge/search/endpoint", "docs.v1.eu.search", "v1", "eu", ""},
		{"version landing", "/docs/v2", "docs.v2", "v2", "", ""},
		{"quiet show", "/docs/guide", "docs.show", "", "", "guide"},
		{"quiet landing", "/docs/", "docs", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, "example.com", tt.path, false)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(middleware.HeaderRequestID))

			body := decode[handlers.ContentResponse](t, resp)
			assert.Equal(t, tt.wantRoute, body.Route)
			assert.Equal(t, "docs", body.Module)
			assert.Equal(t, tt.wantVer, body.Version)
			assert.Equal(t, tt.wantClu, body.Cluster)
			assert.Equal(t, tt.wantRes, body.Resource)
		})
	}
}

func TestServer_DispatchEdgeCases(t *testing.T) {
	ts := setupTestServer(t, docsRegistry)
	_, err := ts.routes.Reload(context.Background())
	require.NoError(t, err)

	t.Run("other host", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "blog.example.com", "/docs/v1", false)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("host with port", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "Example.COM:8080", "/docs/v1", false)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("head", func(t *testing.T) {
		resp := ts.do(t, http.MethodHead, "example.com", "/docs/v1", false)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "example.com", "/docs/v1", false)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"))
	})

	t.Run("unknown path", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "example.com", "/blog", false)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", decode[models.ErrorResponse](t, resp).Error)
	})
}

func TestServer_Health(t *testing.T) {
	ts := setupTestServer(t, docsRegistry)

	resp := ts.do(t, http.MethodGet, "", "/health/live", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "", "/health/ready", false)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "not ready before the first load")

	resp = ts.do(t, http.MethodGet, "example.com", "/docs/v1", false)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no routes before the first load")

	_, err := ts.routes.Reload(context.Background())
	require.NoError(t, err)

	resp = ts.do(t, http.MethodGet, "", "/health/ready", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_AdminAuth(t *testing.T) {
	ts := setupTestServer(t, docsRegistry)
	_, err := ts.routes.Reload(context.Background())
	require.NoError(t, err)

	resp := ts.do(t, http.MethodGet, "", "/api/v1/routes", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "", "/api/v1/routes", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[models.RouteListResponse](t, resp)
	assert.Equal(t, 12, list.Total)
	require.Len(t, list.Routes, 12)
	assert.Equal(t, "docs.v1.eu.search", list.Routes[0].Name)
	assert.Equal(t, "docs.show", list.Routes[11].Name)
	assert.Equal(t, models.Domain("example.com"), list.Routes[11].Domain)
}

func TestServer_Reload(t *testing.T) {
	ts := setupTestServer(t, docsRegistry)
	_, err := ts.routes.Reload(context.Background())
	require.NoError(t, err)

	resp := ts.do(t, http.MethodGet, "example.com", "/docs/v3/intro", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "docs.show", decode[handlers.ContentResponse](t, resp).Route)

	require.NoError(t, os.WriteFile(ts.registryPath, []byte(docsRegistryV3), 0o600))

	resp = ts.do(t, http.MethodPost, "", "/api/v1/routes/reload", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reload := decode[models.ReloadResponse](t, resp)
	assert.Equal(t, 15, reload.Routes)
	assert.Equal(t, 1, reload.Modules)

	resp = ts.do(t, http.MethodGet, "example.com", "/docs/v3/intro", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "docs.v3.show", decode[handlers.ContentResponse](t, resp).Route)

	t.Run("invalid registry keeps the current table", func(t *testing.T) {
		require.NoError(t, os.WriteFile(ts.registryPath, []byte(invalidRegistry), 0o600))

		resp := ts.do(t, http.MethodPost, "", "/api/v1/routes/reload", true)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		resp = ts.do(t, http.MethodGet, "example.com", "/docs/v3/intro", false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 15, ts.routes.Table().Len())
	})
}

func TestServer_Metrics(t *testing.T) {
	ts := setupTestServer(t, docsRegistry)
	_, err := ts.routes.Reload(context.Background())
	require.NoError(t, err)

	ts.do(t, http.MethodGet, "example.com", "/docs/v1", false)

	resp := ts.do(t, http.MethodGet, "", "/metrics", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `converge_routes_registered{module_id="docs"} 12`))
	assert.True(t, strings.Contains(string(body), `route="docs.v1"`))
}

func TestLiveRoutes_ProviderError(t *testing.T) {
	routes := NewLiveRoutes(registry.FileProvider{Path: filepath.Join(t.TempDir(), "missing.yaml")}, nil, nil)

	_, err := routes.Reload(context.Background())
	require.Error(t, err)
	assert.Nil(t, routes.Table())
	assert.Error(t, routes.Ready(context.Background()))
}
