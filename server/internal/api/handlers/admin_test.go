package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"converge.io/converge/models"
	"converge.io/converge/server/internal/routetable"
)

type fakeRoutes struct {
	table     *routetable.Table
	reloadErr error
	reloads   int
}

func (f *fakeRoutes) Table() *routetable.Table {
	return f.table
}

func (f *fakeRoutes) Reload(context.Context) (models.ReloadResponse, error) {
	f.reloads++
	if f.reloadErr != nil {
		return models.ReloadResponse{}, f.reloadErr
	}
	return models.ReloadResponse{Routes: f.table.Len(), Modules: 1}, nil
}

func adminRouter(routes RouteSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAdminHandler(routes)
	router := gin.New()
	router.GET("/api/v1/routes", h.ListRoutes)
	router.GET("/api/v1/routes/:name", h.GetRoute)
	router.POST("/api/v1/routes/reload", h.Reload)
	return router
}

func TestAdmin_ListRoutes(t *testing.T) {
	_, table := contentRouter(t)
	router := adminRouter(&fakeRoutes{table: table})

	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantFirst string
	}{
		{"all", "", 9, "docs.v1.eu.search"},
		{"module filter", "?module=docs", 9, "docs.v1.eu.search"},
		{"unknown module", "?module=blog", 0, ""},
		{"domain filter", "?domain=example.com", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/routes"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			var resp models.RouteListResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if resp.Total != tt.wantTotal || len(resp.Routes) != tt.wantTotal {
				t.Fatalf("total = %d (%d routes), want %d", resp.Total, len(resp.Routes), tt.wantTotal)
			}
			if tt.wantFirst != "" && resp.Routes[0].Name != tt.wantFirst {
				t.Errorf("first route = %q, want %q", resp.Routes[0].Name, tt.wantFirst)
			}
		})
	}
}

func TestAdmin_NotLoaded(t *testing.T) {
	router := adminRouter(&fakeRoutes{})

	for _, path := range []string{"/api/v1/routes", "/api/v1/routes/docs"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected status 503, got %d", path, w.Code)
		}
	}
}

func TestAdmin_GetRoute(t *testing.T) {
	_, table := contentRouter(t)
	router := adminRouter(&fakeRoutes{table: table})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantURL    string
	}{
		{"definition only", "/api/v1/routes/docs.v1", http.StatusOK, ""},
		{"reverse URL", "/api/v1/routes/docs.v1.eu.show?resource=intro", http.StatusOK, "/docs/v1/eu/intro"},
		{"constraint violated", "/api/v1/routes/docs.show?resource=v1", http.StatusBadRequest, ""},
		{"unknown route", "/api/v1/routes/blog", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}
			var resp RouteResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if resp.URL != tt.wantURL {
				t.Errorf("url = %q, want %q", resp.URL, tt.wantURL)
			}
		})
	}
}

func TestAdmin_Reload(t *testing.T) {
	_, table := contentRouter(t)

	t.Run("success", func(t *testing.T) {
		routes := &fakeRoutes{table: table}
		w := httptest.NewRecorder()
		adminRouter(routes).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/routes/reload", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		var resp models.ReloadResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON response: %v", err)
		}
		if resp.Routes != 9 || routes.reloads != 1 {
			t.Errorf("resp = %+v after %d reloads", resp, routes.reloads)
		}
	})

	failures := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid registry", fmt.Errorf("%w: %w", models.ErrInvalidRegistry, models.ErrDanglingLink), http.StatusUnprocessableEntity, "invalid_registry"},
		{"duplicate name", fmt.Errorf("%w: docs.v2", models.ErrDuplicateRouteName), http.StatusUnprocessableEntity, "invalid_registry"},
		{"database", fmt.Errorf("%w: locked", models.ErrDatabaseError), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			adminRouter(&fakeRoutes{table: table, reloadErr: tt.err}).
				ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/routes/reload", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantCode)
			}
		})
	}
}
