package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gameshelf/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true},
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{
				{Key: "frontend-key", Name: "frontend", Permissions: []string{"submit:rentals", "read:rentals", "read:games"}},
				{Key: "admin-key", Name: "admin-panel", Permissions: []string{}},
			},
		},
	}
}

func TestRequiredPermissionHTTP(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/games", "read:games"},
		{http.MethodGet, "/api/v1/availability/1", "read:games"},
		{http.MethodPost, "/api/v1/rentals", "submit:rentals"},
		{http.MethodGet, "/api/v1/rentals", "read:rentals"},
		{http.MethodGet, "/api/v1/rentals/5", "read:rentals"},
		{http.MethodPost, "/api/v1/rentals/5/approve", "manage:rentals"},
		{http.MethodPost, "/api/v1/rentals/5/reject", "manage:rentals"},
		{http.MethodPost, "/api/v1/rentals/5/start", "manage:rentals"},
		{http.MethodPost, "/api/v1/rentals/5/return", "manage:rentals"},
		{http.MethodPost, "/api/v1/exports/schedule", "manage:rentals"},
		{http.MethodGet, "/healthz", ""},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, nil)
		assert.Equal(t, tt.want, requiredPermissionHTTP(r), "%s %s", tt.method, tt.path)
	}
}

func TestCheckAuth(t *testing.T) {
	auth := NewHTTPAuth(testAuthConfig())

	t.Run("MissingKey", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
		assert.Error(t, auth.checkAuth(r))
	})

	t.Run("InvalidKey", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
		r.Header.Set("x-api-key", "wrong")
		assert.Error(t, auth.checkAuth(r))
	})

	t.Run("ValidKeyWithPermission", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/rentals", nil)
		r.Header.Set("x-api-key", "frontend-key")
		assert.NoError(t, auth.checkAuth(r))
	})

	t.Run("ValidKeyMissingPermission", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/5/approve", nil)
		r.Header.Set("x-api-key", "frontend-key")
		assert.ErrorIs(t, auth.checkAuth(r), errPermissionDenied)
	})

	t.Run("EmptyPermissionsAllowAll", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/5/approve", nil)
		r.Header.Set("x-api-key", "admin-key")
		assert.NoError(t, auth.checkAuth(r))
	})
}

func TestCallerIdentity(t *testing.T) {
	auth := NewHTTPAuth(testAuthConfig())

	t.Run("MissingEmail", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
		_, err := auth.callerIdentity(r)
		assert.Error(t, err)
	})

	t.Run("EmailOnly", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
		r.Header.Set("x-user-email", "tester@example.com")

		ident, err := auth.callerIdentity(r)
		require.NoError(t, err)
		assert.Equal(t, "tester@example.com", ident.Email)
		assert.Zero(t, ident.UserID)
	})

	t.Run("WithIDHint", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
		r.Header.Set("x-user-email", "tester@example.com")
		r.Header.Set("x-user-id", "42")

		ident, err := auth.callerIdentity(r)
		require.NoError(t, err)
		assert.Equal(t, int64(42), ident.UserID)
	})

	t.Run("BadIDHint", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/rentals", nil)
		r.Header.Set("x-user-email", "tester@example.com")
		r.Header.Set("x-user-id", "abc")

		_, err := auth.callerIdentity(r)
		assert.Error(t, err)
	})
}

func TestWrapStatuses(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("AuthDisabledPassesThrough", func(t *testing.T) {
		cfg := testAuthConfig()
		cfg.Auth.Enabled = false
		auth := NewHTTPAuth(cfg)

		rec := httptest.NewRecorder()
		auth.Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingKeyIs401", func(t *testing.T) {
		auth := NewHTTPAuth(testAuthConfig())

		rec := httptest.NewRecorder()
		auth.Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/games", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("NoPermissionIs403", func(t *testing.T) {
		auth := NewHTTPAuth(testAuthConfig())

		r := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/1/approve", nil)
		r.Header.Set("x-api-key", "frontend-key")
		rec := httptest.NewRecorder()
		auth.Wrap(next).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("RateLimitIs429", func(t *testing.T) {
		cfg := testAuthConfig()
		cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 1}
		auth := NewHTTPAuth(cfg)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/games", nil)
		r.Header.Set("x-api-key", "admin-key")

		rec := httptest.NewRecorder()
		auth.Wrap(next).ServeHTTP(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		auth.Wrap(next).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}
