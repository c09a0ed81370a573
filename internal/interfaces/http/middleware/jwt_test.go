package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/homereach/backend/internal/infrastructure/auth"
	"github.com/homereach/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough",
		AccessTokenExpiration: time.Hour,
		Issuer:                "homereach-test",
	})
}

func newAuthedRouter(jwtService *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.GET("/api/v1/identity", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"profileId": GetJWTProfileID(c)})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService(t)
	router := newAuthedRouter(jwtService)

	token, err := jwtService.GenerateAccessToken("profile-1", []string{auth.ScopeSessionSync})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "profile-1")
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	router := newAuthedRouter(newTestJWTService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	router := newAuthedRouter(newTestJWTService(t))

	for _, header := range []string{"Basic abc", "Bearer", "Bearer ", "garbage"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
	}
}

func TestJWTAuthMiddleware_InvalidToken(t *testing.T) {
	router := newAuthedRouter(newTestJWTService(t))

	other := auth.NewJWTService(config.JWTConfig{
		Secret:                "a-completely-different-secret-key-value",
		AccessTokenExpiration: time.Hour,
		Issuer:                "homereach-test",
	})
	token, err := other.GenerateAccessToken("profile-1", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/identity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := newAuthedRouter(newTestJWTService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireScope(t *testing.T) {
	jwtService := newTestJWTService(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	router.POST("/api/v1/identity/rollback",
		RequireScope(auth.ScopeIdentityAdmin),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })

	t.Run("scope present", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("profile-1", []string{auth.ScopeIdentityAdmin})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/identity/rollback", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("scope missing", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken("profile-1", []string{auth.ScopeSessionSync})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/identity/rollback", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Forbidden"}`, w.Body.String())
	})
}
