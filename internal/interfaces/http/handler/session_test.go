package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/homereach/backend/internal/application/session"
	"github.com/homereach/backend/internal/domain/shared"
	"github.com/homereach/backend/internal/domain/visitor"
	"github.com/homereach/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSessionSyncer is a mock implementation of SessionSyncer
type MockSessionSyncer struct {
	mock.Mock
}

func (m *MockSessionSyncer) Sync(ctx context.Context, profileID string, fragment visitor.Record, reason string) (*session.SyncResult, error) {
	args := m.Called(ctx, profileID, fragment, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.SyncResult), args.Error(1)
}

func (m *MockSessionSyncer) GetRecord(ctx context.Context, profileID string) (*visitor.PersistedRecord, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*visitor.PersistedRecord), args.Error(1)
}

func newSessionRouter(service SessionSyncer, profileID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if profileID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.JWTProfileIDKey, profileID)
			c.Next()
		})
	}
	h := NewSessionHandler(service, nil)
	router.POST("/api/v1/session/sync", h.Sync)
	router.GET("/api/v1/session", h.GetSession)
	return router
}

func TestSessionHandler_Sync_Merged(t *testing.T) {
	syncedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mockService := new(MockSessionSyncer)
	mockService.On("Sync", mock.Anything, "profile-1",
		visitor.Record{"windowCount": float64(3)}, "window_close").
		Return(&session.SyncResult{Merged: true, SyncedAt: syncedAt}, nil)

	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	body := `{"sessionData":{"windowCount":3},"syncReason":"window_close"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["merged"])
	assert.NotContains(t, resp, "reason")
	assert.Contains(t, resp, "syncedAt")
	mockService.AssertExpectations(t)
}

func TestSessionHandler_Sync_NoChanges(t *testing.T) {
	mockService := new(MockSessionSyncer)
	mockService.On("Sync", mock.Anything, "profile-1", mock.Anything, "").
		Return(&session.SyncResult{Merged: false, Reason: session.ReasonNoChanges}, nil)

	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sync",
		strings.NewReader(`{"sessionData":{"tags":["a"]}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["merged"])
	assert.Equal(t, "no_changes", resp["reason"])
	assert.NotContains(t, resp, "syncedAt")
}

func TestSessionHandler_Sync_EmptyFragment(t *testing.T) {
	mockService := new(MockSessionSyncer)
	mockService.On("Sync", mock.Anything, "profile-1", mock.Anything, "").
		Return(&session.SyncResult{Merged: false, Reason: session.ReasonIncomingEmpty}, nil)

	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sync",
		strings.NewReader(`{"sessionData":{}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "incoming_empty")
}

func TestSessionHandler_Sync_MalformedBody(t *testing.T) {
	mockService := new(MockSessionSyncer)
	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sync",
		strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Sync")
}

func TestSessionHandler_Sync_NoProfile(t *testing.T) {
	mockService := new(MockSessionSyncer)
	router := newSessionRouter(mockService, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sync",
		strings.NewReader(`{"sessionData":{"a":1}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Unauthorized"}`, w.Body.String())
}

func TestSessionHandler_Sync_ServiceError(t *testing.T) {
	mockService := new(MockSessionSyncer)
	mockService.On("Sync", mock.Anything, "profile-1", mock.Anything, "").
		Return(nil, assert.AnError)

	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/sync",
		strings.NewReader(`{"sessionData":{"a":1}}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal details never leak to the caller.
	assert.JSONEq(t, `{"success":false,"error":"An unexpected error occurred"}`, w.Body.String())
}

func TestSessionHandler_GetSession(t *testing.T) {
	syncedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mockService := new(MockSessionSyncer)
	mockService.On("GetRecord", mock.Anything, "profile-1").
		Return(&visitor.PersistedRecord{
			ProfileID:  "profile-1",
			Attributes: visitor.Record{"tags": []any{"a"}},
			Version:    4,
			SyncedAt:   syncedAt,
		}, nil)

	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tags":["a"]`)
}

func TestSessionHandler_GetSession_NotFound(t *testing.T) {
	mockService := new(MockSessionSyncer)
	mockService.On("GetRecord", mock.Anything, "profile-1").
		Return(nil, shared.ErrNotFound)

	router := newSessionRouter(mockService, "profile-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
