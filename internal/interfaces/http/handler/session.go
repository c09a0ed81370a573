package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/homereach/backend/internal/application/session"
	"github.com/homereach/backend/internal/domain/visitor"
	"github.com/homereach/backend/internal/interfaces/http/dto"
	"github.com/homereach/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// SessionSyncer is the application-layer surface the session handler needs
type SessionSyncer interface {
	Sync(ctx context.Context, profileID string, fragment visitor.Record, reason string) (*session.SyncResult, error)
	GetRecord(ctx context.Context, profileID string) (*visitor.PersistedRecord, error)
}

// SessionHandler handles session record endpoints
type SessionHandler struct {
	BaseHandler
	service SessionSyncer
	logger  *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(service SessionSyncer, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{service: service, logger: logger}
}

// Sync merges a session fragment into the caller's persisted record.
// POST /api/v1/session/sync
func (h *SessionHandler) Sync(c *gin.Context) {
	profileID := middleware.GetJWTProfileID(c)
	if profileID == "" {
		h.Unauthorized(c)
		return
	}

	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationError(err))
		return
	}

	result, err := h.service.Sync(c.Request.Context(), profileID, visitor.Record(req.SessionData), req.SyncReason)
	if err != nil {
		h.logger.Error("session sync failed",
			zap.String("profile_id", profileID),
			zap.String("sync_reason", req.SyncReason),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	resp := dto.SyncResponse{Success: true, Merged: result.Merged, Reason: result.Reason}
	if result.Merged {
		syncedAt := result.SyncedAt
		resp.SyncedAt = &syncedAt
	}
	h.Success(c, resp)
}

// GetSession returns the caller's persisted session record, read-only.
// GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	profileID := middleware.GetJWTProfileID(c)
	if profileID == "" {
		h.Unauthorized(c)
		return
	}

	record, err := h.service.GetRecord(c.Request.Context(), profileID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.SessionRecordResponse{
		Success:    true,
		Attributes: record.Attributes,
		SyncedAt:   record.SyncedAt,
	})
}
