package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/homereach/backend/internal/interfaces/http/dto"
	"github.com/homereach/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// IdentityProvider resolves canonical visitor identifiers without failing
type IdentityProvider interface {
	GetID(ctx context.Context, profileID string) string
	HasID(ctx context.Context, profileID string) bool
}

// IdentityReconciler runs the one-shot identity migration and its rollback
type IdentityReconciler interface {
	Reconcile(ctx context.Context, profileID string) string
	Rollback(ctx context.Context, profileID string) error
}

// IdentityHandler handles visitor identity endpoints
type IdentityHandler struct {
	BaseHandler
	provider   IdentityProvider
	reconciler IdentityReconciler
	logger     *zap.Logger
}

// NewIdentityHandler creates a new IdentityHandler
func NewIdentityHandler(provider IdentityProvider, reconciler IdentityReconciler, logger *zap.Logger) *IdentityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityHandler{provider: provider, reconciler: reconciler, logger: logger}
}

// GetIdentity returns the caller's canonical visitor identifier, minting one
// if none exists yet. Never fails: storage trouble degrades to an ephemeral
// identifier inside the provider.
// GET /api/v1/identity
func (h *IdentityHandler) GetIdentity(c *gin.Context) {
	profileID := middleware.GetJWTProfileID(c)
	if profileID == "" {
		h.Unauthorized(c)
		return
	}

	id := h.provider.GetID(c.Request.Context(), profileID)
	h.Success(c, dto.IdentityResponse{Success: true, VisitorID: id})
}

// GetIdentityStatus reports whether an identifier exists without minting one.
// GET /api/v1/identity/status
func (h *IdentityHandler) GetIdentityStatus(c *gin.Context) {
	profileID := middleware.GetJWTProfileID(c)
	if profileID == "" {
		h.Unauthorized(c)
		return
	}

	h.Success(c, dto.IdentityStatusResponse{
		Success: true,
		HasID:   h.provider.HasID(c.Request.Context(), profileID),
	})
}

// Reconcile adopts the best existing identifier across canonical and legacy
// slots and writes it back everywhere. Safe to call repeatedly; after the
// first call for a profile it returns the already-resolved value.
// POST /api/v1/identity/reconcile
func (h *IdentityHandler) Reconcile(c *gin.Context) {
	profileID := middleware.GetJWTProfileID(c)
	if profileID == "" {
		h.Unauthorized(c)
		return
	}

	id := h.reconciler.Reconcile(c.Request.Context(), profileID)
	h.Success(c, dto.IdentityResponse{Success: true, VisitorID: id})
}

// Rollback restores legacy slots from their pre-migration shadows. Emergency
// recovery only; the route is gated on the identity admin scope.
// POST /api/v1/identity/rollback
func (h *IdentityHandler) Rollback(c *gin.Context) {
	profileID := middleware.GetJWTProfileID(c)
	if profileID == "" {
		h.Unauthorized(c)
		return
	}

	if err := h.reconciler.Rollback(c.Request.Context(), profileID); err != nil {
		h.logger.Error("identity rollback failed",
			zap.String("profile_id", profileID),
			zap.Error(err))
		h.InternalError(c)
		return
	}

	h.logger.Info("identity rollback completed", zap.String("profile_id", profileID))
	h.Success(c, gin.H{"success": true})
}
