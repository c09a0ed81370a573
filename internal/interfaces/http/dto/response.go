package dto

import "time"

// ErrorResponse is the envelope for every failed request. Error carries a
// short, generic message; internal details are never leaked to the caller.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: message}
}

// SyncResponse is the session sync endpoint's success envelope. A response
// with Merged false is a safe no-op; Reason says why.
type SyncResponse struct {
	Success  bool       `json:"success"`
	Merged   bool       `json:"merged"`
	Reason   string     `json:"reason,omitempty"`
	SyncedAt *time.Time `json:"syncedAt,omitempty"`
}

// SyncRequest is the session sync request body
type SyncRequest struct {
	SessionData map[string]any `json:"sessionData"`
	// SyncReason is a free-text label for observability only; it never
	// affects merge behavior.
	SyncReason string `json:"syncReason" binding:"omitempty,max=128"`
}

// IdentityResponse carries the canonical visitor identifier
type IdentityResponse struct {
	Success   bool   `json:"success"`
	VisitorID string `json:"visitorId"`
}

// IdentityStatusResponse reports whether an identifier already exists,
// without minting one
type IdentityStatusResponse struct {
	Success bool `json:"success"`
	HasID   bool `json:"hasId"`
}

// SessionRecordResponse is the read-only view of a persisted session record
type SessionRecordResponse struct {
	Success    bool           `json:"success"`
	Attributes map[string]any `json:"attributes"`
	SyncedAt   time.Time      `json:"syncedAt"`
}
