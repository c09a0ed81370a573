package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homereach/backend/internal/domain/shared"
	"github.com/homereach/backend/internal/domain/visitor"
	"go.uber.org/zap"
)

// No-op reasons reported when a sync request changes nothing.
const (
	ReasonIncomingEmpty = "incoming_empty"
	ReasonNoChanges     = "no_changes"
)

// SyncResult reports the outcome of a sync request.
type SyncResult struct {
	// Merged is true when the persisted record actually changed.
	Merged bool
	// Reason explains a safe no-op: ReasonIncomingEmpty or ReasonNoChanges.
	Reason string
	// SyncedAt is the persistence timestamp of the merged record, set only
	// when Merged is true.
	SyncedAt time.Time
}

// SyncService merges incoming session fragments into the persisted record for
// a profile. The merge itself is pure; the service owns the read-merge-write
// sequence around it.
type SyncService struct {
	records   visitor.RecordRepository
	mergeOpts visitor.MergeOptions
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncService creates a session sync service
func NewSyncService(records visitor.RecordRepository, mergeOpts visitor.MergeOptions, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		records:   records,
		mergeOpts: mergeOpts,
		logger:    logger,
		now:       time.Now,
	}
}

// Sync merges a fragment into the profile's persisted record. The write is
// conditional on the version the record was read at; a concurrent writer
// triggers one re-read and re-merge, which is safe because merging the same
// fragment twice yields the same record as merging it once.
func (s *SyncService) Sync(ctx context.Context, profileID string, fragment visitor.Record, reason string) (*SyncResult, error) {
	if profileID == "" {
		return nil, shared.ErrInvalidInput
	}
	if fragment.IsEmpty() {
		s.logger.Debug("session sync skipped, empty fragment",
			zap.String("profile_id", profileID),
			zap.String("sync_reason", reason))
		return &SyncResult{Merged: false, Reason: ReasonIncomingEmpty}, nil
	}

	result, err := s.syncOnce(ctx, profileID, fragment)
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.logger.Debug("session sync conflicted, retrying with fresh read",
			zap.String("profile_id", profileID),
			zap.String("sync_reason", reason))
		result, err = s.syncOnce(ctx, profileID, fragment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sync session for profile %s: %w", profileID, err)
	}

	s.logger.Info("session sync completed",
		zap.String("profile_id", profileID),
		zap.String("sync_reason", reason),
		zap.Bool("merged", result.Merged))
	return result, nil
}

func (s *SyncService) syncOnce(ctx context.Context, profileID string, fragment visitor.Record) (*SyncResult, error) {
	existing, err := s.records.FindByProfileID(ctx, profileID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := s.now()

	if existing == nil {
		record := &visitor.PersistedRecord{
			ProfileID:  profileID,
			Attributes: fragment.Clone(),
			Version:    1,
			SyncedAt:   now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.records.Create(ctx, record); err != nil {
			return nil, err
		}
		return &SyncResult{Merged: true, SyncedAt: now}, nil
	}

	merged := visitor.Merge(existing.Attributes, fragment, s.mergeOpts)
	if merged.Equal(existing.Attributes) {
		// Fully absorbed fragment; skipping the write also skips a
		// misleading synced_at bump.
		return &SyncResult{Merged: false, Reason: ReasonNoChanges}, nil
	}

	updated := &visitor.PersistedRecord{
		ProfileID:  profileID,
		Attributes: merged,
		Version:    existing.Version + 1,
		SyncedAt:   now,
		CreatedAt:  existing.CreatedAt,
		UpdatedAt:  now,
	}
	if err := s.records.Update(ctx, updated, existing.Version); err != nil {
		return nil, err
	}
	return &SyncResult{Merged: true, SyncedAt: now}, nil
}

// GetRecord returns the persisted session record for a profile, read-only.
// Dashboards and collaborating systems consume it through this method and
// never write to it directly.
func (s *SyncService) GetRecord(ctx context.Context, profileID string) (*visitor.PersistedRecord, error) {
	if profileID == "" {
		return nil, shared.ErrInvalidInput
	}
	return s.records.FindByProfileID(ctx, profileID)
}
