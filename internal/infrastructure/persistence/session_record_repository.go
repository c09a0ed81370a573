package persistence

import (
	"context"
	"errors"

	"github.com/homereach/backend/internal/domain/shared"
	"github.com/homereach/backend/internal/domain/visitor"
	"github.com/homereach/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSessionRecordRepository implements visitor.RecordRepository using GORM
type GormSessionRecordRepository struct {
	db *gorm.DB
}

// NewGormSessionRecordRepository creates a new GormSessionRecordRepository
func NewGormSessionRecordRepository(db *gorm.DB) *GormSessionRecordRepository {
	return &GormSessionRecordRepository{db: db}
}

// FindByProfileID finds the session record for a profile
func (r *GormSessionRecordRepository) FindByProfileID(ctx context.Context, profileID string) (*visitor.PersistedRecord, error) {
	var model models.SessionRecordModel
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Create inserts the record for a profile's first merge. A concurrent first
// merge loses the insert race and reports a concurrency conflict, which the
// sync path resolves with a re-read.
func (r *GormSessionRecordRepository) Create(ctx context.Context, record *visitor.PersistedRecord) error {
	var model models.SessionRecordModel
	if err := model.FromDomain(record); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

// Update writes the record conditionally on the version it was read at
func (r *GormSessionRecordRepository) Update(ctx context.Context, record *visitor.PersistedRecord, expectedVersion int64) error {
	var model models.SessionRecordModel
	if err := model.FromDomain(record); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.SessionRecordModel{}).
		Where("profile_id = ? AND version = ?", record.ProfileID, expectedVersion).
		Updates(map[string]any{
			"attributes": model.AttributesJSON,
			"version":    model.Version,
			"synced_at":  model.SyncedAt,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormSessionRecordRepository implements visitor.RecordRepository
var _ visitor.RecordRepository = (*GormSessionRecordRepository)(nil)
