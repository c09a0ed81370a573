package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homereach/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on the kv_slots table. It backs the canonical
// backup slot: slower than Redis but it survives a cache flush, so identity
// continuity only needs one of the two backends to hold its value.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed slot store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get returns the value for a key, or "" when the key is absent or expired
func (s *GormStore) Get(ctx context.Context, key string) (string, error) {
	var model models.KVSlotModel
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	if model.ExpiresAt != nil && time.Now().After(*model.ExpiresAt) {
		s.reapExpired(ctx, key)
		return "", nil
	}
	return model.Value, nil
}

// reapExpired removes an expired row so dead keys do not accumulate. Best
// effort: Get still reports the key as absent if the delete fails.
func (s *GormStore) reapExpired(ctx context.Context, key string) {
	s.db.WithContext(ctx).
		Where("key = ? AND expires_at <= ?", key, time.Now()).
		Delete(&models.KVSlotModel{})
}

// Set upserts a value with the given TTL; zero means no expiry
func (s *GormStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := time.Now()
	model := models.KVSlotModel{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		model.ExpiresAt = &expiresAt
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// Delete removes a key
func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&models.KVSlotModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// Ensure GormStore implements Store
var _ Store = (*GormStore)(nil)
