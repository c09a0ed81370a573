package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/homereach/backend/internal/domain/visitor"
)

// SessionRecordModel maps the persisted session record to the
// session_records table. Attributes are stored as a JSONB document; version
// backs the conditional write on the sync path.
type SessionRecordModel struct {
	ProfileID      string    `gorm:"primaryKey;size:64"`
	AttributesJSON string    `gorm:"column:attributes;type:jsonb;not null;default:'{}'"`
	Version        int64     `gorm:"not null;default:1"`
	SyncedAt       time.Time `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name
func (SessionRecordModel) TableName() string {
	return "session_records"
}

// ToDomain converts the model to a domain PersistedRecord
func (m *SessionRecordModel) ToDomain() (*visitor.PersistedRecord, error) {
	attributes := visitor.Record{}
	if m.AttributesJSON != "" {
		if err := json.Unmarshal([]byte(m.AttributesJSON), &attributes); err != nil {
			return nil, fmt.Errorf("failed to parse attributes for profile %s: %w", m.ProfileID, err)
		}
	}
	return &visitor.PersistedRecord{
		ProfileID:  m.ProfileID,
		Attributes: attributes,
		Version:    m.Version,
		SyncedAt:   m.SyncedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// FromDomain populates the model from a domain PersistedRecord
func (m *SessionRecordModel) FromDomain(record *visitor.PersistedRecord) error {
	attributes, err := json.Marshal(record.Attributes)
	if err != nil {
		return fmt.Errorf("failed to serialize attributes for profile %s: %w", record.ProfileID, err)
	}
	m.ProfileID = record.ProfileID
	m.AttributesJSON = string(attributes)
	m.Version = record.Version
	m.SyncedAt = record.SyncedAt
	m.CreatedAt = record.CreatedAt
	m.UpdatedAt = record.UpdatedAt
	return nil
}

// KVSlotModel maps durable identity slots to the kv_slots table. It backs the
// canonical backup slot, which must survive a Redis flush; rows past their
// expiry read as absent.
type KVSlotModel struct {
	Key       string     `gorm:"primaryKey;size:255;column:key"`
	Value     string     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName specifies the table name
func (KVSlotModel) TableName() string {
	return "kv_slots"
}
