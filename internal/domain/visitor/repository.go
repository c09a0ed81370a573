package visitor

import (
	"context"
	"time"
)

// PersistedRecord is the authoritative, server-held session record for a
// browser profile, together with its optimistic concurrency version.
type PersistedRecord struct {
	ProfileID  string
	Attributes Record
	Version    int64
	SyncedAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RecordRepository persists session records.
type RecordRepository interface {
	// FindByProfileID returns the record for a profile, or shared.ErrNotFound.
	FindByProfileID(ctx context.Context, profileID string) (*PersistedRecord, error)

	// Create inserts a record for a profile on its first merge.
	Create(ctx context.Context, record *PersistedRecord) error

	// Update writes the record conditionally on the version it was read at.
	// Returns shared.ErrConcurrencyConflict when another writer got there
	// first; callers re-read and re-merge.
	Update(ctx context.Context, record *PersistedRecord, expectedVersion int64) error
}
