package identity

import (
	"context"
	"time"

	"github.com/homereach/backend/internal/domain/visitor"
	"github.com/homereach/backend/internal/infrastructure/slot"
	"go.uber.org/zap"
)

// Default slot key names. Keys are namespaced per browser profile, so two
// profiles never see each other's slots.
const (
	DefaultPrimaryKey = "visitor_id"
	DefaultBackupKey  = "visitor_id_backup"
)

// DefaultBackupTTL bounds how long the backup slot outlives the primary
// being cleared.
const DefaultBackupTTL = 400 * 24 * time.Hour

// Config holds identity slot configuration.
type Config struct {
	// PrimaryKey is the canonical primary slot name.
	PrimaryKey string
	// BackupKey is the canonical backup slot name.
	BackupKey string
	// BackupTTL is the backup slot expiry. Defaults to DefaultBackupTTL.
	BackupTTL time.Duration
	// LegacyKeys are prior identity scheme slot names in adoption priority
	// order. Visitor-scoped keys only; session-scoped identifiers must never
	// be listed here.
	LegacyKeys []string
}

// applyDefaults fills in zero-valued fields
func (c *Config) applyDefaults() {
	if c.PrimaryKey == "" {
		c.PrimaryKey = DefaultPrimaryKey
	}
	if c.BackupKey == "" {
		c.BackupKey = DefaultBackupKey
	}
	if c.BackupTTL == 0 {
		c.BackupTTL = DefaultBackupTTL
	}
}

// Provider hands out the canonical visitor identifier for a browser profile,
// creating one only if none exists in either durable slot. All operations
// degrade instead of failing: when storage is unavailable the provider
// returns a fresh, non-persisted token for that call and the visitor loses
// attribution continuity, never functionality.
type Provider struct {
	primary slot.Store
	backup  slot.Store
	cfg     Config
	logger  *zap.Logger
}

// NewProvider creates an identity provider over a primary and a backup slot
// backend.
func NewProvider(primary, backup slot.Store, cfg Config, logger *zap.Logger) *Provider {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		primary: primary,
		backup:  backup,
		cfg:     cfg,
		logger:  logger,
	}
}

// GetID returns the stable identifier for a profile, minting and persisting a
// new one if neither slot holds a value. Idempotent given unchanged storage.
func (p *Provider) GetID(ctx context.Context, profileID string) string {
	primary := p.PrimarySlot(profileID)
	backup := p.BackupSlot(profileID)

	if value, err := primary.Get(ctx); err != nil {
		p.logger.Warn("primary identity slot unavailable",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else if value != "" {
		// Keep the backup in sync so a later primary loss is recoverable.
		if err := backup.Set(ctx, value); err != nil {
			p.logger.Warn("failed to refresh backup identity slot",
				zap.String("profile_id", profileID),
				zap.Error(err))
		}
		return value
	}

	if value, err := backup.Get(ctx); err != nil {
		p.logger.Warn("backup identity slot unavailable",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else if value != "" {
		// Restore into the primary so subsequent reads hit the fast path.
		if err := primary.Set(ctx, value); err != nil {
			p.logger.Warn("failed to restore primary identity slot",
				zap.String("profile_id", profileID),
				zap.Error(err))
		}
		return value
	}

	id := visitor.NewID()
	persisted := true
	if err := primary.Set(ctx, id); err != nil {
		persisted = false
		p.logger.Warn("failed to persist new identifier to primary slot",
			zap.String("profile_id", profileID),
			zap.Error(err))
	}
	if err := backup.Set(ctx, id); err != nil {
		p.logger.Warn("failed to persist new identifier to backup slot",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else {
		persisted = true
	}
	if !persisted {
		p.logger.Warn("identity storage unavailable, returning ephemeral identifier",
			zap.String("profile_id", profileID))
	}
	return id
}

// HasID reports whether an identifier already exists in either slot, without
// minting or persisting anything. Distinguishes first-time visitors.
func (p *Provider) HasID(ctx context.Context, profileID string) bool {
	if value, err := p.PrimarySlot(profileID).Get(ctx); err == nil && value != "" {
		return true
	}
	if value, err := p.BackupSlot(profileID).Get(ctx); err == nil && value != "" {
		return true
	}
	return false
}

// PrimarySlot returns the canonical primary slot for a profile
func (p *Provider) PrimarySlot(profileID string) slot.Slot {
	return slot.Slot{Store: p.primary, Key: slotKey(profileID, p.cfg.PrimaryKey)}
}

// BackupSlot returns the canonical backup slot for a profile
func (p *Provider) BackupSlot(profileID string) slot.Slot {
	return slot.Slot{Store: p.backup, Key: slotKey(profileID, p.cfg.BackupKey), TTL: p.cfg.BackupTTL}
}

// LegacySlots returns the legacy identity slots for a profile in adoption
// priority order.
func (p *Provider) LegacySlots(profileID string) []slot.Slot {
	slots := make([]slot.Slot, len(p.cfg.LegacyKeys))
	for i, key := range p.cfg.LegacyKeys {
		slots[i] = slot.Slot{Store: p.primary, Key: slotKey(profileID, key)}
	}
	return slots
}

func slotKey(profileID, name string) string {
	return profileID + ":" + name
}
