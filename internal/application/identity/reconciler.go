package identity

import (
	"context"
	"sync"

	"github.com/homereach/backend/internal/infrastructure/slot"
	"go.uber.org/zap"
)

// ShadowSuffix marks the rollback copy written before a legacy slot is
// overwritten with the canonical identifier.
const ShadowSuffix = "_pre_migration"

// Reconciler collapses every historical identifier source into the canonical
// one. It runs once per profile per process: the resolved map is the explicit
// "already reconciled" state, initialized once and reset only by tests.
//
// Every step is idempotent (rewriting a slot with the value it already holds
// is a no-op), so two near-simultaneous invocations at startup cannot corrupt
// state; the map is only a best-effort short-circuit to avoid duplicate work.
type Reconciler struct {
	provider *Provider
	logger   *zap.Logger

	// resolved caches the canonical identifier per profile for the life of
	// the process.
	resolved sync.Map
}

// NewReconciler creates a reconciler over an identity provider.
func NewReconciler(provider *Provider, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		provider: provider,
		logger:   logger,
	}
}

// Reconcile resolves the canonical identifier for a profile, adopting the
// first non-empty source in priority order: canonical primary, canonical
// backup, each legacy slot, and finally a freshly minted identifier. The
// resolved value is written back to every slot. Never fails: any unexpected
// error degrades to plain identifier generation so startup is never blocked
// by identity logic.
func (r *Reconciler) Reconcile(ctx context.Context, profileID string) string {
	if cached, ok := r.resolved.Load(profileID); ok {
		return cached.(string)
	}

	id, durable := r.reconcile(ctx, profileID)
	if durable {
		r.resolved.Store(profileID, id)
	}
	return id
}

// ResetForTest clears the resolved cache. Exposed only so tests can exercise
// the reconciliation path repeatedly; production code must never call it.
func (r *Reconciler) ResetForTest() {
	r.resolved.Range(func(key, _ any) bool {
		r.resolved.Delete(key)
		return true
	})
}

// reconcile resolves the identifier and reports whether it is durably held in
// a canonical slot. A value that was never written anywhere must not be
// treated as resolved: caching it would pin an ephemeral identifier for the
// rest of the process even after storage recovers.
func (r *Reconciler) reconcile(ctx context.Context, profileID string) (resolved string, durable bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("reconciliation panicked, falling back to identifier generation",
				zap.String("profile_id", profileID),
				zap.Any("panic", rec))
			resolved, durable = r.provider.GetID(ctx, profileID), false
		}
	}()

	id, source := r.adopt(ctx, profileID)
	if id == "" {
		// No source anywhere; the provider mints and persists a new one.
		id = r.provider.GetID(ctx, profileID)
		source = "generated"
	}

	// Adopting from a canonical slot proves durability; otherwise at least
	// one canonical write must land.
	durable = source == "primary" || source == "backup"
	if r.writeBack(ctx, profileID, id) {
		durable = true
	}

	r.logger.Info("visitor identity reconciled",
		zap.String("profile_id", profileID),
		zap.String("source", source),
		zap.Bool("durable", durable))
	return id, durable
}

// adopt returns the first non-empty identifier source in priority order, or
// "" when every source is empty. Divergent legacy values are resolved
// silently in favor of the earlier source.
func (r *Reconciler) adopt(ctx context.Context, profileID string) (string, string) {
	primary := r.provider.PrimarySlot(profileID)
	if value, err := primary.Get(ctx); err != nil {
		r.logger.Warn("failed to read primary slot during reconciliation",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else if value != "" {
		return value, "primary"
	}

	backup := r.provider.BackupSlot(profileID)
	if value, err := backup.Get(ctx); err != nil {
		r.logger.Warn("failed to read backup slot during reconciliation",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else if value != "" {
		if err := primary.Set(ctx, value); err != nil {
			r.logger.Warn("failed to restore primary slot from backup",
				zap.String("profile_id", profileID),
				zap.Error(err))
		}
		return value, "backup"
	}

	for _, legacy := range r.provider.LegacySlots(profileID) {
		value, err := legacy.Get(ctx)
		if err != nil {
			r.logger.Warn("failed to read legacy slot during reconciliation",
				zap.String("profile_id", profileID),
				zap.String("slot", legacy.Key),
				zap.Error(err))
			continue
		}
		if value != "" {
			return value, legacy.Key
		}
	}

	return "", ""
}

// writeBack writes the canonical value into the primary, backup, and every
// legacy slot. Before overwriting a legacy slot, its prior value is copied to
// a shadow key at most once, which makes the overwrite auditable and
// reversible via Rollback.
// writeBack persists the canonical value and reports whether at least one
// canonical slot accepted it.
func (r *Reconciler) writeBack(ctx context.Context, profileID, id string) bool {
	persisted := false
	if err := r.provider.PrimarySlot(profileID).Set(ctx, id); err != nil {
		r.logger.Warn("failed to write canonical value to primary slot",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else {
		persisted = true
	}
	if err := r.provider.BackupSlot(profileID).Set(ctx, id); err != nil {
		r.logger.Warn("failed to write canonical value to backup slot",
			zap.String("profile_id", profileID),
			zap.Error(err))
	} else {
		persisted = true
	}

	for _, legacy := range r.provider.LegacySlots(profileID) {
		r.migrateLegacySlot(ctx, profileID, legacy, id)
	}
	return persisted
}

func (r *Reconciler) migrateLegacySlot(ctx context.Context, profileID string, legacy slot.Slot, id string) {
	prior, err := legacy.Get(ctx)
	if err != nil {
		r.logger.Warn("failed to read legacy slot before migration",
			zap.String("profile_id", profileID),
			zap.String("slot", legacy.Key),
			zap.Error(err))
		return
	}

	if prior != "" && prior != id {
		shadow := legacy.WithKey(legacy.Key + ShadowSuffix)
		existing, err := shadow.Get(ctx)
		if err != nil {
			r.logger.Warn("failed to read shadow slot",
				zap.String("profile_id", profileID),
				zap.String("slot", shadow.Key),
				zap.Error(err))
			return
		}
		if existing == "" {
			if err := shadow.Set(ctx, prior); err != nil {
				r.logger.Warn("failed to write shadow slot",
					zap.String("profile_id", profileID),
					zap.String("slot", shadow.Key),
					zap.Error(err))
				// Do not overwrite the legacy value if its shadow could
				// not be written; the next reconcile retries.
				return
			}
		}
	}

	if err := legacy.Set(ctx, id); err != nil {
		r.logger.Warn("failed to overwrite legacy slot with canonical value",
			zap.String("profile_id", profileID),
			zap.String("slot", legacy.Key),
			zap.Error(err))
	}
}

// Rollback restores every legacy slot that has a shadow value back to that
// value. Emergency-only operation for manual recovery; it does not touch the
// canonical slots, and it does not clear the resolved cache.
func (r *Reconciler) Rollback(ctx context.Context, profileID string) error {
	for _, legacy := range r.provider.LegacySlots(profileID) {
		shadow := legacy.WithKey(legacy.Key + ShadowSuffix)
		value, err := shadow.Get(ctx)
		if err != nil {
			return err
		}
		if value == "" {
			continue
		}
		if err := legacy.Set(ctx, value); err != nil {
			return err
		}
		r.logger.Info("legacy slot restored from shadow",
			zap.String("profile_id", profileID),
			zap.String("slot", legacy.Key))
	}
	return nil
}
