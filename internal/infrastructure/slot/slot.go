package slot

import (
	"context"
	"time"
)

// Store is a persistent key-value backend with optional expiry. Implementations
// must return ("", nil) for absent or expired keys; errors are reserved for
// backend failures.
type Store interface {
	// Get returns the value for a key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a value. A zero ttl means the value does not expire.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Slot is a named durable location on a specific backend. The identity
// components operate on slots, never on backends directly, which keeps the
// adoption and reconciliation logic backend-agnostic.
type Slot struct {
	Store Store
	Key   string
	TTL   time.Duration
}

// Get reads the slot's current value.
func (s Slot) Get(ctx context.Context) (string, error) {
	return s.Store.Get(ctx, s.Key)
}

// Set writes the slot's value with the slot's configured TTL.
func (s Slot) Set(ctx context.Context, value string) error {
	return s.Store.Set(ctx, s.Key, value, s.TTL)
}

// Delete clears the slot.
func (s Slot) Delete(ctx context.Context) error {
	return s.Store.Delete(ctx, s.Key)
}

// WithKey returns a slot on the same backend under a different key. Used for
// the shadow keys written before a legacy slot is overwritten.
func (s Slot) WithKey(key string) Slot {
	return Slot{Store: s.Store, Key: key, TTL: s.TTL}
}
