package visitor

import (
	"strings"

	"github.com/google/uuid"
)

// IDPrefix marks canonical visitor identifiers so they are distinguishable
// from legacy scheme values in stored data.
const IDPrefix = "v_"

// NewID mints a new canonical visitor identifier: an opaque, high-entropy
// token that never changes once adopted for a browser profile.
func NewID() string {
	return IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
