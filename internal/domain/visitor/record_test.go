package visitor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Clone(t *testing.T) {
	t.Run("deep copies nested values", func(t *testing.T) {
		original := Record{
			"tags":     []any{"a", "b"},
			"property": map[string]any{"type": "condo"},
		}

		clone := original.Clone()
		clone["tags"].([]any)[0] = "mutated"
		clone["property"].(map[string]any)["type"] = "mutated"

		assert.Equal(t, []any{"a", "b"}, original["tags"])
		assert.Equal(t, map[string]any{"type": "condo"}, original["property"])
	})

	t.Run("nil record clones to nil", func(t *testing.T) {
		var r Record
		assert.Nil(t, r.Clone())
	})
}

func TestRecord_Equal(t *testing.T) {
	t.Run("equal records", func(t *testing.T) {
		a := Record{"tags": []any{"a"}, "score": float64(72)}
		b := Record{"score": float64(72), "tags": []any{"a"}}
		assert.True(t, a.Equal(b))
	})

	t.Run("different values", func(t *testing.T) {
		a := Record{"score": float64(72)}
		b := Record{"score": float64(73)}
		assert.False(t, a.Equal(b))
	})

	t.Run("missing field", func(t *testing.T) {
		a := Record{"score": float64(72), "tags": []any{"a"}}
		b := Record{"score": float64(72)}
		assert.False(t, a.Equal(b))
		assert.False(t, b.Equal(a))
	})

	t.Run("nested maps compare by content", func(t *testing.T) {
		a := Record{"property": map[string]any{"type": "condo"}}
		b := Record{"property": map[string]any{"type": "condo"}}
		assert.True(t, a.Equal(b))
	})
}

func TestNewID(t *testing.T) {
	t.Run("carries the canonical prefix", func(t *testing.T) {
		id := NewID()
		assert.True(t, strings.HasPrefix(id, IDPrefix))
		assert.Len(t, id, len(IDPrefix)+32)
	})

	t.Run("unique across calls", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id := NewID()
			assert.False(t, seen[id])
			seen[id] = true
		}
	})
}
