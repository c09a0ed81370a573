package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	t.Run("stores and retrieves logger", func(t *testing.T) {
		log := zap.NewNop()
		ctx := WithContext(context.Background(), log)
		assert.Same(t, log, FromContext(ctx))
	})

	t.Run("missing logger falls back to no-op", func(t *testing.T) {
		log := FromContext(context.Background())
		assert.NotNil(t, log)
	})
}

func TestWithRequestID(t *testing.T) {
	t.Run("enriches logger and context", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		log := zap.New(core)

		ctx, enriched := WithRequestID(context.Background(), log, "req-123")
		enriched.Info("test")

		assert.Equal(t, "req-123", GetRequestID(ctx))
		entries := logs.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	})

	t.Run("missing request id is empty", func(t *testing.T) {
		assert.Empty(t, GetRequestID(context.Background()))
	})
}

func TestWithProfileID(t *testing.T) {
	t.Run("enriches logger and context", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		log := zap.New(core)

		ctx, enriched := WithProfileID(context.Background(), log, "profile-1")
		enriched.Info("test")

		assert.Equal(t, "profile-1", GetProfileID(ctx))
		entries := logs.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "profile-1", entries[0].ContextMap()["profile_id"])
	})

	t.Run("missing profile id is empty", func(t *testing.T) {
		assert.Empty(t, GetProfileID(context.Background()))
	})
}
