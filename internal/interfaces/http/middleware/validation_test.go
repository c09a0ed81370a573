package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValidationError(t *testing.T) {
	SetupValidator()

	type req struct {
		SyncReason string `json:"syncReason" binding:"max=4"`
	}

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(req{SyncReason: "too-long-value"})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "syncReason")
	assert.Contains(t, msg, "at most 4 characters")
}

func TestFormatValidationError_NonValidationError(t *testing.T) {
	assert.Equal(t, "Invalid request body", FormatValidationError(errors.New("unexpected EOF")))
}
