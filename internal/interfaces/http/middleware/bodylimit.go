package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homereach/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Session
// fragments are small; anything past the cap is rejected outright.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse("Request body exceeds maximum allowed size"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
