package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const payloadTooLarge = "payload_too_large"

// BodyLimit rejects requests whose body exceeds maxBytes with 413 and hint.
// Bodies without a declared length are capped while being read; handlers
// see the overflow as a read error and must report it the same way.
func BodyLimit(maxBytes int64, hint string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if maxBytes <= 0 || ctx.Request.Body == nil {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > maxBytes {
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": payloadTooLarge,
				"hint":  hint,
			})
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBytes)
		ctx.Next()
	}
}
