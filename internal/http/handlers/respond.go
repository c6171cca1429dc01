package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/phambaophuc/visionprep/internal/models"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (h *ImageHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func (h *ImageHandler) respondValidation(c *gin.Context, details []fieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation error",
		"details": details,
	})
}

func (h *ImageHandler) respondTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": "payload_too_large",
		"hint":  h.hint,
	})
}

func (h *ImageHandler) respondInternal(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Processing failed",
		"message": err.Error(),
	})
}

// validationDetails turns a bind error into per-field messages.
func validationDetails(err error) []fieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{
				Field:   jsonPath(fe.Namespace()),
				Message: describeTag(fe),
			})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []fieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}}
	}

	return []fieldError{{Field: "", Message: err.Error()}}
}

// jsonPath maps "GenerateRequest.Images[0].DataURL" to "images[0].dataUrl".
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = jsonFieldNames.Replace(p)
	}
	return strings.Join(parts, ".")
}

var jsonFieldNames = strings.NewReplacer(
	"DataURL", "dataUrl",
	"Filename", "filename",
	"SHA256", "sha256",
	"Metrics", "metrics",
	"Width", "width",
	"Height", "height",
	"Bytes", "bytes",
	"Images", "images",
	"Lang", "lang",
	"Tone", "tone",
	"Keywords", "keywords",
)

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed on " + fe.Tag()
	}
}
