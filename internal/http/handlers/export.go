package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/visionprep/internal/export"
	"github.com/phambaophuc/visionprep/internal/models"
	"go.uber.org/zap"
)

// Export renders a batch response as CSV or JSON. With upload=true both
// formats are stored and their URLs returned instead.
func (h *ImageHandler) Export(c *gin.Context) {
	var resp models.BatchResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondTooLarge(c)
			return
		}
		h.respondValidation(c, validationDetails(err))
		return
	}

	if c.Query("upload") == "true" {
		h.uploadExports(c, resp)
		return
	}

	format := c.DefaultQuery("format", export.FormatCSV)
	file, err := export.Render(format, resp, h.now())
	if err != nil {
		h.respondValidation(c, []fieldError{{Field: "format", Message: err.Error()}})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (h *ImageHandler) uploadExports(c *gin.Context, resp models.BatchResponse) {
	if h.storage == nil || !h.storage.UploadsEnabled() {
		h.respondError(c, http.StatusServiceUnavailable, "Export storage is not configured")
		return
	}

	now := h.now()
	var files []models.ExportFile
	for _, format := range []string{export.FormatCSV, export.FormatJSON} {
		file, err := export.Render(format, resp, now)
		if err != nil {
			h.respondInternal(c, err)
			return
		}
		files = append(files, file)
	}

	urls, err := h.storage.UploadExports(c.Request.Context(), files)
	if err != nil {
		h.logger.Error("Failed to upload exports", zap.Error(err))
		if len(urls) == 0 {
			h.respondError(c, http.StatusBadGateway, "Failed to upload exports")
			return
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: err == nil,
		Data:    gin.H{"files": urls},
	})
}
