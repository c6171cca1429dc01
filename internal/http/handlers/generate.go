package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/orchestrator"
	"github.com/phambaophuc/visionprep/internal/services/storage"
	"github.com/phambaophuc/visionprep/pkg/uploadlimits"
	"go.uber.org/zap"
)

// Generate describes every image in the request and returns the results
// keyed by fingerprint. Failed images are listed under failures.
func (h *ImageHandler) Generate(c *gin.Context) {
	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}

	outcomes := h.runner.Run(c.Request.Context(), req.Images, req.Options())
	resp := orchestrator.BuildResponse(req.Lang, outcomes, h.now())

	if len(resp.Failures) > 0 {
		h.logger.Warn("Batch completed with failures",
			zap.Int("images", len(req.Images)),
			zap.Int("failed", len(resp.Failures)))
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitJob validates like Generate, then queues the batch.
func (h *ImageHandler) SubmitJob(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Async processing is not available")
		return
	}

	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}

	job, err := h.queue.SubmitJob(c.Request.Context(), *req)
	if err != nil {
		h.logger.Error("Failed to submit job", zap.Error(err))
		h.respondError(c, http.StatusServiceUnavailable, "Failed to queue job")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data: gin.H{
			"job_id": job.ID,
			"status": job.Status,
		},
	})
}

func (h *ImageHandler) GetJob(c *gin.Context) {
	if h.queue == nil {
		h.respondError(c, http.StatusServiceUnavailable, "Async processing is not available")
		return
	}

	job, err := h.queue.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrJobNotFound) {
		h.respondError(c, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load job", zap.String("job_id", c.Param("id")), zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job.StatusView(),
	})
}

// bindGenerateRequest decodes and validates a generate request, answering
// 400 or 413 itself when the request is rejected. No model call is made
// for a rejected request.
func (h *ImageHandler) bindGenerateRequest(c *gin.Context) (*models.GenerateRequest, bool) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondTooLarge(c)
			return nil, false
		}
		h.respondValidation(c, validationDetails(err))
		return nil, false
	}

	if len(req.Images) > h.limits.MaxFiles {
		h.respondValidation(c, []fieldError{{
			Field:   "images",
			Message: fmt.Sprintf("must be at most %d", h.limits.MaxFiles),
		}})
		return nil, false
	}

	encoded := make([]uploadlimits.EncodedFile, len(req.Images))
	for i, img := range req.Images {
		encoded[i] = uploadlimits.EncodedFile{Name: img.Filename, Data: img.DataURL}
	}
	if err := h.limits.CheckEncoded(encoded, h.hint); err != nil {
		h.logger.Info("Rejected oversized batch", zap.Error(err))
		h.respondTooLarge(c)
		return nil, false
	}

	return &req, true
}
