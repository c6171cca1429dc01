package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/visionprep/internal/models"
	"go.uber.org/zap"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// HealthCheck reports each dependency. It answers 503 only when every
// enabled dependency is down.
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	if h.storage != nil {
		for name, status := range h.storage.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = statusDisabled
	}

	overall := overallHealth(services)

	statusCode := http.StatusOK
	if overall == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall != statusUnhealthy,
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func (h *ImageHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now(),
	}

	if h.storage != nil {
		cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to get cache stats", zap.Error(err))
		} else {
			stats["cache"] = cacheStats
		}
	}

	if h.queue != nil {
		queueStats, err := h.queue.GetQueueStats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
		} else {
			stats["queue"] = queueStats
		}
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}

func overallHealth(services map[string]string) string {
	enabled, healthy := 0, 0
	for _, status := range services {
		if status == statusDisabled {
			continue
		}
		enabled++
		if status == statusHealthy {
			healthy++
		}
	}

	switch {
	case healthy == enabled:
		return statusHealthy
	case healthy == 0:
		return statusUnhealthy
	default:
		return statusDegraded
	}
}
