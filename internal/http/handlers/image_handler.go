package handlers

import (
	"context"
	"time"

	"github.com/phambaophuc/visionprep/internal/config"
	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/orchestrator"
	"github.com/phambaophuc/visionprep/pkg/uploadlimits"
	"go.uber.org/zap"
)

// BatchRunner describes a batch of images with the AI model.
type BatchRunner interface {
	Run(ctx context.Context, items []models.ImagePayload, opts models.GenerationOptions) []orchestrator.Outcome
}

// JobQueue runs batches asynchronously.
type JobQueue interface {
	SubmitJob(ctx context.Context, req models.GenerateRequest) (*models.GenerationJob, error)
	GetJob(ctx context.Context, id string) (*models.GenerationJob, error)
	GetQueueStats() (map[string]interface{}, error)
	HealthCheck() string
}

// Storage is the cache and export backend.
type Storage interface {
	HealthCheck(ctx context.Context) map[string]string
	GetCacheStats(ctx context.Context) (map[string]interface{}, error)
	UploadExports(ctx context.Context, files []models.ExportFile) (map[string]string, error)
	UploadsEnabled() bool
}

type ImageHandler struct {
	runner  BatchRunner
	storage Storage
	queue   JobQueue
	logger  *zap.Logger
	limits  uploadlimits.Limits
	hint    string
	now     func() time.Time
}

// NewImageHandler wires the API handlers. storage and queue may be nil; the
// endpoints that need them then answer 503.
func NewImageHandler(
	runner BatchRunner,
	storage Storage,
	queue JobQueue,
	logger *zap.Logger,
	cfg *config.Config,
) *ImageHandler {
	return &ImageHandler{
		runner:  runner,
		storage: storage,
		queue:   queue,
		logger:  logger,
		limits:  cfg.Upload.Limits(),
		hint:    cfg.Upload.Hint,
		now:     time.Now,
	}
}
