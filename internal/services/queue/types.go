package queue

import (
	"context"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/orchestrator"
)

// BatchRunner describes a batch of images.
type BatchRunner interface {
	Run(ctx context.Context, items []models.ImagePayload, opts models.GenerationOptions) []orchestrator.Outcome
}

// JobStore persists job status so it can be polled.
type JobStore interface {
	SaveJob(ctx context.Context, job *models.GenerationJob) error
	GetJob(ctx context.Context, id string) (*models.GenerationJob, error)
}
