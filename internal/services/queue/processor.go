package queue

import (
	"context"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/phambaophuc/visionprep/internal/services/orchestrator"
)

func (q *QueueService) processJob(ctx context.Context, job *models.GenerationJob) *models.BatchResponse {
	outcomes := q.runner.Run(ctx, job.Request.Images, job.Request.Options())
	resp := orchestrator.BuildResponse(job.Request.Lang, outcomes, time.Now())
	return &resp
}
