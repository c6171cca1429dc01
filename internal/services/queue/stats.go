package queue

import (
	"fmt"
	"sync/atomic"

	"github.com/phambaophuc/visionprep/internal/models"
)

// jobCounters tracks the jobs settled by this process's workers.
type jobCounters struct {
	completed     atomic.Int64
	failed        atomic.Int64
	images        atomic.Int64
	imageFailures atomic.Int64
}

func (c *jobCounters) record(job *models.GenerationJob) {
	if job.Status == models.StatusFailed {
		c.failed.Add(1)
	} else {
		c.completed.Add(1)
	}
	if job.Result != nil {
		c.images.Add(int64(len(job.Result.Items)))
		c.imageFailures.Add(int64(len(job.Result.Failures)))
	}
}

func (c *jobCounters) snapshot() map[string]int64 {
	return map[string]int64{
		"completed":      c.completed.Load(),
		"failed":         c.failed.Load(),
		"images":         c.images.Load(),
		"image_failures": c.imageFailures.Load(),
	}
}

// GetQueueStats reports the backlog of queued batches alongside the jobs
// settled since startup.
func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	queueInfo, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return map[string]interface{}{
		"queue":        queueInfo.Name,
		"pending_jobs": queueInfo.Messages,
		"workers":      queueInfo.Consumers,
		"jobs":         q.counters.snapshot(),
	}, nil
}

// HealthCheck reports whether jobs can still be published.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	default:
		return "healthy"
	}
}
