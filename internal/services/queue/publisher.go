package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// SubmitJob records a queued job for req and publishes it for the workers.
func (q *QueueService) SubmitJob(ctx context.Context, req models.GenerateRequest) (*models.GenerationJob, error) {
	now := time.Now()
	job := &models.GenerationJob{
		ID:        uuid.New().String(),
		Request:   req,
		Status:    models.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := q.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	if err := q.PublishJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *QueueService) PublishJob(ctx context.Context, job *models.GenerationJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    job.ID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue",
		zap.String("job_id", job.ID),
		zap.Int("images", len(job.Request.Images)))
	return nil
}
